package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/clauselens/clauselens-backend/internal/clients/gemini"
	"github.com/clauselens/clauselens-backend/internal/clients/vertexrag"
	"github.com/clauselens/clauselens-backend/internal/pkg/logger"
)

// Fixed retrieval parameters for document Q&A.
const (
	queryTopK              = 10
	queryDistanceThreshold = 0.5
)

// FallbackAnswer is returned whenever retrieval or generation yields
// nothing usable. Callers always get a non-empty answer string.
const FallbackAnswer = "I could not find an answer to that in this document."

// ChatTurn is one prior exchange in the conversation. Accepted on the wire
// for forward compatibility; the retrieval call does not use it yet.
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// QueryService answers natural-language questions against a user's
// ingested documents with retrieval-augmented generation.
type QueryService interface {
	Answer(ctx context.Context, userID, docID, query string, history []ChatTurn) (string, error)
}

type queryService struct {
	log    *logger.Logger
	corpus vertexrag.Client
	ai     gemini.Client
}

func NewQueryService(log *logger.Logger, corpus vertexrag.Client, ai gemini.Client) QueryService {
	return &queryService{
		log:    log.With("service", "QueryService"),
		corpus: corpus,
		ai:     ai,
	}
}

func (s *queryService) Answer(ctx context.Context, userID, docID, query string, history []ChatTurn) (string, error) {
	filter := map[string]string{"user_id": userID}
	if docID != "" {
		filter["doc_id"] = docID
	}

	contexts, err := s.corpus.RetrieveContexts(ctx, query, filter, queryTopK, queryDistanceThreshold)
	if err != nil {
		return "", fmt.Errorf("retrieval failed: %w", err)
	}
	if len(contexts) == 0 {
		s.log.Debug("Retrieval returned no contexts", "user_id", userID, "doc_id", docID)
		return FallbackAnswer, nil
	}

	var snippets strings.Builder
	for i, c := range contexts {
		snippets.WriteString(fmt.Sprintf("[%d] %s\n", i+1, c.Text))
	}

	prompt := fmt.Sprintf(`You are a legal document assistant. Answer the user's question using only the excerpts below, retrieved from their document. If the excerpts do not contain the answer, say you could not find it.

Excerpts:
%s
Question: %s`, snippets.String(), query)

	answer, err := s.ai.GenerateText(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("answer generation failed: %w", err)
	}
	if strings.TrimSpace(answer) == "" {
		return FallbackAnswer, nil
	}
	return answer, nil
}
