package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/clauselens/clauselens-backend/internal/clients/gemini"
	pkgerrors "github.com/clauselens/clauselens-backend/internal/pkg/errors"
	"github.com/clauselens/clauselens-backend/internal/pkg/logger"
)

// classifyPrefixLimit bounds how much text the classifier inspects. The
// verdict does not get better past a few pages and tokens cost money.
const classifyPrefixLimit = 3000

// ClassifyService renders the binary verdict: is this a legal document?
type ClassifyService interface {
	IsLegalDocument(ctx context.Context, text string) (bool, error)
}

type classifyService struct {
	log *logger.Logger
	ai  gemini.Client
}

func NewClassifyService(log *logger.Logger, ai gemini.Client) ClassifyService {
	return &classifyService{log: log.With("service", "ClassifyService"), ai: ai}
}

func (s *classifyService) IsLegalDocument(ctx context.Context, text string) (bool, error) {
	prefix := text
	if len(prefix) > classifyPrefixLimit {
		// Back off to a rune boundary so the cut never splits a
		// multi-byte character.
		cut := classifyPrefixLimit
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		prefix = text[:cut]
	}

	prompt := fmt.Sprintf(`You are a document classifier. Decide whether the following text comes from a legal document (for example a contract, agreement, terms of service, lease, policy, or court filing).

Answer with exactly one word: YES or NO. Do not add anything else.

Document text:
---
%s
---`, prefix)

	answer, err := s.ai.GenerateText(ctx, prompt)
	if err != nil {
		return false, err
	}

	switch strings.ToUpper(strings.TrimSpace(answer)) {
	case "YES":
		return true, nil
	case "NO":
		return false, nil
	}

	// Anything else resolves to "not legal" rather than crashing the
	// pipeline; the ambiguity is still worth a trace.
	s.log.Warn("Classifier returned non-binary answer, treating as NO",
		"answer", strings.TrimSpace(answer),
		"sentinel", pkgerrors.ErrClassificationAmbiguous,
	)
	return false, nil
}
