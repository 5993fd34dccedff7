package services

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/clauselens/clauselens-backend/internal/clients/vertexrag"
	"github.com/clauselens/clauselens-backend/internal/pkg/logger"
)

// IngestService registers an uploaded file with the managed retrieval
// corpus so later queries can be scoped to its owner and document.
type IngestService interface {
	// Ingest uploads the local file under a display name that keeps the
	// original extension. Returns the corpus-assigned handle; the pipeline
	// does not consume it.
	Ingest(ctx context.Context, localPath, originalName, userID, docID string) (string, error)
}

type ingestService struct {
	log    *logger.Logger
	corpus vertexrag.Client
}

func NewIngestService(log *logger.Logger, corpus vertexrag.Client) IngestService {
	return &ingestService{log: log.With("service", "IngestService"), corpus: corpus}
}

func (s *ingestService) Ingest(ctx context.Context, localPath, originalName, userID, docID string) (string, error) {
	ext := filepath.Ext(originalName)
	displayName := fmt.Sprintf("%s-%s%s", userID, docID, ext)

	ragFile, err := s.corpus.UploadFile(ctx, localPath, displayName, map[string]string{
		"user_id": userID,
		"doc_id":  docID,
	})
	if err != nil {
		return "", err
	}

	s.log.Info("Document ingested into retrieval corpus",
		"user_id", userID,
		"doc_id", docID,
		"rag_file", ragFile,
	)
	return ragFile, nil
}
