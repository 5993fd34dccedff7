package app

import (
	"fmt"

	"github.com/clauselens/clauselens-backend/internal/clients/gcp"
	"github.com/clauselens/clauselens-backend/internal/clients/gemini"
	"github.com/clauselens/clauselens-backend/internal/clients/redis"
	"github.com/clauselens/clauselens-backend/internal/clients/vertexrag"
	"github.com/clauselens/clauselens-backend/internal/pkg/logger"
)

// Clients are the process-wide external service collaborators, initialized
// once at startup and injected into services.
type Clients struct {
	Bucket  gcp.BucketService
	Gemini  gemini.Client
	Corpus  vertexrag.Client
	DocLock redis.DocLockService
}

func wireClients(log *logger.Logger) (Clients, error) {
	bucket, err := gcp.NewBucketService(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init bucket service: %w", err)
	}
	ai, err := gemini.NewClient(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init gemini client: %w", err)
	}
	corpus, err := vertexrag.NewClient(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init vertex rag client: %w", err)
	}
	docLock, err := redis.NewDocLockService(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init doc lock service: %w", err)
	}
	return Clients{
		Bucket:  bucket,
		Gemini:  ai,
		Corpus:  corpus,
		DocLock: docLock,
	}, nil
}
