package app

import (
	"fmt"

	"github.com/clauselens/clauselens-backend/internal/pkg/logger"
	"github.com/clauselens/clauselens-backend/internal/services"
)

type Services struct {
	Auth     services.AuthService
	Extract  services.ExtractService
	Classify services.ClassifyService
	Ingest   services.IngestService
	Insight  services.InsightService
	Annotate services.AnnotateService
	Pipeline services.PipelineService
	Query    services.QueryService
}

func wireServices(log *logger.Logger, clients Clients, reposet Repos) (Services, error) {
	auth, err := services.NewAuthService(log)
	if err != nil {
		return Services{}, fmt.Errorf("init auth service: %w", err)
	}

	extract := services.NewExtractService(log)
	classify := services.NewClassifyService(log, clients.Gemini)
	ingest := services.NewIngestService(log, clients.Corpus)
	insight := services.NewInsightService(log, clients.Gemini)
	annotate := services.NewAnnotateService(log)

	pipeline := services.NewPipelineService(
		log,
		clients.Bucket,
		clients.DocLock,
		reposet.Document,
		extract,
		classify,
		ingest,
		insight,
		annotate,
	)
	query := services.NewQueryService(log, clients.Corpus, clients.Gemini)

	return Services{
		Auth:     auth,
		Extract:  extract,
		Classify: classify,
		Ingest:   ingest,
		Insight:  insight,
		Annotate: annotate,
		Pipeline: pipeline,
		Query:    query,
	}, nil
}
