package app

import (
	"github.com/clauselens/clauselens-backend/internal/http/handlers"
	"github.com/clauselens/clauselens-backend/internal/pkg/logger"
)

type Handlers struct {
	Health   *handlers.HealthHandler
	Document *handlers.DocumentHandler
	Query    *handlers.QueryHandler
}

func wireHandlers(log *logger.Logger, serviceset Services) Handlers {
	return Handlers{
		Health:   handlers.NewHealthHandler(),
		Document: handlers.NewDocumentHandler(log, serviceset.Pipeline),
		Query:    handlers.NewQueryHandler(log, serviceset.Query),
	}
}
