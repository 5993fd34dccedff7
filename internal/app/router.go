package app

import (
	"github.com/gin-gonic/gin"

	"github.com/clauselens/clauselens-backend/internal/pkg/logger"
	"github.com/clauselens/clauselens-backend/internal/server"
)

func wireRouter(log *logger.Logger, handlerset Handlers, middlewareset Middleware) *gin.Engine {
	return server.NewRouter(server.RouterConfig{
		Log:             log,
		AuthMiddleware:  middlewareset.Auth,
		HealthHandler:   handlerset.Health,
		DocumentHandler: handlerset.Document,
		QueryHandler:    handlerset.Query,
	})
}
