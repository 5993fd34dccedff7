package server

import (
	"github.com/gin-gonic/gin"

	"github.com/clauselens/clauselens-backend/internal/http/handlers"
	"github.com/clauselens/clauselens-backend/internal/http/middleware"
	"github.com/clauselens/clauselens-backend/internal/pkg/logger"
)

type RouterConfig struct {
	Log             *logger.Logger
	AuthMiddleware  *middleware.AuthMiddleware
	HealthHandler   *handlers.HealthHandler
	DocumentHandler *handlers.DocumentHandler
	QueryHandler    *handlers.QueryHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	router.Use(middleware.CORS())
	router.Use(middleware.RequestLog(cfg.Log))

	// Public
	router.GET("/healthcheck", cfg.HealthHandler.HealthCheck)

	api := router.Group("/api/v1")
	{
		// The process trigger is called by trusted infrastructure (storage
		// event forwarder), not by end users; it carries no user identity.
		api.POST("/documents/process", cfg.DocumentHandler.Process)

		protected := api.Group("/")
		protected.Use(cfg.AuthMiddleware.RequireAuth())
		protected.POST("/query", cfg.QueryHandler.Query)
	}

	return router
}
