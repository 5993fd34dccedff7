package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORS permits every origin. The API is consumed by browser clients served
// from arbitrary hosts; identity lives in the bearer token, not in cookies,
// so credentialed CORS is unnecessary.
func CORS() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:    []string{"Authorization", "Content-Type", "X-Requested-With"},
		MaxAge:          time.Hour,
	})
}
