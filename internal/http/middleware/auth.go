package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/clauselens/clauselens-backend/internal/pkg/logger"
	"github.com/clauselens/clauselens-backend/internal/services"
)

// ContextUserIDKey is where RequireAuth stores the verified subject.
const ContextUserIDKey = "auth_user_id"

type AuthMiddleware struct {
	log         *logger.Logger
	authService services.AuthService
}

func NewAuthMiddleware(log *logger.Logger, authService services.AuthService) *AuthMiddleware {
	return &AuthMiddleware{log: log.With("middleware", "AuthMiddleware"), authService: authService}
}

func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractBearerToken(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{"message": "missing or invalid Authorization header", "code": "unauthorized"},
			})
			return
		}
		userID, err := am.authService.VerifyIDToken(c.Request.Context(), tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{"message": "invalid identity token", "code": "unauthorized"},
			})
			return
		}
		c.Set(ContextUserIDKey, userID)
		c.Next()
	}
}

// UserID returns the subject RequireAuth stored for this request.
func UserID(c *gin.Context) string {
	v, ok := c.Get(ContextUserIDKey)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

func extractBearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return authHeader[7:]
	}
	return ""
}
