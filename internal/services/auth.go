package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	pkgerrors "github.com/clauselens/clauselens-backend/internal/pkg/errors"
	"github.com/clauselens/clauselens-backend/internal/pkg/logger"
	"github.com/clauselens/clauselens-backend/internal/utils"
)

// AuthService verifies bearer identity tokens minted by the external
// identity provider. The provider's JWKS endpoint supplies the public keys;
// keyfunc caches and refreshes them on its own.
type AuthService interface {
	// VerifyIDToken returns the subject (user id) of a valid token.
	VerifyIDToken(ctx context.Context, tokenString string) (string, error)
}

type authService struct {
	log      *logger.Logger
	jwks     keyfunc.Keyfunc
	audience string
}

func NewAuthService(log *logger.Logger) (AuthService, error) {
	serviceLog := log.With("service", "AuthService")

	jwksURL := strings.TrimSpace(utils.GetEnv("AUTH_JWKS_URL", "", log))
	if jwksURL == "" {
		return nil, fmt.Errorf("missing AUTH_JWKS_URL")
	}
	audience := strings.TrimSpace(utils.GetEnv("AUTH_AUDIENCE", "", log))

	jwks, err := keyfunc.NewDefaultCtx(context.Background(), []string{jwksURL})
	if err != nil {
		return nil, fmt.Errorf("create JWKS client: %w", err)
	}

	serviceLog.Info("Identity token verifier initialized", "jwks_url", jwksURL)
	return &authService{log: serviceLog, jwks: jwks, audience: audience}, nil
}

func (s *authService) VerifyIDToken(ctx context.Context, tokenString string) (string, error) {
	if strings.TrimSpace(tokenString) == "" {
		return "", pkgerrors.ErrUnauthorized
	}

	opts := []jwt.ParserOption{
		// Keep the accepted algorithms pinned; a JWKS key never signs HS256.
		jwt.WithValidMethods([]string{"RS256", "ES256"}),
	}
	if s.audience != "" {
		opts = append(opts, jwt.WithAudience(s.audience))
	}

	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, s.jwks.Keyfunc, opts...)
	if err != nil {
		s.log.Debug("Token verification failed", "error", err)
		return "", pkgerrors.ErrUnauthorized
	}
	if !token.Valid {
		return "", pkgerrors.ErrUnauthorized
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", pkgerrors.ErrUnauthorized
	}
	return claims.Subject, nil
}
