package services

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	pkgerrors "github.com/clauselens/clauselens-backend/internal/pkg/errors"
	"github.com/clauselens/clauselens-backend/internal/pkg/logger"
)

const testKeyID = "test-key-1"

// newJWKSServer serves the public half of key as a JWKS document, the way
// the identity provider's endpoint does.
func newJWKSServer(t *testing.T, key *rsa.PrivateKey) *httptest.Server {
	t.Helper()

	jwks := map[string]any{
		"keys": []map[string]string{{
			"kty": "RSA",
			"alg": "RS256",
			"use": "sig",
			"kid": testKeyID,
			"n":   base64.RawURLEncoding.EncodeToString(key.PublicKey.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.PublicKey.E)).Bytes()),
		}},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(jwks)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func signTestToken(t *testing.T, key *rsa.PrivateKey, claims jwt.RegisteredClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = testKeyID
	signed, err := token.SignedString(key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestAuthVerifyIDToken(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	srv := newJWKSServer(t, key)
	t.Setenv("AUTH_JWKS_URL", srv.URL)
	t.Setenv("AUTH_AUDIENCE", "")

	svc, err := NewAuthService(logger.NewNop())
	if err != nil {
		t.Fatalf("create auth service: %v", err)
	}

	t.Run("valid token yields subject", func(t *testing.T) {
		token := signTestToken(t, key, jwt.RegisteredClaims{
			Subject:   "user-42",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		})
		subject, err := svc.VerifyIDToken(context.Background(), token)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if subject != "user-42" {
			t.Fatalf("unexpected subject: %q", subject)
		}
	})

	t.Run("expired token rejected", func(t *testing.T) {
		token := signTestToken(t, key, jwt.RegisteredClaims{
			Subject:   "user-42",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		})
		if _, err := svc.VerifyIDToken(context.Background(), token); !errors.Is(err, pkgerrors.ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("missing subject rejected", func(t *testing.T) {
		token := signTestToken(t, key, jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		})
		if _, err := svc.VerifyIDToken(context.Background(), token); !errors.Is(err, pkgerrors.ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("token signed by unknown key rejected", func(t *testing.T) {
		otherKey, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			t.Fatalf("generate key: %v", err)
		}
		token := signTestToken(t, otherKey, jwt.RegisteredClaims{
			Subject:   "user-42",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		})
		if _, err := svc.VerifyIDToken(context.Background(), token); !errors.Is(err, pkgerrors.ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("garbage token rejected", func(t *testing.T) {
		for _, tok := range []string{"", "   ", "not.a.jwt"} {
			if _, err := svc.VerifyIDToken(context.Background(), tok); !errors.Is(err, pkgerrors.ErrUnauthorized) {
				t.Fatalf("token %q: expected ErrUnauthorized, got %v", tok, err)
			}
		}
	})
}

func TestAuthServiceRequiresJWKSURL(t *testing.T) {
	t.Setenv("AUTH_JWKS_URL", "")
	if _, err := NewAuthService(logger.NewNop()); err == nil {
		t.Fatal("expected configuration error")
	}
}

func TestAuthAudienceEnforced(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	srv := newJWKSServer(t, key)
	t.Setenv("AUTH_JWKS_URL", srv.URL)
	t.Setenv("AUTH_AUDIENCE", "clauselens")

	svc, err := NewAuthService(logger.NewNop())
	if err != nil {
		t.Fatalf("create auth service: %v", err)
	}

	good := signTestToken(t, key, jwt.RegisteredClaims{
		Subject:   "user-42",
		Audience:  jwt.ClaimStrings{"clauselens"},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	if _, err := svc.VerifyIDToken(context.Background(), good); err != nil {
		t.Fatalf("matching audience should verify: %v", err)
	}

	bad := signTestToken(t, key, jwt.RegisteredClaims{
		Subject:   "user-42",
		Audience:  jwt.ClaimStrings{"someone-else"},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	if _, err := svc.VerifyIDToken(context.Background(), bad); !errors.Is(err, pkgerrors.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for wrong audience, got %v", err)
	}
}
