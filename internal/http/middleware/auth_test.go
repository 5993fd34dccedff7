package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	pkgerrors "github.com/clauselens/clauselens-backend/internal/pkg/errors"
	"github.com/clauselens/clauselens-backend/internal/pkg/logger"
)

type fakeAuthService struct {
	subject string
	err     error
	lastTok string
}

func (f *fakeAuthService) VerifyIDToken(_ context.Context, tokenString string) (string, error) {
	f.lastTok = tokenString
	if f.err != nil {
		return "", f.err
	}
	return f.subject, nil
}

func newAuthTestRouter(auth *fakeAuthService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	am := NewAuthMiddleware(logger.NewNop(), auth)
	r.GET("/protected", am.RequireAuth(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": UserID(c)})
	})
	return r
}

func TestRequireAuthPassesVerifiedSubject(t *testing.T) {
	t.Parallel()
	auth := &fakeAuthService{subject: "user-42"}
	r := newAuthTestRouter(auth)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer some-token")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if auth.lastTok != "some-token" {
		t.Fatalf("verifier got token %q", auth.lastTok)
	}
	if !strings.Contains(w.Body.String(), `"user":"user-42"`) {
		t.Fatalf("subject not propagated: %s", w.Body.String())
	}
}

func TestRequireAuthRejectsMissingHeader(t *testing.T) {
	t.Parallel()
	r := newAuthTestRouter(&fakeAuthService{subject: "user-42"})

	for _, header := range []string{"", "some-token", "Basic dXNlcg==", "Bearer"} {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: status = %d", header, w.Code)
		}
		if !strings.Contains(w.Body.String(), "missing or invalid Authorization header") {
			t.Fatalf("header %q: unexpected body %s", header, w.Body.String())
		}
	}
}

func TestRequireAuthRejectsBadToken(t *testing.T) {
	t.Parallel()
	r := newAuthTestRouter(&fakeAuthService{err: pkgerrors.ErrUnauthorized})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer forged")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "invalid identity token") {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestUserIDWithoutAuth(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if got := UserID(c); got != "" {
		t.Fatalf("expected empty user id, got %q", got)
	}
}
