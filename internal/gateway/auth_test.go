package gateway

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/telepress/telepress/internal/config"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
}

func TestAuthMiddleware_ValidBearerToken(t *testing.T) {
	t.Parallel()

	cfg := config.AuthConfig{BearerToken: "secret-token"}
	handler := authMiddleware(cfg)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer secret-token")
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusOK)
	}
}

func TestAuthMiddleware_InvalidBearerToken(t *testing.T) {
	t.Parallel()

	cfg := config.AuthConfig{BearerToken: "secret-token"}
	handler := authMiddleware(cfg)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer wrong-token")
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	t.Parallel()

	cfg := config.AuthConfig{BearerToken: "secret-token"}
	handler := authMiddleware(cfg)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestRouter_AuthProtectsAPIOnly(t *testing.T) {
	t.Parallel()

	_, h := newTestGateway(t, func(cfg *config.Config) {
		cfg.Server.Auth.BearerToken = "secret"
	})

	// API rejects without the token.
	rr := doJSON(t, h, http.MethodGet, "/api/notes", "", nil)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("GET /api/notes without token = %d, want 401", rr.Code)
	}

	// Health stays public.
	rr = doJSON(t, h, http.MethodGet, "/health", "", nil)
	if rr.Code != http.StatusOK {
		t.Errorf("GET /health = %d, want 200", rr.Code)
	}

	// API accepts with the token.
	req := httptest.NewRequest(http.MethodGet, "/api/notes", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("GET /api/notes with token = %d, want 200", rec.Code)
	}
}
