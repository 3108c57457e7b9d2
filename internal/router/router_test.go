package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"smartlearning-backend/internal/handlers"
	"smartlearning-backend/internal/logger"
	"smartlearning-backend/internal/middleware"
	"smartlearning-backend/internal/websocket"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	log := logger.Nop()
	jwtAuth := middleware.NewJWTAuth("test-secret", time.Hour)

	h, _ := New(
		jwtAuth,
		Handlers{
			Auth:  handlers.NewAuthHandler(nil, log),
			Video: handlers.NewVideoHandler(nil, log),
			Quiz:  handlers.NewQuizHandler(nil, log),
			User:  handlers.NewUserHandler(nil, nil, log),
		},
		websocket.NewHub(nil, jwtAuth, []string{"http://localhost:5173"}, log),
		Options{AllowedOrigins: []string{"http://localhost:5173"}, RateLimitPerMin: 60},
		log,
	)
	return h
}

func TestRouter_PublicRoutes(t *testing.T) {
	r := newTestRouter(t)

	for _, path := range []string{"/health", "/api/v1/videos/supported-formats"} {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, rr.Code)
		}
		if rr.Header().Get(middleware.RequestIDHeader) == "" {
			t.Fatalf("%s: missing request id header", path)
		}
	}
}

func TestRouter_ProtectedRoutesRequireToken(t *testing.T) {
	r := newTestRouter(t)

	routes := []struct{ method, path string }{
		{http.MethodGet, "/api/v1/auth/profile"},
		{http.MethodPatch, "/api/v1/auth/preferences"},
		{http.MethodPost, "/api/v1/videos/process"},
		{http.MethodPost, "/api/v1/videos/process-text"},
		{http.MethodPost, "/api/v1/videos/process-file"},
		{http.MethodGet, "/api/v1/videos/"},
		{http.MethodGet, "/api/v1/videos/2b1f6a52-8f0e-4f6e-9d7c-1a2b3c4d5e6f"},
		{http.MethodDelete, "/api/v1/videos/2b1f6a52-8f0e-4f6e-9d7c-1a2b3c4d5e6f"},
		{http.MethodGet, "/api/v1/quiz/video/2b1f6a52-8f0e-4f6e-9d7c-1a2b3c4d5e6f"},
		{http.MethodPost, "/api/v1/quiz/2b1f6a52-8f0e-4f6e-9d7c-1a2b3c4d5e6f/submit"},
		{http.MethodGet, "/api/v1/quiz/2b1f6a52-8f0e-4f6e-9d7c-1a2b3c4d5e6f/attempts"},
		{http.MethodGet, "/api/v1/quiz/2b1f6a52-8f0e-4f6e-9d7c-1a2b3c4d5e6f/attempts/1"},
		{http.MethodGet, "/api/v1/user/dashboard"},
		{http.MethodGet, "/api/v1/user/progress"},
		{http.MethodPatch, "/api/v1/user/profile"},
		{http.MethodGet, "/api/v1/ws"},
	}

	for _, rt := range routes {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(rt.method, rt.path, nil))
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("%s %s: expected 401, got %d", rt.method, rt.path, rr.Code)
		}
	}
}

func TestRouter_CORSPreflight(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/videos/process", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}
	if rr.Header().Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
		t.Fatalf("unexpected allow-origin %q", rr.Header().Get("Access-Control-Allow-Origin"))
	}

	req = httptest.NewRequest(http.MethodOptions, "/api/v1/videos/process", nil)
	req.Header.Set("Origin", "http://evil.example")
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	if rr.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatal("unknown origin must not be allowed")
	}
}

func TestRouter_AuthRateLimit(t *testing.T) {
	r := newTestRouter(t)

	var last int
	for i := 0; i < 11; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader("{"))
		req.RemoteAddr = "192.0.2.10:4000"
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		last = rr.Code
		if i < 10 && rr.Code != http.StatusBadRequest {
			t.Fatalf("request %d: expected 400, got %d", i+1, rr.Code)
		}
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after 10 attempts, got %d", last)
	}
}
