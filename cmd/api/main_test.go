package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/inkwell/inkwell/internal/cache"
	"github.com/inkwell/inkwell/internal/config"
	"github.com/inkwell/inkwell/internal/handler"
	"github.com/inkwell/inkwell/internal/metrics"
	"github.com/inkwell/inkwell/internal/model"
)

type rejectAll struct{}

func (rejectAll) Authenticate(context.Context, string) (model.Caller, error) {
	return model.Anonymous(), errors.New("invalid")
}

type allowAll struct{}

func (allowAll) CheckIPRateLimit(context.Context, string, string, int, int) (*cache.RateLimitResult, error) {
	return &cache.RateLimitResult{Allowed: true}, nil
}

func testRouter() http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := routes{
		root:       handler.New(),
		health:     handler.NewHealthHandler(),
		metrics:    handler.NewMetricsHandler(metrics.NewInMemory()),
		users:      handler.NewUserHandler(nil, logger),
		posts:      handler.NewPostHandler(nil, logger),
		categories: handler.NewCategoryHandler(nil, logger),
		comments:   handler.NewCommentHandler(nil, logger),
		dashboard:  handler.NewDashboardHandler(nil, logger),
	}
	cfg := &config.Config{AppEnv: "development", MaxRequestBodySize: 1 << 20}
	return setupRouter(h, rejectAll{}, allowAll{}, cfg, logger)
}

func TestRouter(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		path       string
		header     string
		wantStatus int
	}{
		{name: "liveness", method: http.MethodGet, path: "/healthz", wantStatus: http.StatusOK},
		{name: "readiness without deps", method: http.MethodGet, path: "/readyz", wantStatus: http.StatusOK},
		{name: "metrics", method: http.MethodGet, path: "/metrics", wantStatus: http.StatusOK},
		{name: "dashboard requires auth", method: http.MethodGet, path: "/api/dashboard", wantStatus: http.StatusUnauthorized},
		{name: "own posts require auth", method: http.MethodGet, path: "/api/user/posts", wantStatus: http.StatusUnauthorized},
		{name: "invalid bearer rejected", method: http.MethodGet, path: "/api/posts", header: "Bearer expired", wantStatus: http.StatusUnauthorized},
		{name: "unknown route", method: http.MethodGet, path: "/nope", wantStatus: http.StatusNotFound},
		{name: "method not allowed", method: http.MethodPost, path: "/healthz", wantStatus: http.StatusMethodNotAllowed},
	}

	router := testRouter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("%s %s = %d, want %d (body %s)", tt.method, tt.path, rec.Code, tt.wantStatus, rec.Body.String())
			}
			if rec.Header().Get("X-Request-ID") == "" {
				t.Error("X-Request-ID header missing")
			}
		})
	}
}

func TestRedactURL(t *testing.T) {
	tests := map[string]string{
		"postgres://inkwell:s3cret@db:5432/inkwell": "postgres://inkwell@db:5432/inkwell",
		"redis://:s3cret@cache:6379/0":              "redis://redacted@cache:6379/0",
		"postgres://db/inkwell?password=s3cret":     "postgres://db/inkwell?password=redacted",
		"":                                          "",
	}
	for in, want := range tests {
		if got := redactURL(in); got != want {
			t.Errorf("redactURL(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSanitizeError(t *testing.T) {
	dsn := "postgres://inkwell:s3cret@db:5432/inkwell"
	err := errors.New("connect " + dsn + " failed: password=hunter2 rejected")

	got := sanitizeError(err, dsn)
	if strings.Contains(got, "s3cret") || strings.Contains(got, "hunter2") {
		t.Errorf("sanitizeError leaked a secret: %s", got)
	}
	if sanitizeError(nil) != "" {
		t.Error("sanitizeError(nil) should be empty")
	}
}
