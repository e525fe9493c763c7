package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/bossing/basket-service/config"
	"github.com/bossing/basket-service/internal/catalog"
	"github.com/bossing/basket-service/internal/handlers"
	"github.com/bossing/basket-service/internal/middleware"
	"github.com/bossing/basket-service/internal/optimizer"
)

func testRouter(apiKey string) http.Handler {
	cfg := &config.Config{
		InternalAPIKey: apiKey,
		RateLimit:      middleware.DefaultRateLimiterConfig(),
	}
	cfg.Telemetry.ServiceName = "basket-service-test"

	mem := catalog.NewMemory([]catalog.Store{{ID: "lidl", Name: "Lidl", Slug: "lidl", Active: true}}, nil)
	h := handlers.New(optimizer.NewService(mem, nil), mem)
	logger := zerolog.Nop()
	return newRouter(cfg, &logger, h, middleware.NewIPRateLimiter(cfg.RateLimit))
}

func get(r http.Handler, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRouterServesOperationalEndpoints(t *testing.T) {
	r := testRouter("")

	assert.Equal(t, http.StatusOK, get(r, http.MethodGet, "/health", nil).Code)
	assert.Equal(t, http.StatusOK, get(r, http.MethodGet, "/api/supermarkets", nil).Code)

	w := get(r, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")

	assert.Equal(t, http.StatusOK, get(r, http.MethodGet, "/docs/doc.json", nil).Code)

	w = get(r, http.MethodGet, "/health", map[string]string{middleware.RequestIDHeader: "trace-me-1"})
	assert.Equal(t, "trace-me-1", w.Header().Get(middleware.RequestIDHeader))
}

func TestRouterGuardsAdminEndpoints(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, get(testRouter(""), http.MethodPost, "/api/admin/catalog/refresh", nil).Code)

	r := testRouter("s3cret")
	assert.Equal(t, http.StatusUnauthorized, get(r, http.MethodPost, "/api/admin/catalog/refresh", nil).Code)

	// authorized, but the memory catalog is not refreshable
	w := get(r, http.MethodPost, "/api/admin/catalog/refresh", map[string]string{middleware.InternalAPIKeyHeader: "s3cret"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "not refreshable")
}
