package handlers

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bossing/basket-service/internal/catalog"
	"github.com/bossing/basket-service/internal/optimizer"
)

func TestHealthCheck(t *testing.T) {
	r := newRouter(t, testCatalog())

	w := doJSON(t, r, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, HealthResponse{Status: "ok", Catalog: "connected", Ready: true}, decode[HealthResponse](t, w))
}

func TestHealthCheck_Unreachable(t *testing.T) {
	r := newRouter(t, downProvider{})

	w := doJSON(t, r, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	resp := decode[HealthResponse](t, w)
	assert.Equal(t, "unavailable", resp.Status)
	assert.Equal(t, "disconnected", resp.Catalog)
}

func TestHealthCheck_WarmingUp(t *testing.T) {
	gate := optimizer.NewWarmupGate(zerolog.Nop())
	r := newRouter(t, testCatalog(), WithWarmupGate(gate))

	w := doJSON(t, r, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	resp := decode[HealthResponse](t, w)
	assert.False(t, resp.Ready)
	assert.Equal(t, "connected", resp.Catalog)

	gate.Ready()
	w = doJSON(t, r, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHealthCheck_BreakerOpen(t *testing.T) {
	breaker := optimizer.NewCircuitBreaker("health-test", &optimizer.CircuitBreakerConfig{
		MaxFailures:      1,
		ResetTimeout:     time.Hour,
		HalfOpenMaxCalls: 1,
	}, nil, zerolog.Nop())
	breaker.RecordFailure(catalog.ErrCatalogUnavailable)

	r := newRouter(t, testCatalog(), WithBreaker(breaker))

	w := doJSON(t, r, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[HealthResponse](t, w)
	assert.Equal(t, "degraded", resp.Status)
	assert.Equal(t, "open", resp.Breaker)
}

func TestRefreshCatalog(t *testing.T) {
	var loads atomic.Int32
	var fail atomic.Bool
	cache := catalog.NewSnapshotCache(catalog.LoaderFunc(func(ctx context.Context) (*catalog.Memory, error) {
		if fail.Load() {
			return nil, errors.New("source offline")
		}
		loads.Add(1)
		return testCatalog(), nil
	}), time.Hour, time.Second)
	require.NoError(t, cache.Warmup(context.Background()))

	breaker := optimizer.NewCircuitBreaker("refresh-test", &optimizer.CircuitBreakerConfig{
		MaxFailures:      1,
		ResetTimeout:     time.Hour,
		HalfOpenMaxCalls: 1,
	}, nil, zerolog.Nop())
	breaker.RecordFailure(catalog.ErrCatalogUnavailable)

	r := newRouter(t, cache, WithRefresher(cache), WithBreaker(breaker))

	w := doJSON(t, r, http.MethodPost, "/api/admin/catalog/refresh", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, int32(2), loads.Load())
	refreshed := decode[RefreshResponse](t, w)
	assert.False(t, refreshed.LoadedAt.IsZero())
	assert.Equal(t, testCatalog().Fingerprint(), refreshed.Version)
	assert.Equal(t, optimizer.CircuitClosed, breaker.State())

	w = doJSON(t, r, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	health := decode[HealthResponse](t, w)
	assert.NotNil(t, health.LoadedAt)
	assert.Equal(t, refreshed.Version, health.Version)

	fail.Store(true)
	w = doJSON(t, r, http.MethodPost, "/api/admin/catalog/refresh", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	// the previous snapshot keeps serving
	w = doJSON(t, r, http.MethodGet, "/api/supermarkets", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRefreshCatalog_NotRefreshable(t *testing.T) {
	r := newRouter(t, testCatalog())

	w := doJSON(t, r, http.MethodPost, "/api/admin/catalog/refresh", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
