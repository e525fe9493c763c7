// Package handlers exposes the basket comparison pipeline over HTTP.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/bossing/basket-service/internal/catalog"
	"github.com/bossing/basket-service/internal/optimizer"
)

// Refresher reloads the catalog snapshot on demand.
type Refresher interface {
	Refresh(ctx context.Context) error
	LoadedAt() time.Time
	Version() string
}

// Handler serves the public API. Construct it with New.
type Handler struct {
	service   *optimizer.Service
	provider  catalog.Provider
	breaker   *optimizer.CircuitBreaker
	gate      *optimizer.WarmupGate
	refresher Refresher
}

// Option configures a Handler.
type Option func(*Handler)

// WithBreaker reports the breaker state on /health.
func WithBreaker(b *optimizer.CircuitBreaker) Option {
	return func(h *Handler) { h.breaker = b }
}

// WithWarmupGate reports warmup progress on /health.
func WithWarmupGate(g *optimizer.WarmupGate) Option {
	return func(h *Handler) { h.gate = g }
}

// WithRefresher enables the catalog refresh endpoint.
func WithRefresher(r Refresher) Option {
	return func(h *Handler) { h.refresher = r }
}

// New creates a handler over the comparison service and its provider.
func New(service *optimizer.Service, provider catalog.Provider, opts ...Option) *Handler {
	RegisterValidators()
	h := &Handler{service: service, provider: provider}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts the public API routes on r.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/health", h.HealthCheck)

	api := r.Group("/api")
	{
		api.POST("/optimize", h.Optimize)
		api.POST("/optimize/preview", h.Preview)
		api.GET("/supermarkets", h.ListSupermarkets)
		api.GET("/supermarkets/:id", h.GetSupermarket)
		api.GET("/products/search", h.SearchProducts)
		api.GET("/products/:id", h.GetProduct)
	}
}

// RegisterAdmin mounts operator routes on r. Callers guard r with
// middleware.InternalAuth.
func (h *Handler) RegisterAdmin(r gin.IRouter) {
	r.POST("/catalog/refresh", h.RefreshCatalog)
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error string `json:"error" jsonschema:"required"`
}

// respondError maps a pipeline error to a status and a generic message.
// Details are logged, never returned.
func respondError(c *gin.Context, err error) {
	reason := optimizer.ErrorReason(err)
	status, msg := http.StatusInternalServerError, "internal error"
	switch reason {
	case "validation":
		status, msg = http.StatusBadRequest, "invalid request"
	case "catalog_unavailable":
		status, msg = http.StatusServiceUnavailable, "catalog unavailable"
	case "timeout":
		status, msg = http.StatusGatewayTimeout, "request timed out"
	case "cancelled":
		status, msg = http.StatusServiceUnavailable, "service temporarily unavailable"
	}

	zerolog.Ctx(c.Request.Context()).Debug().
		Err(err).
		Str("reason", reason).
		Int("status", status).
		Msg("Request failed")
	c.JSON(status, ErrorResponse{Error: msg})
}

// badRequest rejects a request that failed binding.
func badRequest(c *gin.Context, err error) {
	zerolog.Ctx(c.Request.Context()).Debug().Err(err).Msg("Invalid request")
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request"})
}
