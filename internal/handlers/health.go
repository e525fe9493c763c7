package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const healthTimeout = 2 * time.Second

// HealthResponse represents the health check response
type HealthResponse struct {
	Status   string     `json:"status" jsonschema:"required,enum=ok,enum=degraded,enum=unavailable"`
	Catalog  string     `json:"catalog" jsonschema:"required"`
	Ready    bool       `json:"ready" jsonschema:"required"`
	Breaker  string     `json:"breaker,omitempty"`
	LoadedAt *time.Time `json:"loadedAt,omitempty"`
	Version  string     `json:"catalogVersion,omitempty"`
}

// HealthCheck reports whether the catalog can serve comparisons
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /health [get]
func (h *Handler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	resp := HealthResponse{Status: "ok", Catalog: "connected", Ready: true}
	if h.gate != nil {
		resp.Ready = h.gate.IsReady()
	}
	if h.refresher != nil {
		if t := h.refresher.LoadedAt(); !t.IsZero() {
			resp.LoadedAt = &t
		}
		resp.Version = h.refresher.Version()
	}
	if h.breaker != nil {
		resp.Breaker = h.breaker.State().String()
	}

	if err := h.provider.Ping(ctx); err != nil {
		resp.Status = "unavailable"
		resp.Catalog = "disconnected"
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}
	if !resp.Ready {
		resp.Status = "unavailable"
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}
	if resp.Breaker != "" && resp.Breaker != "closed" {
		resp.Status = "degraded"
	}

	c.JSON(http.StatusOK, resp)
}
