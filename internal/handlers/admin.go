package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RefreshResponse is the body of a successful catalog refresh.
type RefreshResponse struct {
	LoadedAt time.Time `json:"loadedAt" jsonschema:"required"`
	Version  string    `json:"catalogVersion" jsonschema:"required"`
}

// RefreshCatalog reloads the catalog snapshot
// @Summary Refresh catalog snapshot
// @Description Reloads the in-memory catalog from its source. Requires the internal API key.
// @Tags admin
// @Produce json
// @Param X-Internal-API-Key header string true "Internal API key"
// @Success 200 {object} RefreshResponse
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 404 {object} ErrorResponse "No refreshable catalog"
// @Failure 503 {object} ErrorResponse "Reload failed"
// @Router /api/admin/catalog/refresh [post]
func (h *Handler) RefreshCatalog(c *gin.Context) {
	if h.refresher == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "catalog is not refreshable"})
		return
	}

	if err := h.refresher.Refresh(c.Request.Context()); err != nil {
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("Catalog refresh failed")
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "catalog refresh failed"})
		return
	}

	if h.breaker != nil {
		h.breaker.Reset()
	}
	c.JSON(http.StatusOK, RefreshResponse{LoadedAt: h.refresher.LoadedAt(), Version: h.refresher.Version()})
}
