package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bossing/basket-service/internal/catalog"
	"github.com/bossing/basket-service/internal/optimizer"
)

// ============================================================================
// Catalog Endpoints
// ============================================================================

// SupermarketsResponse lists the active supermarkets.
type SupermarketsResponse struct {
	Data  []StoreInfo `json:"data" jsonschema:"required"`
	Total int         `json:"total" jsonschema:"required"`
}

// SearchRequest holds the query parameters of a product search.
type SearchRequest struct {
	Query string `form:"q" binding:"required,notblank,max=200"`
	Limit int    `form:"limit" binding:"omitempty,min=1,max=100"`
}

// ProductPrice is a product's price at one supermarket, in euros.
type ProductPrice struct {
	StoreID      string  `json:"storeId" jsonschema:"required"`
	Price        float64 `json:"price" jsonschema:"required"`
	PricePerUnit float64 `json:"pricePerUnit" jsonschema:"required"`
}

// Product is a catalog product with its prices.
type Product struct {
	ID       string         `json:"id" jsonschema:"required"`
	Name     string         `json:"name" jsonschema:"required"`
	Brand    *string        `json:"brand,omitempty"`
	Category *string        `json:"category,omitempty"`
	Unit     string         `json:"unit" jsonschema:"required"`
	Size     *float64       `json:"size,omitempty"`
	ImageURL *string        `json:"imageUrl,omitempty"`
	Prices   []ProductPrice `json:"prices" jsonschema:"required"`
}

// SearchResponse is the body of /api/products/search.
type SearchResponse struct {
	Data  []Product `json:"data" jsonschema:"required"`
	Query string    `json:"query" jsonschema:"required"`
	Tier  string    `json:"tier" jsonschema:"required,enum=phrase,enum=keyword,enum=none"`
	Total int       `json:"total" jsonschema:"required"`
}

func toProduct(p *catalog.CandidateProduct) Product {
	prices := make([]ProductPrice, 0, len(p.Prices))
	for _, sp := range p.Prices {
		prices = append(prices, ProductPrice{
			StoreID:      sp.StoreID,
			Price:        catalog.ToEuros(sp.Price),
			PricePerUnit: catalog.ToEuros(sp.PricePerUnit),
		})
	}
	return Product{
		ID:       p.ID,
		Name:     p.Name,
		Brand:    p.Brand,
		Category: p.Category,
		Unit:     p.Unit,
		Size:     p.Size,
		ImageURL: p.ImageURL,
		Prices:   prices,
	}
}

// ListSupermarkets returns the active supermarkets
// @Summary List supermarkets
// @Description Returns every active supermarket known to the catalog
// @Tags catalog
// @Produce json
// @Success 200 {object} SupermarketsResponse
// @Failure 503 {object} ErrorResponse "Catalog unavailable"
// @Router /api/supermarkets [get]
func (h *Handler) ListSupermarkets(c *gin.Context) {
	stores, err := h.service.Stores(c.Request.Context())
	if err != nil {
		respondError(c, asUnavailable(err))
		return
	}

	data := make([]StoreInfo, 0, len(stores))
	for _, s := range stores {
		data = append(data, toStoreInfo(s))
	}
	c.JSON(http.StatusOK, SupermarketsResponse{Data: data, Total: len(data)})
}

// GetSupermarket returns one active supermarket by id or slug
// @Summary Get supermarket
// @Tags catalog
// @Produce json
// @Param id path string true "Supermarket id or slug"
// @Success 200 {object} StoreInfo
// @Failure 404 {object} ErrorResponse "Not found"
// @Failure 503 {object} ErrorResponse "Catalog unavailable"
// @Router /api/supermarkets/{id} [get]
func (h *Handler) GetSupermarket(c *gin.Context) {
	id := c.Param("id")

	stores, err := h.service.Stores(c.Request.Context())
	if err != nil {
		respondError(c, asUnavailable(err))
		return
	}
	for _, s := range stores {
		if s.ID == id || s.Slug == id {
			c.JSON(http.StatusOK, toStoreInfo(s))
			return
		}
	}
	c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found"})
}

// SearchProducts finds catalog products by free text
// @Summary Search products
// @Description Matches the normalized query against product names first, then falls back to its first significant keyword
// @Tags catalog
// @Produce json
// @Param q query string true "Search text"
// @Param limit query int false "Maximum results" default(20) minimum(1) maximum(100)
// @Success 200 {object} SearchResponse
// @Failure 400 {object} ErrorResponse "Invalid request"
// @Failure 503 {object} ErrorResponse "Catalog unavailable"
// @Router /api/products/search [get]
func (h *Handler) SearchProducts(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.Limit == 0 {
		req.Limit = 20
	}
	if limit := h.service.Config().SearchLimit; limit > 0 && req.Limit > limit {
		req.Limit = limit
	}

	results, tier, err := h.service.Search(c.Request.Context(), req.Query, req.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	data := make([]Product, 0, len(results))
	for _, p := range results {
		data = append(data, toProduct(p))
	}
	c.JSON(http.StatusOK, SearchResponse{Data: data, Query: req.Query, Tier: string(tier), Total: len(data)})
}

// GetProduct returns one catalog product by id
// @Summary Get product
// @Tags catalog
// @Produce json
// @Param id path string true "Catalog product id"
// @Success 200 {object} Product
// @Failure 404 {object} ErrorResponse "Not found"
// @Failure 503 {object} ErrorResponse "Catalog unavailable"
// @Router /api/products/{id} [get]
func (h *Handler) GetProduct(c *gin.Context) {
	p, ok, err := h.provider.FindProductByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, asUnavailable(err))
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found"})
		return
	}
	c.JSON(http.StatusOK, toProduct(p))
}

// asUnavailable treats any provider failure outside a pipeline as an outage.
func asUnavailable(err error) error {
	if optimizer.ErrorReason(err) != "internal" {
		return err
	}
	return fmt.Errorf("%w: %w", catalog.ErrCatalogUnavailable, err)
}
