package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bossing/basket-service/internal/catalog"
	"github.com/bossing/basket-service/internal/optimizer"
)

// ============================================================================
// Basket Optimization Endpoints
// ============================================================================

// OptimizeItem is one line of the shopping list.
type OptimizeItem struct {
	CatalogID string `json:"catalogId,omitempty" binding:"omitempty,max=128"`
	ProductID string `json:"productId,omitempty" binding:"omitempty,max=128" jsonschema:"description=Deprecated alias of catalogId"`
	Name      string `json:"name" binding:"required,notblank,max=200" jsonschema:"required"`
	Quantity  *int   `json:"quantity,omitempty" binding:"omitempty,min=1,max=999" jsonschema:"minimum=1,default=1"`
}

// Location is the shopper's position.
type Location struct {
	Lat *float64 `json:"lat" binding:"required,min=-90,max=90" jsonschema:"required,minimum=-90,maximum=90"`
	Lng *float64 `json:"lng" binding:"required,min=-180,max=180" jsonschema:"required,minimum=-180,maximum=180"`
}

// OptimizeRequest is the body of /api/optimize and /api/optimize/preview.
// maxRadius, maxStops and prioritize are validated and echoed but do not
// change the ranking.
type OptimizeRequest struct {
	Items      []OptimizeItem `json:"items" binding:"required,min=1,max=100,dive" jsonschema:"required,minItems=1,maxItems=100"`
	Location   *Location      `json:"location" binding:"required" jsonschema:"required"`
	MaxRadius  *float64       `json:"maxRadius,omitempty" binding:"omitempty,gt=0" jsonschema:"default=10"`
	MaxStops   *int           `json:"maxStops,omitempty" binding:"omitempty,min=1,max=5" jsonschema:"minimum=1,maximum=5,default=3"`
	Prioritize string         `json:"prioritize,omitempty" binding:"omitempty,prioritize" jsonschema:"enum=price,enum=distance,enum=balanced,default=balanced"`
}

// toCompareRequest converts the wire request; missing optional fields stay
// zero so the service applies its defaults.
func (r *OptimizeRequest) toCompareRequest() optimizer.CompareRequest {
	items := make([]optimizer.RequestItem, len(r.Items))
	for i, it := range r.Items {
		id := it.CatalogID
		if id == "" {
			id = it.ProductID
		}
		qty := 1
		if it.Quantity != nil {
			qty = *it.Quantity
		}
		items[i] = optimizer.RequestItem{CatalogID: id, Name: it.Name, Quantity: qty}
	}

	req := optimizer.CompareRequest{Items: items, Prioritize: r.Prioritize}
	if r.Location != nil && r.Location.Lat != nil && r.Location.Lng != nil {
		req.Location = optimizer.Location{Lat: *r.Location.Lat, Lng: *r.Location.Lng}
	}
	if r.MaxRadius != nil {
		req.MaxRadiusKm = *r.MaxRadius
	}
	if r.MaxStops != nil {
		req.MaxStops = *r.MaxStops
	}
	return req
}

// StoreInfo describes a supermarket.
type StoreInfo struct {
	ID      string   `json:"id" jsonschema:"required"`
	Name    string   `json:"name" jsonschema:"required"`
	Slug    string   `json:"slug" jsonschema:"required"`
	Address *string  `json:"address,omitempty"`
	Lat     *float64 `json:"lat,omitempty"`
	Lng     *float64 `json:"lng,omitempty"`
}

func toStoreInfo(s catalog.Store) StoreInfo {
	return StoreInfo{ID: s.ID, Name: s.Name, Slug: s.Slug, Address: s.Address, Lat: s.Lat, Lng: s.Lng}
}

// BasketLine is one priced line of a stop. Prices are euros.
type BasketLine struct {
	ProductID    *string  `json:"productId,omitempty"`
	Name         string   `json:"name" jsonschema:"required"`
	Price        float64  `json:"price" jsonschema:"required"`
	Quantity     int      `json:"quantity" jsonschema:"required"`
	Found        bool     `json:"found" jsonschema:"required"`
	Brand        *string  `json:"brand,omitempty"`
	ImageURL     *string  `json:"imageUrl,omitempty"`
	PricePerUnit *float64 `json:"pricePerUnit,omitempty"`
	Unit         *string  `json:"unit,omitempty"`
	Size         *float64 `json:"size,omitempty"`
}

// RouteStop is one store visit of a route.
type RouteStop struct {
	Store    StoreInfo    `json:"store" jsonschema:"required"`
	Items    []BasketLine `json:"items" jsonschema:"required"`
	Subtotal float64      `json:"subtotal" jsonschema:"required"`
}

// Route is one ranked shopping route.
type Route struct {
	TotalCost        float64     `json:"totalCost" jsonschema:"required"`
	EstimatedSavings float64     `json:"estimatedSavings" jsonschema:"required"`
	Stops            []RouteStop `json:"stops" jsonschema:"required"`
}

// RequestEcho repeats the effective request parameters.
type RequestEcho struct {
	ItemCount  int     `json:"itemCount" jsonschema:"required"`
	MaxRadius  float64 `json:"maxRadius" jsonschema:"required"`
	MaxStops   int     `json:"maxStops" jsonschema:"required"`
	Prioritize string  `json:"prioritize" jsonschema:"required"`
}

// OptimizeResponse is the body of /api/optimize.
type OptimizeResponse struct {
	Request     RequestEcho `json:"request" jsonschema:"required"`
	Routes      []Route     `json:"routes" jsonschema:"required"`
	GeneratedAt time.Time   `json:"generatedAt" jsonschema:"required"`
}

// PreviewResponse is the body of /api/optimize/preview. Costs are euros.
type PreviewResponse struct {
	ItemCount         int     `json:"itemCount" jsonschema:"required"`
	EstimatedMinCost  float64 `json:"estimatedMinCost" jsonschema:"required"`
	EstimatedMaxCost  float64 `json:"estimatedMaxCost" jsonschema:"required"`
	PotentialSavings  float64 `json:"potentialSavings" jsonschema:"required"`
	NearbyStoresCount int     `json:"nearbyStoresCount" jsonschema:"required"`
}

func toLine(l optimizer.BasketLine) BasketLine {
	line := BasketLine{
		Name:     l.Name,
		Price:    catalog.ToEuros(l.Price),
		Quantity: l.Quantity,
		Found:    l.Found,
		Brand:    l.Brand,
		ImageURL: l.ImageURL,
		Unit:     l.Unit,
		Size:     l.Size,
	}
	if l.ProductID != "" {
		id := l.ProductID
		line.ProductID = &id
	}
	if l.PricePerUnit != nil {
		ppu := catalog.ToEuros(*l.PricePerUnit)
		line.PricePerUnit = &ppu
	}
	return line
}

func toOptimizeResponse(cmp *optimizer.Comparison) OptimizeResponse {
	routes := make([]Route, 0, len(cmp.Routes))
	for _, r := range cmp.Routes {
		stops := make([]RouteStop, 0, len(r.Stops))
		for _, b := range r.Stops {
			lines := make([]BasketLine, 0, len(b.Lines))
			for _, l := range b.Lines {
				lines = append(lines, toLine(l))
			}
			stops = append(stops, RouteStop{
				Store:    toStoreInfo(b.Store),
				Items:    lines,
				Subtotal: catalog.ToEuros(b.Subtotal),
			})
		}
		routes = append(routes, Route{
			TotalCost:        catalog.ToEuros(r.TotalCost),
			EstimatedSavings: catalog.ToEuros(r.EstimatedSavings),
			Stops:            stops,
		})
	}

	return OptimizeResponse{
		Request: RequestEcho{
			ItemCount:  len(cmp.Request.Items),
			MaxRadius:  cmp.Request.MaxRadiusKm,
			MaxStops:   cmp.Request.MaxStops,
			Prioritize: cmp.Request.Prioritize,
		},
		Routes:      routes,
		GeneratedAt: cmp.GeneratedAt,
	}
}

// Optimize compares the basket across every active supermarket
// @Summary Compare a basket across supermarkets
// @Description Resolves every item against the catalog, prices the whole basket at each active supermarket and returns single-store routes, cheapest first. Supermarkets carrying none of the items are listed last.
// @Tags optimize
// @Accept json
// @Produce json
// @Param request body OptimizeRequest true "Shopping list"
// @Success 200 {object} OptimizeResponse
// @Failure 400 {object} ErrorResponse "Invalid request"
// @Failure 503 {object} ErrorResponse "Catalog unavailable"
// @Failure 504 {object} ErrorResponse "Timed out"
// @Failure 500 {object} ErrorResponse "Internal error"
// @Router /api/optimize [post]
func (h *Handler) Optimize(c *gin.Context) {
	var req OptimizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	cmp, err := h.service.Compare(c.Request.Context(), req.toCompareRequest())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toOptimizeResponse(cmp))
}

// Preview summarises the potential savings of a basket
// @Summary Preview basket savings
// @Description Runs the same comparison as /api/optimize and returns only the cost range across supermarkets.
// @Tags optimize
// @Accept json
// @Produce json
// @Param request body OptimizeRequest true "Shopping list"
// @Success 200 {object} PreviewResponse
// @Failure 400 {object} ErrorResponse "Invalid request"
// @Failure 503 {object} ErrorResponse "Catalog unavailable"
// @Failure 504 {object} ErrorResponse "Timed out"
// @Failure 500 {object} ErrorResponse "Internal error"
// @Router /api/optimize/preview [post]
func (h *Handler) Preview(c *gin.Context) {
	var req OptimizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	summary, err := h.service.Preview(c.Request.Context(), req.toCompareRequest())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, PreviewResponse{
		ItemCount:         summary.ItemCount,
		EstimatedMinCost:  catalog.ToEuros(summary.EstimatedMinCost),
		EstimatedMaxCost:  catalog.ToEuros(summary.EstimatedMaxCost),
		PotentialSavings:  catalog.ToEuros(summary.PotentialSavings),
		NearbyStoresCount: summary.StoreCount,
	})
}
