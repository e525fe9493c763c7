package optimizer

import (
	"fmt"
	"strings"
	"time"

	"github.com/bossing/basket-service/internal/catalog"
)

// Prioritize values accepted in a comparison request.
const (
	PrioritizePrice    = "price"
	PrioritizeDistance = "distance"
	PrioritizeBalanced = "balanced"
)

// IsValidPrioritize reports whether p is an accepted prioritize value.
func IsValidPrioritize(p string) bool {
	switch p {
	case PrioritizePrice, PrioritizeDistance, PrioritizeBalanced:
		return true
	}
	return false
}

// Location is the shopper's position.
type Location struct {
	Lat float64
	Lng float64
}

// RequestItem is one requested line of the shopping list.
type RequestItem struct {
	CatalogID string // Optional catalog id; an id match always wins over text search
	Name      string // Free-text name as typed by the shopper
	Quantity  int    // Whole units, >= 1 after defaulting
}

// CompareRequest is a basket comparison request.
// MaxRadiusKm, MaxStops and Prioritize are validated and echoed back but
// do not influence ranking: only single-store baskets are compared.
type CompareRequest struct {
	Items       []RequestItem
	Location    Location
	MaxRadiusKm float64
	MaxStops    int
	Prioritize  string
}

// MatchTier identifies which resolution tier produced an item's candidates.
type MatchTier string

const (
	TierCatalogID MatchTier = "catalog_id"
	TierPhrase    MatchTier = "phrase"
	TierKeyword   MatchTier = "keyword"
	TierNone      MatchTier = "none"
)

// ResolvedItem pairs a requested item with its candidate products, best first.
type ResolvedItem struct {
	Item        RequestItem
	Candidates  []*catalog.CandidateProduct // Never nil
	Tier        MatchTier
	SoftFailure error // Set when a lookup failed and the item was degraded
}

// BasketLine is one priced (or unavailable) entry of a store basket.
// Optional display fields are nil on not-found lines.
type BasketLine struct {
	ProductID    string
	Name         string
	Price        int64 // Unit price in cents, 0 when not found
	Quantity     int
	Found        bool
	Brand        *string
	ImageURL     *string
	PricePerUnit *int64
	Unit         *string
	Size         *float64
}

// LineTotal returns price*quantity for found lines and 0 otherwise.
func (l BasketLine) LineTotal() int64 {
	if !l.Found {
		return 0
	}
	return l.Price * int64(l.Quantity)
}

// StoreBasket is the outcome of pricing the whole list at one store.
type StoreBasket struct {
	Store    catalog.Store
	Lines    []BasketLine
	Subtotal int64 // Sum of LineTotal over found lines, in cents
}

// FoundCount returns the number of lines that matched at this store.
func (b *StoreBasket) FoundCount() int {
	n := 0
	for _, l := range b.Lines {
		if l.Found {
			n++
		}
	}
	return n
}

// OptimizedRoute is one ranked shopping route. With single-store semantics
// every route has exactly one stop.
type OptimizedRoute struct {
	TotalCost        int64
	EstimatedSavings int64
	Stops            []*StoreBasket
}

// Comparison is the result of a basket comparison.
type Comparison struct {
	Request      CompareRequest
	Routes       []*OptimizedRoute
	StoreCount   int
	SoftFailures int
	GeneratedAt  time.Time
}

// PreviewSummary is a cheap overview of a comparison.
type PreviewSummary struct {
	ItemCount        int
	EstimatedMinCost int64
	EstimatedMaxCost int64
	PotentialSavings int64
	StoreCount       int
}

// unavailableName is the label of a not-found basket line.
func unavailableName(name string) string {
	return strings.TrimSpace(name) + " (unavailable)"
}

// ValidationError is returned when a comparison request is malformed.
type ValidationError struct {
	Field  string
	Reason string
	Index  int // Item index, -1 when the field is not an item field
}

func (e ValidationError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("%s[%d]: %s", e.Field, e.Index, e.Reason)
	}
	return e.Field + ": " + e.Reason
}

// ApplyDefaults fills in optional request fields.
func (r *CompareRequest) ApplyDefaults(cfg *Config) {
	for i := range r.Items {
		if r.Items[i].Quantity == 0 {
			r.Items[i].Quantity = 1
		}
	}
	if r.MaxRadiusKm == 0 {
		r.MaxRadiusKm = cfg.DefaultMaxRadiusKm
	}
	if r.MaxStops == 0 {
		r.MaxStops = cfg.DefaultMaxStops
	}
	if r.Prioritize == "" {
		r.Prioritize = cfg.DefaultPrioritize
	}
}

// Validate checks the request after defaults have been applied.
func (r *CompareRequest) Validate(cfg *Config) error {
	if len(r.Items) < 1 {
		return ValidationError{Field: "items", Reason: "must have at least one item", Index: -1}
	}
	if len(r.Items) > cfg.MaxBasketItems {
		return ValidationError{Field: "items", Reason: "exceeds maximum allowed", Index: -1}
	}
	for i, item := range r.Items {
		if strings.TrimSpace(item.Name) == "" {
			return ValidationError{Field: "items.name", Reason: "cannot be empty", Index: i}
		}
		if item.Quantity < 1 {
			return ValidationError{Field: "items.quantity", Reason: "must be at least 1", Index: i}
		}
	}
	if r.Location.Lat < -90 || r.Location.Lat > 90 {
		return ValidationError{Field: "location.lat", Reason: "must be between -90 and 90", Index: -1}
	}
	if r.Location.Lng < -180 || r.Location.Lng > 180 {
		return ValidationError{Field: "location.lng", Reason: "must be between -180 and 180", Index: -1}
	}
	if r.MaxRadiusKm <= 0 {
		return ValidationError{Field: "maxRadius", Reason: "must be positive", Index: -1}
	}
	if r.MaxStops < 1 || r.MaxStops > cfg.MaxStops {
		return ValidationError{Field: "maxStops", Reason: fmt.Sprintf("must be between 1 and %d", cfg.MaxStops), Index: -1}
	}
	if !IsValidPrioritize(r.Prioritize) {
		return ValidationError{Field: "prioritize", Reason: "must be one of price, distance, balanced", Index: -1}
	}
	return nil
}
