package ingestion

import (
	"context"
	"time"

	"github.com/bossing/basket-service/internal/catalog"
)

// Record is one product price as published by an upstream store.
// Money values are cents.
type Record struct {
	CatalogID    string    `json:"catalogId"`
	Name         string    `json:"name"`
	StoreID      string    `json:"storeId"`
	Price        int64     `json:"price"`
	Unit         string    `json:"unit"`
	PricePerUnit int64     `json:"pricePerUnit"`
	Category     *string   `json:"category,omitempty"`
	Brand        *string   `json:"brand,omitempty"`
	Size         *float64  `json:"size,omitempty"`
	ImageURL     *string   `json:"imageUrl,omitempty"`
	Available    bool      `json:"available"`
	FetchedAt    time.Time `json:"fetchedAt"`
}

// Adapter reads one upstream store's catalog.
type Adapter interface {
	// Slug identifies the adapter in the registry.
	Slug() string

	// Store describes the store the records belong to.
	Store() catalog.Store

	// ListCategories returns the upstream category identifiers.
	ListCategories(ctx context.Context) ([]string, error)

	// SearchByText returns records matching a free-text query.
	SearchByText(ctx context.Context, query string) ([]Record, error)

	// Fetch returns every record of one category.
	Fetch(ctx context.Context, category string) ([]Record, error)
}

// Result is the outcome of running one adapter. A failed adapter produces a
// Result with no records and its errors listed.
type Result struct {
	Source    string        `json:"source"`
	Store     catalog.Store `json:"store"`
	Records   []Record      `json:"records"`
	Errors    []string      `json:"errors"`
	FetchedAt time.Time     `json:"fetchedAt"`
	Duration  time.Duration `json:"duration"`
}

// Failed reports whether the adapter produced errors.
func (r *Result) Failed() bool {
	return len(r.Errors) > 0
}
