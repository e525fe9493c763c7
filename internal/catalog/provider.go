package catalog

import (
	"context"
	"errors"
)

// ErrCatalogUnavailable is returned (wrapped) when the catalog backend cannot be reached.
var ErrCatalogUnavailable = errors.New("catalog unavailable")

// Provider is read-only access to products and per-store prices.
// Implementations must be safe for concurrent use.
type Provider interface {
	// ListActiveStores returns every store currently marked active.
	ListActiveStores(ctx context.Context) ([]Store, error)

	// FindProductByID looks a product up by catalog id.
	// The boolean is false when no product has that id.
	FindProductByID(ctx context.Context, id string) (*CandidateProduct, bool, error)

	// SearchByNormalizedSubstring returns products whose normalized name or
	// search text contains term. A limit <= 0 means no limit.
	SearchByNormalizedSubstring(ctx context.Context, term string, limit int) ([]*CandidateProduct, error)

	// Ping reports whether the provider can serve requests.
	Ping(ctx context.Context) error
}

// Snapshotter is implemented by providers whose data can change between calls.
// Snapshot returns a provider over one fixed view of the catalog, so that every
// lookup of a request sees the same stores and prices.
type Snapshotter interface {
	Snapshot(ctx context.Context) (Provider, error)
}

// IsUnavailable reports whether err signals a catalog outage.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrCatalogUnavailable)
}
