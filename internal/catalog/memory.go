package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/bossing/basket-service/internal/matching"
)

// Memory is an immutable in-memory catalog snapshot.
// Products returned by it are shared between callers and must not be mutated.
type Memory struct {
	stores   []Store
	products []*CandidateProduct
	byID     map[string]*CandidateProduct
	loadedAt time.Time

	fingerprint string
}

// NewMemory builds a snapshot from stores and products. Prices at stores that are
// not active are dropped, and missing normalized fields are derived from the product.
// The inputs are copied and may be reused by the caller.
func NewMemory(stores []Store, products []*CandidateProduct) *Memory {
	active := make(map[string]bool, len(stores))
	activeStores := make([]Store, 0, len(stores))
	for _, s := range stores {
		if !s.Active {
			continue
		}
		active[s.ID] = true
		activeStores = append(activeStores, s)
	}

	m := &Memory{
		stores:   activeStores,
		products: make([]*CandidateProduct, 0, len(products)),
		byID:     make(map[string]*CandidateProduct, len(products)),
		loadedAt: time.Now(),
	}

	for _, p := range products {
		if p == nil || p.ID == "" {
			continue
		}
		if _, dup := m.byID[p.ID]; dup {
			continue
		}
		cp := *p
		cp.Prices = make([]StorePrice, 0, len(p.Prices))
		seen := make(map[string]bool, len(p.Prices))
		for _, sp := range p.Prices {
			if !active[sp.StoreID] || seen[sp.StoreID] {
				continue
			}
			seen[sp.StoreID] = true
			cp.Prices = append(cp.Prices, sp)
		}
		if cp.NormalizedName == "" {
			cp.NormalizedName = matching.Normalize(cp.Name)
		}
		if cp.SearchText == "" {
			cp.SearchText = matching.SearchText(cp.Name, deref(cp.Brand), deref(cp.Category))
		}
		m.products = append(m.products, &cp)
		m.byID[cp.ID] = &cp
	}
	m.fingerprint = Fingerprint(m.stores, m.products)

	return m
}

// ListActiveStores implements Provider.
func (m *Memory) ListActiveStores(ctx context.Context) ([]Store, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]Store, len(m.stores))
	copy(out, m.stores)
	return out, nil
}

// FindProductByID implements Provider.
func (m *Memory) FindProductByID(ctx context.Context, id string) (*CandidateProduct, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	p, ok := m.byID[id]
	return p, ok, nil
}

// SearchByNormalizedSubstring implements Provider. Results keep catalog order.
func (m *Memory) SearchByNormalizedSubstring(ctx context.Context, term string, limit int) ([]*CandidateProduct, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	results := make([]*CandidateProduct, 0)
	if term == "" {
		return results, nil
	}
	for _, p := range m.products {
		if !strings.Contains(p.NormalizedName, term) && !strings.Contains(p.SearchText, term) {
			continue
		}
		results = append(results, p)
		if limit > 0 && len(results) >= limit {
			break
		}
	}
	return results, nil
}

// Ping implements Provider. A snapshot is always available.
func (m *Memory) Ping(ctx context.Context) error {
	return ctx.Err()
}

// ProductCount returns the number of products in the snapshot.
func (m *Memory) ProductCount() int {
	return len(m.products)
}

// StoreCount returns the number of active stores in the snapshot.
func (m *Memory) StoreCount() int {
	return len(m.stores)
}

// Fingerprint returns the content hash of the snapshot.
func (m *Memory) Fingerprint() string {
	return m.fingerprint
}

// LoadedAt returns when the snapshot was built.
func (m *Memory) LoadedAt() time.Time {
	return m.loadedAt
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
