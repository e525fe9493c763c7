package optimizer

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/bossing/basket-service/internal/catalog"
	"github.com/bossing/basket-service/internal/matching"
)

// fakeProvider is a scriptable catalog.Provider for testing.
type fakeProvider struct {
	mu       sync.Mutex
	stores   []catalog.Store
	products []*catalog.CandidateProduct

	storesErr error
	findErr   map[string]error         // catalog id -> error
	searchErr map[string]error         // term -> error
	delay     map[string]time.Duration // term or id -> delay before answering
	searches  []string
	findCalls []string
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		findErr:   make(map[string]error),
		searchErr: make(map[string]error),
		delay:     make(map[string]time.Duration),
	}
}

func (f *fakeProvider) addStore(id, name string) {
	f.stores = append(f.stores, catalog.Store{ID: id, Name: name, Slug: id, Active: true})
}

// addProduct adds a product with prices in cents keyed by store id.
func (f *fakeProvider) addProduct(id, name string, prices map[string]int64) *catalog.CandidateProduct {
	p := &catalog.CandidateProduct{
		ID:             id,
		Name:           name,
		NormalizedName: matching.Normalize(name),
		SearchText:     matching.Normalize(name),
		Unit:           "ud",
		Prices:         make([]catalog.StorePrice, 0, len(prices)),
	}
	// Keep price order deterministic by store registration order.
	for _, s := range f.stores {
		if price, ok := prices[s.ID]; ok {
			p.Prices = append(p.Prices, catalog.StorePrice{StoreID: s.ID, Price: price, PricePerUnit: price})
		}
	}
	f.products = append(f.products, p)
	return p
}

func (f *fakeProvider) wait(ctx context.Context, key string) error {
	d, ok := f.delay[key]
	if !ok {
		return nil
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeProvider) ListActiveStores(ctx context.Context) ([]catalog.Store, error) {
	if f.storesErr != nil {
		return nil, f.storesErr
	}
	return append([]catalog.Store(nil), f.stores...), nil
}

func (f *fakeProvider) FindProductByID(ctx context.Context, id string) (*catalog.CandidateProduct, bool, error) {
	f.mu.Lock()
	f.findCalls = append(f.findCalls, id)
	f.mu.Unlock()

	if err := f.wait(ctx, id); err != nil {
		return nil, false, err
	}
	if err, ok := f.findErr[id]; ok {
		return nil, false, err
	}
	for _, p := range f.products {
		if p.ID == id {
			return p, true, nil
		}
	}
	return nil, false, nil
}

func (f *fakeProvider) SearchByNormalizedSubstring(ctx context.Context, term string, limit int) ([]*catalog.CandidateProduct, error) {
	f.mu.Lock()
	f.searches = append(f.searches, term)
	f.mu.Unlock()

	if err := f.wait(ctx, term); err != nil {
		return nil, err
	}
	if err, ok := f.searchErr[term]; ok {
		return nil, err
	}
	results := make([]*catalog.CandidateProduct, 0)
	for _, p := range f.products {
		if strings.Contains(p.NormalizedName, term) || strings.Contains(p.SearchText, term) {
			results = append(results, p)
			if limit > 0 && len(results) >= limit {
				break
			}
		}
	}
	return results, nil
}

func (f *fakeProvider) Ping(ctx context.Context) error {
	return nil
}

func (f *fakeProvider) searchTerms() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.searches...)
}
