package ingestion

import (
	"context"
	"fmt"
	"runtime/debug"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/bossing/basket-service/internal/matching"
)

// DefaultConcurrency is the number of adapters run at once by RunAll.
const DefaultConcurrency = 4

// Registry holds the adapters of one ingestion run. Adapters run in
// registration order and can be disabled without being removed.
type Registry struct {
	mu          sync.RWMutex
	adapters    []Adapter
	index       map[string]int
	disabled    map[string]bool
	concurrency int
	logger      zerolog.Logger
	now         func() time.Time
}

// NewRegistry creates a registry with the given adapters.
func NewRegistry(adapters ...Adapter) (*Registry, error) {
	r := &Registry{
		index:       make(map[string]int),
		disabled:    make(map[string]bool),
		concurrency: DefaultConcurrency,
		logger:      log.With().Str("component", "ingestion").Logger(),
		now:         time.Now,
	}
	for _, a := range adapters {
		if err := r.Register(a); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// SetConcurrency limits how many adapters run at once.
func (r *Registry) SetConcurrency(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n < 1 {
		n = 1
	}
	r.concurrency = n
}

// Register adds an adapter. Slugs must be unique.
func (r *Registry) Register(a Adapter) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	slug := a.Slug()
	if slug == "" {
		return fmt.Errorf("adapter has no slug")
	}
	if _, exists := r.index[slug]; exists {
		return fmt.Errorf("adapter %q already registered", slug)
	}
	r.index[slug] = len(r.adapters)
	r.adapters = append(r.adapters, a)
	return nil
}

// Get retrieves an adapter by slug.
func (r *Registry) Get(slug string) (Adapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.index[slug]
	if !ok {
		return nil, false
	}
	return r.adapters[i], true
}

// SetEnabled enables or disables an adapter.
func (r *Registry) SetEnabled(slug string, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.index[slug]; !ok {
		return fmt.Errorf("unknown adapter %q", slug)
	}
	r.disabled[slug] = !enabled
	return nil
}

// Slugs returns the registered adapter slugs, sorted.
func (r *Registry) Slugs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	slugs := make([]string, 0, len(r.adapters))
	for _, a := range r.adapters {
		slugs = append(slugs, a.Slug())
	}
	sort.Strings(slugs)
	return slugs
}

func (r *Registry) enabled() ([]Adapter, int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Adapter, 0, len(r.adapters))
	for _, a := range r.adapters {
		if !r.disabled[a.Slug()] {
			out = append(out, a)
		}
	}
	return out, r.concurrency
}

// RunAll fetches every category of every enabled adapter concurrently.
// It never fails because of an adapter: failures are recorded in the
// adapter's Result. Results keep registration order.
func (r *Registry) RunAll(ctx context.Context) []Result {
	adapters, limit := r.enabled()
	results := make([]Result, len(adapters))

	g := new(errgroup.Group)
	g.SetLimit(limit)
	for i, a := range adapters {
		g.Go(func() error {
			results[i] = r.run(ctx, a, func(ctx context.Context) ([]Record, []string) {
				return fetchAll(ctx, a)
			})
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// SearchAll runs a text search across every enabled adapter. Adapters that
// fail contribute no records.
func (r *Registry) SearchAll(ctx context.Context, query string) []Result {
	adapters, limit := r.enabled()
	results := make([]Result, len(adapters))

	g := new(errgroup.Group)
	g.SetLimit(limit)
	for i, a := range adapters {
		g.Go(func() error {
			results[i] = r.run(ctx, a, func(ctx context.Context) ([]Record, []string) {
				records, err := a.SearchByText(ctx, query)
				if err != nil {
					return nil, []string{fmt.Sprintf("search %q: %v", query, err)}
				}
				return records, nil
			})
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// run executes fn for one adapter, converting panics into recorded errors.
func (r *Registry) run(ctx context.Context, a Adapter, fn func(ctx context.Context) ([]Record, []string)) (res Result) {
	start := r.now()
	res = Result{
		Source:    a.Slug(),
		Store:     a.Store(),
		Records:   []Record{},
		Errors:    []string{},
		FetchedAt: start,
	}

	defer func() {
		if p := recover(); p != nil {
			res.Records = []Record{}
			res.Errors = append(res.Errors, fmt.Sprintf("adapter panic: %v", p))
			r.logger.Error().
				Str("adapter", a.Slug()).
				Interface("panic", p).
				Str("stack", string(debug.Stack())).
				Msg("Adapter panicked")
		}
		res.Duration = r.now().Sub(start)
		if !res.Failed() {
			r.logger.Info().
				Str("adapter", a.Slug()).
				Int("records", len(res.Records)).
				Dur("duration", res.Duration).
				Msg("Adapter completed")
		}
	}()

	records, errs := fn(ctx)
	if records != nil {
		res.Records = records
	}
	res.Errors = append(res.Errors, errs...)
	for _, e := range errs {
		r.logger.Warn().Str("adapter", a.Slug()).Str("error", e).Msg("Adapter reported an error")
	}
	return res
}

// fetchAll reads every category of a. A failing category is skipped; failing
// to list categories yields no records.
func fetchAll(ctx context.Context, a Adapter) ([]Record, []string) {
	categories, err := a.ListCategories(ctx)
	if err != nil {
		return nil, []string{fmt.Sprintf("list categories: %v", err)}
	}

	var errs []string
	seen := make(map[string]bool)
	records := make([]Record, 0)
	for _, category := range categories {
		if ctx.Err() != nil {
			errs = append(errs, fmt.Sprintf("cancelled: %v", ctx.Err()))
			break
		}
		batch, err := a.Fetch(ctx, category)
		if err != nil {
			errs = append(errs, fmt.Sprintf("fetch %q: %v", category, err))
			continue
		}
		for _, rec := range batch {
			if !validRecord(rec) {
				continue
			}
			key := rec.StoreID + "\x00" + rec.CatalogID
			if seen[key] {
				continue
			}
			seen[key] = true
			records = append(records, rec)
		}
	}
	return records, errs
}

func validRecord(rec Record) bool {
	return rec.CatalogID != "" && rec.StoreID != "" && matching.Normalize(rec.Name) != "" && rec.Price >= 0
}
