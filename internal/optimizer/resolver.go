package optimizer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/bossing/basket-service/internal/catalog"
	"github.com/bossing/basket-service/internal/matching"
)

// ItemLookupError records a catalog lookup that failed for one item.
// It degrades that item only and is never returned from Resolve.
type ItemLookupError struct {
	Index int
	Name  string
	Tier  MatchTier
	Err   error
}

func (e *ItemLookupError) Error() string {
	return fmt.Sprintf("lookup of item %d (%q) failed at tier %s: %v", e.Index, e.Name, e.Tier, e.Err)
}

func (e *ItemLookupError) Unwrap() error {
	return e.Err
}

// Resolver turns requested items into candidate catalog products.
//
// Tiers are tried in order, each only when the previous one found nothing:
// exact catalog id, the whole normalized phrase, then the first significant
// keyword of the phrase.
type Resolver struct {
	provider catalog.Provider
	config   *Config
	metrics  *MetricsRecorder
	logger   zerolog.Logger
}

// NewResolver creates a resolver over provider.
func NewResolver(provider catalog.Provider, config *Config) *Resolver {
	if config == nil {
		config = Defaults()
	}
	return &Resolver{
		provider: provider,
		config:   config,
		metrics:  NewMetricsRecorder(),
		logger:   log.With().Str("component", "item_resolver").Logger(),
	}
}

// withProvider returns a resolver sharing r's config and metrics over p.
func (r *Resolver) withProvider(p catalog.Provider) *Resolver {
	if p == r.provider {
		return r
	}
	cp := *r
	cp.provider = p
	return &cp
}

// Resolve resolves every item concurrently and returns results in input order.
// Per-item lookup errors and timeouts degrade the item to zero candidates.
// Only a catalog outage or the end of ctx fails the batch.
func (r *Resolver) Resolve(ctx context.Context, items []RequestItem) ([]*ResolvedItem, error) {
	results := make([]*ResolvedItem, len(items))

	g, gctx := errgroup.WithContext(ctx)
	for i, item := range items {
		g.Go(func() error {
			res, err := r.resolveOne(gctx, i, item)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *Resolver) resolveOne(ctx context.Context, index int, item RequestItem) (*ResolvedItem, error) {
	lookupCtx, cancel := context.WithTimeout(ctx, r.config.ItemLookupTimeout)
	defer cancel()

	start := time.Now()
	candidates, tier, err := r.lookup(lookupCtx, item)
	if err == nil {
		r.metrics.RecordResolveTier(tier)
		return &ResolvedItem{Item: item, Candidates: candidates, Tier: tier}, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if catalog.IsUnavailable(err) {
		return nil, err
	}

	lookupErr := &ItemLookupError{Index: index, Name: item.Name, Tier: tier, Err: err}
	r.metrics.RecordLookupFailure(tier)
	r.metrics.RecordResolveTier(TierNone)
	loggerFrom(ctx, &r.logger).Warn().
		Err(err).
		Int("index", index).
		Str("item", item.Name).
		Str("tier", string(tier)).
		Dur("elapsed", time.Since(start)).
		Msg("Item lookup failed, degrading to no candidates")

	return &ResolvedItem{
		Item:        item,
		Candidates:  []*catalog.CandidateProduct{},
		Tier:        TierNone,
		SoftFailure: lookupErr,
	}, nil
}

// lookup runs the tiers for one item. The returned tier is the one that
// produced the candidates, or the one that failed.
func (r *Resolver) lookup(ctx context.Context, item RequestItem) ([]*catalog.CandidateProduct, MatchTier, error) {
	if id := strings.TrimSpace(item.CatalogID); id != "" {
		p, ok, err := r.provider.FindProductByID(ctx, id)
		if err != nil {
			return nil, TierCatalogID, err
		}
		if ok && p != nil {
			return []*catalog.CandidateProduct{p}, TierCatalogID, nil
		}
	}
	// Basket resolution is unbounded so every store's matches get priced.
	return r.search(ctx, item.Name, 0)
}

func (r *Resolver) search(ctx context.Context, name string, limit int) ([]*catalog.CandidateProduct, MatchTier, error) {
	phrase := matching.Normalize(name)
	if phrase == "" {
		return []*catalog.CandidateProduct{}, TierNone, nil
	}

	results, err := r.provider.SearchByNormalizedSubstring(ctx, phrase, limit)
	if err != nil {
		return nil, TierPhrase, err
	}
	if len(results) > 0 {
		return results, TierPhrase, nil
	}

	keyword, ok := matching.PrimaryKeyword(phrase)
	if !ok || keyword == phrase {
		return []*catalog.CandidateProduct{}, TierNone, nil
	}

	results, err = r.provider.SearchByNormalizedSubstring(ctx, keyword, limit)
	if err != nil {
		return nil, TierKeyword, err
	}
	if len(results) > 0 {
		return results, TierKeyword, nil
	}
	return []*catalog.CandidateProduct{}, TierNone, nil
}

// Search runs the text tiers for a single free-text query.
// Unlike Resolve, lookup errors are returned to the caller.
func (r *Resolver) Search(ctx context.Context, query string, limit int) ([]*catalog.CandidateProduct, MatchTier, error) {
	if limit <= 0 {
		limit = r.config.SearchLimit
	}
	lookupCtx, cancel := context.WithTimeout(ctx, r.config.ItemLookupTimeout)
	defer cancel()

	results, tier, err := r.search(lookupCtx, query, limit)
	if err != nil {
		return nil, tier, fmt.Errorf("search %q: %w", query, err)
	}
	return results, tier, nil
}

// loggerFrom returns the request logger stored in ctx, or fallback.
func loggerFrom(ctx context.Context, fallback *zerolog.Logger) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return fallback
}
