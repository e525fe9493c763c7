package optimizer

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/bossing/basket-service/internal/catalog"
)

const tracerName = "github.com/bossing/basket-service/internal/optimizer"

// Service runs the comparison pipeline: validate, list stores, resolve items,
// price every store, rank the baskets.
type Service struct {
	provider catalog.Provider
	resolver *Resolver
	config   *Config
	metrics  *MetricsRecorder
	tracer   trace.Tracer
	gate     *WarmupGate
	logger   zerolog.Logger
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithTracer sets the tracer used for pipeline spans.
func WithTracer(t trace.Tracer) Option {
	return func(s *Service) { s.tracer = t }
}

// WithWarmupGate makes comparisons wait until the gate is ready.
func WithWarmupGate(g *WarmupGate) Option {
	return func(s *Service) { s.gate = g }
}

// WithClock overrides the clock used for GeneratedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a comparison service over provider.
func NewService(provider catalog.Provider, config *Config, opts ...Option) *Service {
	if config == nil {
		config = Defaults()
	}
	s := &Service{
		provider: provider,
		resolver: NewResolver(provider, config),
		config:   config,
		metrics:  NewMetricsRecorder(),
		tracer:   otel.Tracer(tracerName),
		logger:   log.With().Str("component", "basket_service").Logger(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Config returns the service configuration.
func (s *Service) Config() *Config {
	return s.config
}

// Compare prices the requested basket at every active store and ranks the results.
// The request is copied before defaults are applied.
func (s *Service) Compare(ctx context.Context, req CompareRequest) (*Comparison, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "compare")
	defer span.End()

	req.Items = append([]RequestItem(nil), req.Items...)
	req.ApplyDefaults(s.config)
	if err := req.Validate(s.config); err != nil {
		return nil, s.fail(ctx, span, err)
	}

	span.SetAttributes(
		attribute.Int("basket.items", len(req.Items)),
		attribute.String("basket.prioritize", req.Prioritize),
	)
	s.metrics.RecordBasketSize(len(req.Items))

	if s.gate != nil && !s.gate.Wait(ctx) {
		return nil, s.fail(ctx, span, fmt.Errorf("waiting for catalog warmup: %w", ctx.Err()))
	}

	provider, err := s.pin(ctx)
	if err != nil {
		if ctx.Err() == nil && !catalog.IsUnavailable(err) {
			err = fmt.Errorf("%w: snapshot: %w", catalog.ErrCatalogUnavailable, err)
		}
		return nil, s.fail(ctx, span, err)
	}

	stores, err := provider.ListActiveStores(ctx)
	if err != nil {
		if ctx.Err() == nil && !catalog.IsUnavailable(err) {
			err = fmt.Errorf("%w: list stores: %w", catalog.ErrCatalogUnavailable, err)
		}
		return nil, s.fail(ctx, span, err)
	}
	span.SetAttributes(attribute.Int("basket.stores", len(stores)))
	s.metrics.RecordStoreCount(len(stores))

	resolved, err := s.resolve(ctx, s.resolver.withProvider(provider), req.Items)
	if err != nil {
		return nil, s.fail(ctx, span, err)
	}

	baskets, err := s.price(ctx, stores, resolved)
	if err != nil {
		return nil, s.fail(ctx, span, err)
	}

	compareStart := time.Now()
	routes := CompareRoutes(baskets)
	s.metrics.RecordStageDuration("compare", time.Since(compareStart))

	softFailures := 0
	for _, ri := range resolved {
		if ri.SoftFailure != nil {
			softFailures++
		}
	}

	s.metrics.RecordStageDuration("total", time.Since(start))
	loggerFrom(ctx, &s.logger).Debug().
		Int("items", len(req.Items)).
		Int("stores", len(stores)).
		Int("soft_failures", softFailures).
		Dur("duration", time.Since(start)).
		Msg("Basket comparison completed")

	return &Comparison{
		Request:      req,
		Routes:       routes,
		StoreCount:   len(stores),
		SoftFailures: softFailures,
		GeneratedAt:  s.now().UTC(),
	}, nil
}

// Preview runs a comparison and summarises it.
func (s *Service) Preview(ctx context.Context, req CompareRequest) (*PreviewSummary, error) {
	cmp, err := s.Compare(ctx, req)
	if err != nil {
		return nil, err
	}
	return Preview(cmp.Routes, len(cmp.Request.Items), cmp.StoreCount), nil
}

// Search looks up products for a free-text query using the text tiers.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]*catalog.CandidateProduct, MatchTier, error) {
	ctx, span := s.tracer.Start(ctx, "search")
	defer span.End()

	results, tier, err := s.resolver.Search(ctx, query, limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, tier, err
	}
	span.SetAttributes(attribute.String("search.tier", string(tier)), attribute.Int("search.results", len(results)))
	return results, tier, nil
}

// Stores returns the active stores.
func (s *Service) Stores(ctx context.Context) ([]catalog.Store, error) {
	return s.provider.ListActiveStores(ctx)
}

// pin returns the provider one comparison runs against. Providers that can
// change underneath a request hand out a fixed snapshot.
func (s *Service) pin(ctx context.Context) (catalog.Provider, error) {
	sn, ok := s.provider.(catalog.Snapshotter)
	if !ok {
		return s.provider, nil
	}
	return sn.Snapshot(ctx)
}

func (s *Service) resolve(ctx context.Context, resolver *Resolver, items []RequestItem) ([]*ResolvedItem, error) {
	ctx, span := s.tracer.Start(ctx, "resolve")
	defer span.End()

	start := time.Now()
	defer func() {
		s.metrics.RecordStageDuration("resolve", time.Since(start))
	}()

	resolved, err := resolver.Resolve(ctx, items)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return resolved, nil
}

func (s *Service) price(ctx context.Context, stores []catalog.Store, resolved []*ResolvedItem) ([]*StoreBasket, error) {
	ctx, span := s.tracer.Start(ctx, "price")
	defer span.End()

	start := time.Now()
	defer func() {
		s.metrics.RecordStageDuration("price", time.Since(start))
	}()

	baskets := make([]*StoreBasket, len(stores))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, store := range stores {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			baskets[i] = PriceBasket(store, resolved)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return baskets, nil
}

// fail records a failed comparison and returns err.
func (s *Service) fail(ctx context.Context, span trace.Span, err error) error {
	reason := ErrorReason(err)
	s.metrics.RecordError(reason)
	span.RecordError(err)
	span.SetStatus(codes.Error, reason)

	l := loggerFrom(ctx, &s.logger)
	if reason == "validation" {
		l.Debug().Err(err).Msg("Rejected invalid comparison request")
	} else {
		l.Error().Err(err).Str("reason", reason).Msg("Basket comparison failed")
	}
	return err
}

// ErrorReason classifies a comparison error for metrics and HTTP mapping.
func ErrorReason(err error) string {
	var vErr ValidationError
	switch {
	case errors.As(err, &vErr):
		return "validation"
	case catalog.IsUnavailable(err):
		return "catalog_unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "cancelled"
	default:
		return "internal"
	}
}
