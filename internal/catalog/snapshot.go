package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// Loader produces a complete catalog snapshot.
type Loader interface {
	LoadSnapshot(ctx context.Context) (*Memory, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context) (*Memory, error)

// LoadSnapshot implements Loader.
func (f LoaderFunc) LoadSnapshot(ctx context.Context) (*Memory, error) {
	return f(ctx)
}

// SnapshotCache serves the catalog from an in-memory snapshot that is reloaded
// from a Loader once it is older than the TTL. Snapshots are swapped atomically,
// so a request always sees one consistent catalog. Concurrent reloads are
// collapsed into one. When a reload fails the previous snapshot keeps serving.
type SnapshotCache struct {
	loader      Loader
	ttl         time.Duration
	loadTimeout time.Duration

	current atomic.Pointer[cacheEntry]
	sf      singleflight.Group
	logger  zerolog.Logger
	now     func() time.Time
}

type cacheEntry struct {
	snapshot *Memory
	loadedAt time.Time
}

// NewSnapshotCache creates a cache. Nothing is loaded until Warmup or the first request.
func NewSnapshotCache(loader Loader, ttl, loadTimeout time.Duration) *SnapshotCache {
	if loadTimeout <= 0 {
		loadTimeout = 30 * time.Second
	}
	return &SnapshotCache{
		loader:      loader,
		ttl:         ttl,
		loadTimeout: loadTimeout,
		logger:      log.With().Str("component", "catalog_cache").Logger(),
		now:         time.Now,
	}
}

// Warmup loads the first snapshot.
func (c *SnapshotCache) Warmup(ctx context.Context) error {
	_, err := c.reload(ctx)
	return err
}

// Refresh forces a reload regardless of the TTL.
func (c *SnapshotCache) Refresh(ctx context.Context) error {
	_, err := c.reload(ctx)
	return err
}

// LoadedAt returns when the current snapshot was loaded, zero if none.
func (c *SnapshotCache) LoadedAt() time.Time {
	if e := c.current.Load(); e != nil {
		return e.loadedAt
	}
	return time.Time{}
}

// Version returns the fingerprint of the current snapshot, empty if none.
func (c *SnapshotCache) Version() string {
	if e := c.current.Load(); e != nil {
		return e.snapshot.Fingerprint()
	}
	return ""
}

func (c *SnapshotCache) snapshot(ctx context.Context) (*Memory, error) {
	e := c.current.Load()
	if e != nil && (c.ttl <= 0 || c.now().Sub(e.loadedAt) < c.ttl) {
		return e.snapshot, nil
	}

	m, err := c.reload(ctx)
	if err == nil {
		return m, nil
	}
	if e != nil && !errors.Is(err, context.Canceled) {
		snapshotStaleServes.Inc()
		c.logger.Warn().
			Err(err).
			Time("loaded_at", e.loadedAt).
			Msg("Catalog reload failed, serving stale snapshot")
		return e.snapshot, nil
	}
	return nil, err
}

// reload runs the loader under singleflight with a dedicated context, so one
// cancelled request does not fail the others waiting on the same load.
func (c *SnapshotCache) reload(ctx context.Context) (*Memory, error) {
	ch := c.sf.DoChan("catalog", func() (interface{}, error) {
		loadCtx, cancel := context.WithTimeout(context.Background(), c.loadTimeout)
		defer cancel()

		start := c.now()
		m, err := c.loader.LoadSnapshot(loadCtx)
		snapshotLoadDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			snapshotLoads.WithLabelValues("error").Inc()
			c.logger.Error().Err(err).Msg("Failed to load catalog snapshot")
			if errors.Is(err, ErrCatalogUnavailable) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
		}

		snapshotLoads.WithLabelValues("success").Inc()
		snapshotProducts.Set(float64(m.ProductCount()))
		prev := c.current.Swap(&cacheEntry{snapshot: m, loadedAt: c.now()})
		changed := prev == nil || prev.snapshot.Fingerprint() != m.Fingerprint()
		c.logger.Info().
			Str("version", m.Fingerprint()).
			Bool("changed", changed).
			Int("products", m.ProductCount()).
			Int("stores", m.StoreCount()).
			Dur("duration", time.Since(start)).
			Msg("Catalog snapshot loaded")
		return m, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Memory), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Snapshot implements Snapshotter. The returned snapshot is never swapped,
// even when the cache reloads.
func (c *SnapshotCache) Snapshot(ctx context.Context) (Provider, error) {
	m, err := c.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// ListActiveStores implements Provider.
func (c *SnapshotCache) ListActiveStores(ctx context.Context) ([]Store, error) {
	m, err := c.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return m.ListActiveStores(ctx)
}

// FindProductByID implements Provider.
func (c *SnapshotCache) FindProductByID(ctx context.Context, id string) (*CandidateProduct, bool, error) {
	m, err := c.snapshot(ctx)
	if err != nil {
		return nil, false, err
	}
	return m.FindProductByID(ctx, id)
}

// SearchByNormalizedSubstring implements Provider.
func (c *SnapshotCache) SearchByNormalizedSubstring(ctx context.Context, term string, limit int) ([]*CandidateProduct, error) {
	m, err := c.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return m.SearchByNormalizedSubstring(ctx, term, limit)
}

// Ping implements Provider. It fails only when no snapshot has ever loaded.
func (c *SnapshotCache) Ping(ctx context.Context) error {
	if c.current.Load() != nil {
		return nil
	}
	_, err := c.snapshot(ctx)
	return err
}
