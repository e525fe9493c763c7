package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/bossing/basket-service/config"
	"github.com/bossing/basket-service/internal/catalog"
	"github.com/bossing/basket-service/internal/database"
	"github.com/bossing/basket-service/internal/optimizer"
)

const (
	warmupInitialBackoff = time.Second
	warmupMaxBackoff     = 30 * time.Second
)

// catalogBackend is the provider selected by catalog.source, plus the
// snapshot cache when the source is served from memory.
type catalogBackend struct {
	provider catalog.Provider
	cache    *catalog.SnapshotCache
	pool     *pgxpool.Pool
}

func openCatalog(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*catalogBackend, error) {
	switch cfg.Catalog.Source {
	case config.SourceFile:
		path := cfg.Catalog.SeedFile
		cache := catalog.NewSnapshotCache(catalog.LoaderFunc(func(ctx context.Context) (*catalog.Memory, error) {
			return catalog.LoadSeedFile(path)
		}), 0, cfg.Catalog.LoadTimeout)
		logger.Info().Str("seed_file", path).Msg("Serving catalog from seed file")
		return &catalogBackend{provider: cache, cache: cache}, nil

	case config.SourcePostgres, config.SourceSnapshot:
		if err := database.Connect(ctx, cfg.Database.Pool()); err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		pool := database.Pool()
		if err := database.EnsureSchema(ctx, pool); err != nil {
			database.Close()
			return nil, err
		}
		logger.Info().Msg("Database connected")

		pg := catalog.NewPostgres(pool)
		if cfg.Catalog.Source == config.SourcePostgres {
			return &catalogBackend{provider: pg, pool: pool}, nil
		}
		cache := catalog.NewSnapshotCache(pg, cfg.Catalog.TTL, cfg.Catalog.LoadTimeout)
		return &catalogBackend{provider: cache, cache: cache, pool: pool}, nil

	default:
		return nil, fmt.Errorf("unknown catalog source %q", cfg.Catalog.Source)
	}
}

// warmup loads the first snapshot (or waits for the database) and opens the
// gate. It retries with backoff until it succeeds or ctx ends.
func (b *catalogBackend) warmup(ctx context.Context, gate *optimizer.WarmupGate, logger *zerolog.Logger) {
	backoff := warmupInitialBackoff
	for {
		var err error
		if b.cache != nil {
			err = b.cache.Warmup(ctx)
		} else {
			err = b.provider.Ping(ctx)
		}
		if err == nil {
			gate.Ready()
			return
		}

		logger.Warn().Err(err).Dur("retry_in", backoff).Msg("Catalog warmup failed")
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, warmupMaxBackoff)
	}
}

func (b *catalogBackend) Close() {
	if b.pool != nil {
		database.Close()
	}
}
