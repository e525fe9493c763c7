package database

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	pool     *pgxpool.Pool
	poolMu   sync.RWMutex
	poolOnce sync.Once
)

// PoolConfig holds connection pool settings.
type PoolConfig struct {
	URL             string
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Connect creates the shared connection pool (safe for concurrent use).
// Calling it again after a successful connect is a no-op.
func Connect(ctx context.Context, cfg PoolConfig) error {
	var initErr error
	poolOnce.Do(func() {
		newPool, err := Open(ctx, cfg)
		if err != nil {
			initErr = err
			return
		}

		poolMu.Lock()
		pool = newPool
		poolMu.Unlock()
	})

	if initErr != nil {
		poolOnce = sync.Once{} // reset on failure
		return initErr
	}
	return nil
}

// Open creates a standalone pool and verifies it with a ping.
func Open(ctx context.Context, cfg PoolConfig) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("error parsing database config: %w", err)
	}

	if cfg.MaxConns > 0 {
		config.MaxConns = int32(cfg.MaxConns)
	}
	if cfg.MinConns > 0 {
		config.MinConns = int32(cfg.MinConns)
	}
	if cfg.MaxConnLifetime > 0 {
		config.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		config.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	config.HealthCheckPeriod = 1 * time.Minute

	newPool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("error creating connection pool: %w", err)
	}

	if err := newPool.Ping(ctx); err != nil {
		newPool.Close()
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}
	return newPool, nil
}

// Close closes the shared pool.
func Close() {
	poolMu.Lock()
	defer poolMu.Unlock()
	if pool != nil {
		pool.Close()
		pool = nil
	}
	poolOnce = sync.Once{} // reset to allow reconnection
}

// Pool returns the shared pool, nil before Connect.
func Pool() *pgxpool.Pool {
	poolMu.RLock()
	defer poolMu.RUnlock()
	return pool
}

// WithTx runs fn inside a transaction, committing when fn returns nil.
func WithTx(ctx context.Context, p *pgxpool.Pool, fn func(tx pgx.Tx) error) error {
	tx, err := p.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
