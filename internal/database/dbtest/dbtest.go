// Package dbtest starts a disposable Postgres for integration tests.
package dbtest

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/bossing/basket-service/internal/database"
)

// Setup starts a postgres container with the catalog schema applied.
// The test is skipped under -short.
func Setup(t *testing.T) (*pgxpool.Pool, string, func()) {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("basket"),
		postgres.WithUsername("basket"),
		postgres.WithPassword("basket"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err, "Failed to start postgres container")

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "Failed to get connection string")

	pool, err := database.Open(ctx, database.PoolConfig{URL: connStr, MaxConns: 5})
	require.NoError(t, err, "Failed to create connection pool")

	require.NoError(t, database.EnsureSchema(ctx, pool), "Failed to apply schema")

	cleanup := func() {
		pool.Close()
		testcontainers.TerminateContainer(container)
	}
	return pool, connStr, cleanup
}
