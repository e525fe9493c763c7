package ingestion

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bossing/basket-service/internal/catalog"
	"github.com/bossing/basket-service/internal/database/dbtest"
)

func strPtr(s string) *string { return &s }

func sampleResults() []Result {
	fetched := time.Date(2026, 10, 14, 8, 0, 0, 0, time.UTC)
	return []Result{
		{
			Source: "lidl",
			Store:  catalog.Store{ID: "lidl", Name: "Lidl", Slug: "lidl", Active: true},
			Records: []Record{
				{CatalogID: "llet", Name: "Llet Sencera 1L", StoreID: "lidl", Price: 79, PricePerUnit: 79, Unit: "L", Brand: strPtr("Milbona"), Category: strPtr("Làctics"), Available: true, FetchedAt: fetched},
				{CatalogID: "mato", Name: "Mató", StoreID: "lidl", Price: 210, PricePerUnit: 840, Unit: "kg", Available: false, FetchedAt: fetched},
			},
		},
		{
			Source: "bonpreu",
			Store:  catalog.Store{ID: "bonpreu", Name: "Bonpreu", Slug: "bonpreu", Active: true},
			Records: []Record{
				{CatalogID: "llet", Name: "Llet Sencera 1L", StoreID: "bonpreu", Price: 95, PricePerUnit: 95, Unit: "L", Available: true, FetchedAt: fetched},
			},
		},
		{
			Source:  "mercadona",
			Store:   catalog.Store{ID: "mercadona", Name: "Mercadona", Slug: "mercadona", Active: true},
			Records: []Record{},
			Errors:  []string{"list categories: connection refused"},
		},
	}
}

func TestCatalogSink(t *testing.T) {
	sink := NewCatalogSink(nil)
	stats, err := sink.Write(context.Background(), sampleResults())
	require.NoError(t, err)
	assert.Equal(t, WriteStats{Stores: 2, Products: 3, Prices: 2, Skipped: 1}, stats)

	snap := sink.Snapshot()
	ctx := context.Background()

	stores, err := snap.ListActiveStores(ctx)
	require.NoError(t, err)
	assert.Len(t, stores, 2)

	milk, ok, err := snap.FindProductByID(ctx, "llet")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "llet sencera 1l", milk.NormalizedName)
	assert.Len(t, milk.Prices, 2)

	mato, ok, err := snap.FindProductByID(ctx, "mato")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Empty(t, mato.Prices, "unavailable records carry no price")

	found, err := snap.SearchByNormalizedSubstring(ctx, "milbona", 0)
	require.NoError(t, err)
	assert.Empty(t, found, "the later record without a brand replaced the attributes")
}

func TestCatalogSink_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewCatalogSink(nil).Write(ctx, sampleResults())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPostgresSink(t *testing.T) {
	pool, _, cleanup := dbtest.Setup(t)
	defer cleanup()
	ctx := context.Background()

	sink := NewPostgresSink(pool)
	stats, err := sink.Write(ctx, sampleResults())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Stores)
	assert.Equal(t, 3, stats.Prices)
	assert.Equal(t, 1, stats.Skipped)

	pg := catalog.NewPostgres(pool)
	milk, ok, err := pg.FindProductByID(ctx, "llet")
	require.NoError(t, err)
	require.True(t, ok)
	require.NotNil(t, milk.Brand)
	assert.Equal(t, "Milbona", *milk.Brand, "a missing brand keeps the stored one")
	assert.Len(t, milk.Prices, 2)

	mato, ok, err := pg.FindProductByID(ctx, "mato")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Empty(t, mato.Prices, "unavailable prices are not served")

	// Re-running updates prices in place.
	results := sampleResults()
	results[0].Records[0].Price = 75
	_, err = sink.Write(ctx, results)
	require.NoError(t, err)

	milk, _, err = pg.FindProductByID(ctx, "llet")
	require.NoError(t, err)
	price, ok := milk.PriceAt("lidl")
	require.True(t, ok)
	assert.Equal(t, int64(75), price.Price)

	var count int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM store_prices`).Scan(&count))
	assert.Equal(t, 3, count)
}

func TestPostgresSink_RollsBackOnFailure(t *testing.T) {
	pool, _, cleanup := dbtest.Setup(t)
	defer cleanup()
	ctx := context.Background()

	results := sampleResults()
	results[1].Records[0].Price = -5 // violates the price check

	_, err := NewPostgresSink(pool).Write(ctx, results)
	require.Error(t, err)

	var count int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&count))
	assert.Zero(t, count)
}
