package ingestion

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/bossing/basket-service/internal/catalog"
	"github.com/bossing/basket-service/internal/database"
	"github.com/bossing/basket-service/internal/matching"
)

// WriteStats counts what a sink wrote.
type WriteStats struct {
	Stores   int `json:"stores"`
	Products int `json:"products"`
	Prices   int `json:"prices"`
	Skipped  int `json:"skipped"`
}

// Sink persists ingestion results.
type Sink interface {
	Write(ctx context.Context, results []Result) (WriteStats, error)
}

// toProduct maps a record to the catalog attributes it carries.
func toProduct(rec Record) *catalog.CandidateProduct {
	unit := rec.Unit
	if unit == "" {
		unit = "ud"
	}
	return &catalog.CandidateProduct{
		ID:             rec.CatalogID,
		Name:           rec.Name,
		NormalizedName: matching.Normalize(rec.Name),
		SearchText:     matching.SearchText(rec.Name, deref(rec.Brand), deref(rec.Category)),
		Brand:          rec.Brand,
		Category:       rec.Category,
		Unit:           unit,
		Size:           rec.Size,
		ImageURL:       rec.ImageURL,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// PostgresSink upserts results into the catalog tables in a single transaction.
type PostgresSink struct {
	pool *pgxpool.Pool
}

func NewPostgresSink(pool *pgxpool.Pool) *PostgresSink {
	return &PostgresSink{pool: pool}
}

const (
	upsertStoreSQL = `
		INSERT INTO stores (id, name, slug, address, latitude, longitude, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			slug = EXCLUDED.slug,
			address = COALESCE(EXCLUDED.address, stores.address),
			latitude = COALESCE(EXCLUDED.latitude, stores.latitude),
			longitude = COALESCE(EXCLUDED.longitude, stores.longitude),
			status = EXCLUDED.status,
			updated_at = NOW()`

	upsertProductSQL = `
		INSERT INTO products (id, name, normalized_name, search_text, brand, category, unit, size, image_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			normalized_name = EXCLUDED.normalized_name,
			search_text = EXCLUDED.search_text,
			brand = COALESCE(EXCLUDED.brand, products.brand),
			category = COALESCE(EXCLUDED.category, products.category),
			unit = EXCLUDED.unit,
			size = COALESCE(EXCLUDED.size, products.size),
			image_url = COALESCE(EXCLUDED.image_url, products.image_url),
			updated_at = NOW()`

	upsertPriceSQL = `
		INSERT INTO store_prices (product_id, store_id, price, price_per_unit, available, fetched_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (product_id, store_id) DO UPDATE SET
			price = EXCLUDED.price,
			price_per_unit = EXCLUDED.price_per_unit,
			available = EXCLUDED.available,
			fetched_at = EXCLUDED.fetched_at`
)

// Write upserts every store that produced records, then its products and
// prices. Results without records are skipped so a failed adapter never
// clears existing data.
func (s *PostgresSink) Write(ctx context.Context, results []Result) (WriteStats, error) {
	var stats WriteStats

	err := database.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, res := range results {
			if len(res.Records) == 0 {
				stats.Skipped++
				continue
			}

			status := "inactive"
			if res.Store.Active {
				status = "active"
			}
			batch.Queue(upsertStoreSQL,
				res.Store.ID, res.Store.Name, res.Store.Slug,
				res.Store.Address, res.Store.Lat, res.Store.Lng, status)
			stats.Stores++

			for _, rec := range res.Records {
				p := toProduct(rec)
				batch.Queue(upsertProductSQL,
					p.ID, p.Name, p.NormalizedName, p.SearchText,
					p.Brand, p.Category, p.Unit, p.Size, p.ImageURL)
				batch.Queue(upsertPriceSQL,
					rec.CatalogID, res.Store.ID, rec.Price, rec.PricePerUnit, rec.Available, rec.FetchedAt)
				stats.Products++
				stats.Prices++
			}
		}

		if batch.Len() == 0 {
			return nil
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to upsert catalog: %w", err)
		}
		return nil
	})
	if err != nil {
		return WriteStats{}, err
	}

	log.Info().
		Int("stores", stats.Stores).
		Int("products", stats.Products).
		Int("prices", stats.Prices).
		Int("skipped", stats.Skipped).
		Msg("Catalog upserted")
	return stats, nil
}

// CatalogSink accumulates results into an in-memory catalog.
type CatalogSink struct {
	builder *catalog.Builder
}

// NewCatalogSink wraps b, or a fresh builder when b is nil.
func NewCatalogSink(b *catalog.Builder) *CatalogSink {
	if b == nil {
		b = catalog.NewBuilder()
	}
	return &CatalogSink{builder: b}
}

// Write adds results to the builder. Unavailable records register the
// product without a price.
func (s *CatalogSink) Write(ctx context.Context, results []Result) (WriteStats, error) {
	var stats WriteStats
	for _, res := range results {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if len(res.Records) == 0 {
			stats.Skipped++
			continue
		}
		s.builder.AddStore(res.Store)
		stats.Stores++

		for _, rec := range res.Records {
			s.builder.AddProduct(toProduct(rec))
			stats.Products++
			if !rec.Available {
				continue
			}
			s.builder.SetPrice(rec.CatalogID, catalog.StorePrice{
				StoreID:      res.Store.ID,
				Price:        rec.Price,
				PricePerUnit: rec.PricePerUnit,
			})
			stats.Prices++
		}
	}
	return stats, nil
}

// Snapshot builds the catalog accumulated so far.
func (s *CatalogSink) Snapshot() *catalog.Memory {
	return s.builder.Build()
}
