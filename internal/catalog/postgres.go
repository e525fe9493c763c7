package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres serves the catalog straight from the database.
// It expects the schema created by database.EnsureSchema.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a provider over an existing pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

const productColumns = `p.id, p.name, p.normalized_name, p.search_text, p.brand, p.category, p.unit, p.size, p.image_url`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ListActiveStores implements Provider.
func (pg *Postgres) ListActiveStores(ctx context.Context) ([]Store, error) {
	rows, err := pg.pool.Query(ctx, `
		SELECT id, name, slug, address, latitude, longitude
		FROM stores
		WHERE status = 'active'
		ORDER BY name, id
	`)
	if err != nil {
		return nil, classify("list stores", err)
	}
	defer rows.Close()

	stores := make([]Store, 0)
	for rows.Next() {
		s := Store{Active: true}
		if err := rows.Scan(&s.ID, &s.Name, &s.Slug, &s.Address, &s.Lat, &s.Lng); err != nil {
			return nil, fmt.Errorf("failed to scan store: %w", err)
		}
		stores = append(stores, s)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list stores", err)
	}
	return stores, nil
}

// FindProductByID implements Provider.
func (pg *Postgres) FindProductByID(ctx context.Context, id string) (*CandidateProduct, bool, error) {
	row := pg.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products p WHERE p.id = $1`, id)

	p, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, classify("find product", err)
	}

	if err := pg.attachPrices(ctx, []*CandidateProduct{p}); err != nil {
		return nil, false, err
	}
	return p, true, nil
}

// SearchByNormalizedSubstring implements Provider. Results are ordered by name.
func (pg *Postgres) SearchByNormalizedSubstring(ctx context.Context, term string, limit int) ([]*CandidateProduct, error) {
	results := make([]*CandidateProduct, 0)
	if term == "" {
		return results, nil
	}

	pattern := "%" + likeEscaper.Replace(term) + "%"
	query := `
		SELECT ` + productColumns + `
		FROM products p
		WHERE p.normalized_name LIKE $1 OR p.search_text LIKE $1
		ORDER BY p.name, p.id
	`
	args := []any{pattern}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := pg.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, classify("search products", err)
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		results = append(results, p)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("search products", err)
	}

	if err := pg.attachPrices(ctx, results); err != nil {
		return nil, err
	}
	return results, nil
}

// Ping implements Provider.
func (pg *Postgres) Ping(ctx context.Context) error {
	if err := pg.pool.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
	}
	return nil
}

// LoadSnapshot reads the whole catalog in one read-only transaction.
func (pg *Postgres) LoadSnapshot(ctx context.Context) (*Memory, error) {
	tx, err := pg.pool.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly, IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return nil, fmt.Errorf("%w: begin snapshot: %w", ErrCatalogUnavailable, err)
	}
	defer tx.Rollback(ctx)

	b := NewBuilder()

	storeRows, err := tx.Query(ctx, `SELECT id, name, slug, address, latitude, longitude, status = 'active' FROM stores ORDER BY name, id`)
	if err != nil {
		return nil, classify("snapshot stores", err)
	}
	for storeRows.Next() {
		var s Store
		if err := storeRows.Scan(&s.ID, &s.Name, &s.Slug, &s.Address, &s.Lat, &s.Lng, &s.Active); err != nil {
			storeRows.Close()
			return nil, fmt.Errorf("failed to scan store: %w", err)
		}
		b.AddStore(s)
	}
	storeRows.Close()
	if err := storeRows.Err(); err != nil {
		return nil, classify("snapshot stores", err)
	}

	productRows, err := tx.Query(ctx, `SELECT `+productColumns+` FROM products p ORDER BY p.name, p.id`)
	if err != nil {
		return nil, classify("snapshot products", err)
	}
	for productRows.Next() {
		p, err := scanProduct(productRows)
		if err != nil {
			productRows.Close()
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		b.AddProduct(p)
	}
	productRows.Close()
	if err := productRows.Err(); err != nil {
		return nil, classify("snapshot products", err)
	}

	priceRows, err := tx.Query(ctx, `
		SELECT product_id, store_id, price, price_per_unit
		FROM store_prices
		WHERE available
		ORDER BY product_id, store_id
	`)
	if err != nil {
		return nil, classify("snapshot prices", err)
	}
	defer priceRows.Close()
	for priceRows.Next() {
		var productID string
		var sp StorePrice
		if err := priceRows.Scan(&productID, &sp.StoreID, &sp.Price, &sp.PricePerUnit); err != nil {
			return nil, fmt.Errorf("failed to scan price: %w", err)
		}
		b.SetPrice(productID, sp)
	}
	if err := priceRows.Err(); err != nil {
		return nil, classify("snapshot prices", err)
	}

	return b.Build(), nil
}

// attachPrices loads active-store prices for the given products in one query.
func (pg *Postgres) attachPrices(ctx context.Context, products []*CandidateProduct) error {
	if len(products) == 0 {
		return nil
	}

	ids := make([]string, len(products))
	byID := make(map[string]*CandidateProduct, len(products))
	for i, p := range products {
		ids[i] = p.ID
		byID[p.ID] = p
	}

	rows, err := pg.pool.Query(ctx, `
		SELECT sp.product_id, sp.store_id, sp.price, sp.price_per_unit
		FROM store_prices sp
		JOIN stores s ON s.id = sp.store_id
		WHERE sp.product_id = ANY($1) AND s.status = 'active' AND sp.available
		ORDER BY sp.product_id, sp.store_id
	`, ids)
	if err != nil {
		return classify("load prices", err)
	}
	defer rows.Close()

	for rows.Next() {
		var productID string
		var sp StorePrice
		if err := rows.Scan(&productID, &sp.StoreID, &sp.Price, &sp.PricePerUnit); err != nil {
			return fmt.Errorf("failed to scan price: %w", err)
		}
		if p, ok := byID[productID]; ok {
			p.Prices = append(p.Prices, sp)
		}
	}
	if err := rows.Err(); err != nil {
		return classify("load prices", err)
	}
	return nil
}

func scanProduct(row pgx.Row) (*CandidateProduct, error) {
	p := &CandidateProduct{Prices: make([]StorePrice, 0)}
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.NormalizedName,
		&p.SearchText,
		&p.Brand,
		&p.Category,
		&p.Unit,
		&p.Size,
		&p.ImageURL,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// classify wraps connection-level failures with ErrCatalogUnavailable.
// Server-side query errors and context errors are passed through wrapped only.
func classify(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrCatalogUnavailable, op, err)
}
