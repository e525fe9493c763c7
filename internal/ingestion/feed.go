package ingestion

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bossing/basket-service/internal/catalog"
	httpclient "github.com/bossing/basket-service/internal/http"
	"github.com/bossing/basket-service/internal/matching"
)

// FeedAdapter reads a store catalog exposed as a JSON API:
//
//	GET {base}/categories                 {"categories":[{"id":"lactics","name":"Làctics"}]}
//	GET {base}/categories/{id}/products   {"products":[...]}
//	GET {base}/search?q=...               {"products":[...]}
type FeedAdapter struct {
	store   catalog.Store
	baseURL string
	client  *httpclient.Client
	now     func() time.Time
}

type feedCategory struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type feedCategories struct {
	Categories []feedCategory `json:"categories"`
}

type feedProduct struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Price        decimal.Decimal  `json:"price"`
	PricePerUnit *decimal.Decimal `json:"pricePerUnit"`
	Unit         string           `json:"unit"`
	Brand        *string          `json:"brand"`
	Category     *string          `json:"category"`
	ImageURL     *string          `json:"imageUrl"`
	Available    *bool            `json:"available"`
}

type feedProducts struct {
	Products []feedProduct `json:"products"`
}

// NewFeedAdapter creates an adapter for the feed rooted at baseURL.
func NewFeedAdapter(store catalog.Store, baseURL string, client *httpclient.Client) *FeedAdapter {
	if client == nil {
		client = httpclient.NewClientDefault()
	}
	return &FeedAdapter{
		store:   store,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		now:     time.Now,
	}
}

func (a *FeedAdapter) Slug() string         { return a.store.Slug }
func (a *FeedAdapter) Store() catalog.Store { return a.store }

func (a *FeedAdapter) ListCategories(ctx context.Context) ([]string, error) {
	var body feedCategories
	if err := a.client.GetJSON(ctx, a.baseURL+"/categories", &body); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(body.Categories))
	for _, c := range body.Categories {
		if c.ID != "" {
			ids = append(ids, c.ID)
		}
	}
	return ids, nil
}

func (a *FeedAdapter) Fetch(ctx context.Context, category string) ([]Record, error) {
	var body feedProducts
	endpoint := a.baseURL + "/categories/" + url.PathEscape(category) + "/products"
	if err := a.client.GetJSON(ctx, endpoint, &body); err != nil {
		return nil, err
	}
	return a.convert(body.Products, &category), nil
}

func (a *FeedAdapter) SearchByText(ctx context.Context, query string) ([]Record, error) {
	if strings.TrimSpace(query) == "" {
		return []Record{}, nil
	}
	var body feedProducts
	endpoint := a.baseURL + "/search?" + url.Values{"q": {query}}.Encode()
	if err := a.client.GetJSON(ctx, endpoint, &body); err != nil {
		return nil, err
	}
	return a.convert(body.Products, nil), nil
}

func (a *FeedAdapter) convert(products []feedProduct, category *string) []Record {
	fetchedAt := a.now()
	records := make([]Record, 0, len(products))
	for _, p := range products {
		if p.Name == "" || p.Price.IsNegative() {
			continue
		}
		rec := Record{
			CatalogID: p.ID,
			Name:      p.Name,
			StoreID:   a.store.ID,
			Price:     catalog.FromEuros(p.Price),
			Brand:     p.Brand,
			Category:  p.Category,
			ImageURL:  p.ImageURL,
			Available: p.Available == nil || *p.Available,
			FetchedAt: fetchedAt,
		}
		if rec.CatalogID == "" {
			rec.CatalogID = DeriveCatalogID(a.store.Slug, p.Name)
		}
		if rec.Category == nil && category != nil {
			c := *category
			rec.Category = &c
		}
		rec.PricePerUnit = rec.Price
		if p.PricePerUnit != nil && !p.PricePerUnit.IsNegative() {
			rec.PricePerUnit = catalog.FromEuros(*p.PricePerUnit)
		}

		size, unit, hasSize := matching.ExtractSize(p.Name)
		if hasSize {
			rec.Size = &size
		}
		switch {
		case p.Unit != "":
			rec.Unit = matching.NormalizeUnit(p.Unit)
		case hasSize:
			rec.Unit = unit
		default:
			rec.Unit = "ud"
		}
		records = append(records, rec)
	}
	return records
}

// String identifies the feed in logs.
func (a *FeedAdapter) String() string {
	return fmt.Sprintf("feed(%s %s)", a.store.Slug, a.baseURL)
}
