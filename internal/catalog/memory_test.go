package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func testStores() []Store {
	return []Store{
		{ID: "mercadona", Name: "Mercadona", Slug: "mercadona", Active: true},
		{ID: "lidl", Name: "Lidl", Slug: "lidl", Active: true},
		{ID: "closed", Name: "Tancat", Slug: "tancat", Active: false},
	}
}

func testProducts() []*CandidateProduct {
	return []*CandidateProduct{
		{
			ID:    "p-llet",
			Name:  "Llet Sencera",
			Brand: strPtr("Hacendado"),
			Unit:  "L",
			Prices: []StorePrice{
				{StoreID: "mercadona", Price: 89, PricePerUnit: 89},
				{StoreID: "closed", Price: 10, PricePerUnit: 10},
			},
		},
		{
			ID:       "p-macarrons",
			Name:     "Pasta Macarrons",
			Category: strPtr("Pasta i arròs"),
			Unit:     "g",
			Prices: []StorePrice{
				{StoreID: "lidl", Price: 105, PricePerUnit: 210},
				{StoreID: "lidl", Price: 999, PricePerUnit: 999},
			},
		},
		{
			ID:   "p-pa",
			Name: "Pa de Motlle",
			Unit: "ud",
		},
	}
}

func TestNewMemory_ActiveStoresOnly(t *testing.T) {
	m := NewMemory(testStores(), testProducts())

	stores, err := m.ListActiveStores(context.Background())
	require.NoError(t, err)
	require.Len(t, stores, 2)
	assert.Equal(t, "mercadona", stores[0].ID)
	assert.Equal(t, "lidl", stores[1].ID)

	p, ok, err := m.FindProductByID(context.Background(), "p-llet")
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, p.Prices, 1, "price at inactive store must be dropped")
	assert.Equal(t, "mercadona", p.Prices[0].StoreID)
}

func TestNewMemory_FirstPricePerStoreWins(t *testing.T) {
	m := NewMemory(testStores(), testProducts())

	p, ok, _ := m.FindProductByID(context.Background(), "p-macarrons")
	require.True(t, ok)
	require.Len(t, p.Prices, 1)
	assert.Equal(t, int64(105), p.Prices[0].Price)
}

func TestNewMemory_DerivesNormalizedFields(t *testing.T) {
	m := NewMemory(testStores(), testProducts())

	p, _, _ := m.FindProductByID(context.Background(), "p-macarrons")
	assert.Equal(t, "pasta macarrons", p.NormalizedName)
	assert.Equal(t, "pasta macarrons pasta i arros", p.SearchText)
	assert.NotNil(t, p.Prices)

	p, _, _ = m.FindProductByID(context.Background(), "p-pa")
	assert.NotNil(t, p.Prices, "prices are never nil")
	assert.Empty(t, p.Prices)
}

func TestNewMemory_DoesNotAliasInput(t *testing.T) {
	products := testProducts()
	m := NewMemory(testStores(), products)

	products[0].Name = "changed"
	products[0].Prices[0].Price = 1

	p, _, _ := m.FindProductByID(context.Background(), "p-llet")
	assert.Equal(t, "Llet Sencera", p.Name)
	assert.Equal(t, int64(89), p.Prices[0].Price)
}

func TestMemory_FindProductByID_Missing(t *testing.T) {
	m := NewMemory(testStores(), testProducts())

	p, ok, err := m.FindProductByID(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, p)
}

func TestMemory_SearchByNormalizedSubstring(t *testing.T) {
	m := NewMemory(testStores(), testProducts())
	ctx := context.Background()

	tests := []struct {
		name     string
		term     string
		limit    int
		expected []string
	}{
		{"name substring", "macarrons", 0, []string{"p-macarrons"}},
		{"brand in search text", "hacendado", 0, []string{"p-llet"}},
		{"category in search text", "arros", 0, []string{"p-macarrons"}},
		{"catalog order kept", "a", 0, []string{"p-llet", "p-macarrons", "p-pa"}},
		{"limit", "a", 2, []string{"p-llet", "p-macarrons"}},
		{"no match", "xocolata", 0, []string{}},
		{"empty term", "", 0, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := m.SearchByNormalizedSubstring(ctx, tt.term, tt.limit)
			require.NoError(t, err)
			require.NotNil(t, results)
			ids := make([]string, 0, len(results))
			for _, p := range results {
				ids = append(ids, p.ID)
			}
			assert.Equal(t, tt.expected, ids)
		})
	}
}

func TestMemory_CancelledContext(t *testing.T) {
	m := NewMemory(testStores(), testProducts())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.SearchByNormalizedSubstring(ctx, "llet", 0)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, m.Ping(ctx), context.Canceled)
}

func TestCandidateProduct_PriceAt(t *testing.T) {
	m := NewMemory(testStores(), testProducts())
	p, _, _ := m.FindProductByID(context.Background(), "p-llet")

	sp, ok := p.PriceAt("mercadona")
	assert.True(t, ok)
	assert.Equal(t, int64(89), sp.Price)

	_, ok = p.PriceAt("lidl")
	assert.False(t, ok)
}

func TestBuilder(t *testing.T) {
	b := NewBuilder()
	b.AddStore(Store{ID: "s1", Name: "Dia", Active: true})
	b.AddStore(Store{ID: "s1", Name: "Dia Market", Active: true})
	b.AddProduct(&CandidateProduct{ID: "p1", Name: "Ous"})

	assert.True(t, b.SetPrice("p1", StorePrice{StoreID: "s1", Price: 200, PricePerUnit: 200}))
	assert.True(t, b.SetPrice("p1", StorePrice{StoreID: "s1", Price: 180, PricePerUnit: 180}))
	assert.False(t, b.SetPrice("missing", StorePrice{StoreID: "s1", Price: 1}))

	b.AddProduct(&CandidateProduct{ID: "p1", Name: "Ous Frescos"})

	m := b.Build()
	stores, _ := m.ListActiveStores(context.Background())
	require.Len(t, stores, 1)
	assert.Equal(t, "Dia Market", stores[0].Name)

	p, ok, _ := m.FindProductByID(context.Background(), "p1")
	require.True(t, ok)
	assert.Equal(t, "Ous Frescos", p.Name)
	require.Len(t, p.Prices, 1)
	assert.Equal(t, int64(180), p.Prices[0].Price)
}
