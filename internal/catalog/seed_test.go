package catalog

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const seedJSON = `{
  "stores": [
    {"id": "mercadona", "name": "Mercadona", "slug": "mercadona", "active": true},
    {"id": "lidl", "name": "Lidl", "slug": "lidl", "active": true}
  ],
  "products": [
    {
      "id": "llet-sencera",
      "name": "Llet Sencera",
      "brand": "Hacendado",
      "unit": "L",
      "size": 1,
      "prices": [
        {"storeId": "mercadona", "price": 0.89},
        {"storeId": "lidl", "price": "0.79", "pricePerUnit": 0.79}
      ]
    }
  ]
}`

func TestLoadSeed(t *testing.T) {
	m, err := LoadSeed(strings.NewReader(seedJSON))
	require.NoError(t, err)

	assert.Equal(t, 2, m.StoreCount())
	assert.Equal(t, 1, m.ProductCount())

	p, ok, err := m.FindProductByID(context.Background(), "llet-sencera")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "llet sencera", p.NormalizedName)
	require.NotNil(t, p.Size)
	assert.Equal(t, 1.0, *p.Size)

	sp, ok := p.PriceAt("mercadona")
	require.True(t, ok)
	assert.Equal(t, int64(89), sp.Price)
	assert.Equal(t, int64(89), sp.PricePerUnit, "price per unit defaults to price")

	sp, ok = p.PriceAt("lidl")
	require.True(t, ok)
	assert.Equal(t, int64(79), sp.Price)
}

func TestLoadSeed_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"malformed", `{"stores": [`},
		{"store without id", `{"stores": [{"name": "Dia"}]}`},
		{"product without name", `{"products": [{"id": "x"}]}`},
		{"negative price", `{"products": [{"id": "x", "name": "X", "prices": [{"storeId": "s", "price": -1}]}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadSeed(strings.NewReader(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadSeedFile_Missing(t *testing.T) {
	_, err := LoadSeedFile("does-not-exist.json")
	assert.Error(t, err)
}

func TestLoadSeedFile_Bundled(t *testing.T) {
	m, err := LoadSeedFile("../../data/catalog.seed.json")
	require.NoError(t, err)
	assert.Equal(t, 4, m.StoreCount(), "inactive stores are dropped")
	assert.Equal(t, 13, m.ProductCount())

	water, ok, err := m.FindProductByID(context.Background(), "aigua-mineral-1-5l")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, water.Prices, 4)
	for _, p := range water.Prices {
		assert.NotEqual(t, "caprabo", p.StoreID)
	}
}
