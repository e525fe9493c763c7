package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFingerprint(t *testing.T) {
	base := Fingerprint(testStores(), testProducts())
	assert.Len(t, base, 64)
	assert.Equal(t, base, Fingerprint(testStores(), testProducts()), "deterministic")

	reversed := testProducts()
	for i, j := 0, len(reversed)-1; i < j; i, j = i+1, j-1 {
		reversed[i], reversed[j] = reversed[j], reversed[i]
	}
	assert.Equal(t, base, Fingerprint(testStores(), reversed), "order independent")

	changed := testProducts()
	changed[0].Prices[0].Price++
	assert.NotEqual(t, base, Fingerprint(testStores(), changed), "price change")

	perUnit := testProducts()
	perUnit[0].Prices[0].PricePerUnit++
	assert.NotEqual(t, base, Fingerprint(testStores(), perUnit), "per unit price change")

	assert.NotEqual(t, base, Fingerprint(testStores()[:1], testProducts()), "store removed")
}

func TestMemory_Fingerprint(t *testing.T) {
	a := NewMemory(testStores(), testProducts())
	b := NewMemory(testStores(), testProducts())
	assert.NotEmpty(t, a.Fingerprint())
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
}
