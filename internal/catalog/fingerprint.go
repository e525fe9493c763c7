package catalog

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// FingerprintVersion is bumped whenever the canonical form below changes.
const FingerprintVersion = 1

// Fingerprint returns a deterministic hash of the stores and prices in a
// snapshot. Input order does not matter; any store, product or price change
// produces a different value.
func Fingerprint(stores []Store, products []*CandidateProduct) string {
	storeIDs := make([]string, 0, len(stores))
	for _, s := range stores {
		storeIDs = append(storeIDs, strings.ToLower(s.ID))
	}
	sort.Strings(storeIDs)

	sorted := make([]*CandidateProduct, len(products))
	copy(sorted, products)
	sort.Slice(sorted, func(i, j int) bool {
		return strings.ToLower(sorted[i].ID) < strings.ToLower(sorted[j].ID)
	})

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "v%d\n", FingerprintVersion)
	for _, id := range storeIDs {
		fmt.Fprintf(&buf, "s:%s\n", id)
	}
	for _, p := range sorted {
		fmt.Fprintf(&buf, "p:%s:%s:%s\n", strings.ToLower(p.ID), p.Name, p.Unit)

		prices := make([]StorePrice, len(p.Prices))
		copy(prices, p.Prices)
		sort.Slice(prices, func(i, j int) bool { return prices[i].StoreID < prices[j].StoreID })
		for _, sp := range prices {
			fmt.Fprintf(&buf, "%s:%d:%d\n", strings.ToLower(sp.StoreID), sp.Price, sp.PricePerUnit)
		}
	}

	sum := sha256.Sum256(buf.Bytes())
	return hex.EncodeToString(sum[:])
}
