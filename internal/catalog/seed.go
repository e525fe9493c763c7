package catalog

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/shopspring/decimal"
)

// SeedFile is the JSON document accepted by LoadSeed. Prices are decimal euros.
type SeedFile struct {
	Stores   []Store       `json:"stores"`
	Products []SeedProduct `json:"products"`
}

// SeedProduct is one product entry of a seed file.
type SeedProduct struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Brand    *string     `json:"brand,omitempty"`
	Category *string     `json:"category,omitempty"`
	Unit     string      `json:"unit"`
	Size     *float64    `json:"size,omitempty"`
	ImageURL *string     `json:"imageUrl,omitempty"`
	Prices   []SeedPrice `json:"prices"`
}

// SeedPrice is a store price in decimal euros.
type SeedPrice struct {
	StoreID      string           `json:"storeId"`
	Price        decimal.Decimal  `json:"price"`
	PricePerUnit *decimal.Decimal `json:"pricePerUnit,omitempty"`
}

// LoadSeedFile reads a seed file from disk and builds a snapshot.
func LoadSeedFile(path string) (*Memory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open seed file: %w", err)
	}
	defer f.Close()

	return LoadSeed(f)
}

// LoadSeed decodes a seed document and builds a snapshot.
func LoadSeed(r io.Reader) (*Memory, error) {
	var seed SeedFile
	if err := json.NewDecoder(r).Decode(&seed); err != nil {
		return nil, fmt.Errorf("failed to decode seed: %w", err)
	}

	b := NewBuilder()
	for _, s := range seed.Stores {
		if s.ID == "" {
			return nil, fmt.Errorf("seed store %q has no id", s.Name)
		}
		b.AddStore(s)
	}

	for _, sp := range seed.Products {
		if sp.ID == "" || sp.Name == "" {
			return nil, fmt.Errorf("seed product %q: id and name are required", sp.ID)
		}
		b.AddProduct(&CandidateProduct{
			ID:       sp.ID,
			Name:     sp.Name,
			Brand:    sp.Brand,
			Category: sp.Category,
			Unit:     sp.Unit,
			Size:     sp.Size,
			ImageURL: sp.ImageURL,
		})
		for _, price := range sp.Prices {
			if price.Price.IsNegative() {
				return nil, fmt.Errorf("seed product %q: negative price at %s", sp.ID, price.StoreID)
			}
			cents := FromEuros(price.Price)
			perUnit := cents
			if price.PricePerUnit != nil {
				perUnit = FromEuros(*price.PricePerUnit)
			}
			b.SetPrice(sp.ID, StorePrice{StoreID: price.StoreID, Price: cents, PricePerUnit: perUnit})
		}
	}

	return b.Build(), nil
}
