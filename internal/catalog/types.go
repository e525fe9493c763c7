package catalog

// Store is a supermarket known to the catalog.
type Store struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Slug    string   `json:"slug"`
	Address *string  `json:"address,omitempty"`
	Lat     *float64 `json:"lat,omitempty"`
	Lng     *float64 `json:"lng,omitempty"`
	Active  bool     `json:"active"`
}

// StorePrice is the price of one product at one store.
// Money values are minor currency units (cents).
type StorePrice struct {
	StoreID      string `json:"storeId"`
	Price        int64  `json:"price"`
	PricePerUnit int64  `json:"pricePerUnit"`
}

// CandidateProduct is a catalog entry that can match a requested item.
// Optional attributes are nil when the source did not provide them.
type CandidateProduct struct {
	ID             string       `json:"id"`
	Name           string       `json:"name"`
	NormalizedName string       `json:"normalizedName"`
	SearchText     string       `json:"-"`
	Brand          *string      `json:"brand,omitempty"`
	Category       *string      `json:"category,omitempty"`
	Unit           string       `json:"unit"`
	Size           *float64     `json:"size,omitempty"`
	ImageURL       *string      `json:"imageUrl,omitempty"`
	Prices         []StorePrice `json:"prices"`
}

// PriceAt returns the product's price at the given store.
func (p *CandidateProduct) PriceAt(storeID string) (StorePrice, bool) {
	for _, sp := range p.Prices {
		if sp.StoreID == storeID {
			return sp, true
		}
	}
	return StorePrice{}, false
}
