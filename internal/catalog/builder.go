package catalog

// Builder accumulates stores, products and prices and produces a Memory snapshot.
// The last price set for a (product, store) pair wins. Builder is not safe for
// concurrent use.
type Builder struct {
	stores     []Store
	storeIndex map[string]int
	products   []*CandidateProduct
	index      map[string]*CandidateProduct
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{
		storeIndex: make(map[string]int),
		index:      make(map[string]*CandidateProduct),
	}
}

// AddStore registers a store, replacing an earlier entry with the same id.
func (b *Builder) AddStore(s Store) {
	if i, ok := b.storeIndex[s.ID]; ok {
		b.stores[i] = s
		return
	}
	b.storeIndex[s.ID] = len(b.stores)
	b.stores = append(b.stores, s)
}

// AddProduct registers a product. Attributes of a known product are updated,
// its prices are kept.
func (b *Builder) AddProduct(p *CandidateProduct) {
	if existing, ok := b.index[p.ID]; ok {
		prices := existing.Prices
		*existing = *p
		existing.Prices = prices
		return
	}
	cp := *p
	cp.Prices = append([]StorePrice(nil), p.Prices...)
	b.products = append(b.products, &cp)
	b.index[cp.ID] = &cp
}

// SetPrice records the price of a known product at a store.
// It reports false when the product has not been added.
func (b *Builder) SetPrice(productID string, price StorePrice) bool {
	p, ok := b.index[productID]
	if !ok {
		return false
	}
	for i := range p.Prices {
		if p.Prices[i].StoreID == price.StoreID {
			p.Prices[i] = price
			return true
		}
	}
	p.Prices = append(p.Prices, price)
	return true
}

// Build returns an immutable snapshot of everything added so far.
func (b *Builder) Build() *Memory {
	return NewMemory(b.stores, b.products)
}
