package optimizer

import (
	"github.com/bossing/basket-service/internal/catalog"
)

// PriceBasket prices the resolved items at one store. It is a pure function:
// for each item the cheapest candidate with a price at store is chosen, ties
// going to the earlier candidate. Items without such a candidate become
// not-found lines that do not count toward the subtotal.
func PriceBasket(store catalog.Store, resolved []*ResolvedItem) *StoreBasket {
	basket := &StoreBasket{
		Store: store,
		Lines: make([]BasketLine, 0, len(resolved)),
	}

	for _, item := range resolved {
		if item == nil {
			continue
		}
		line := priceLine(store.ID, item)
		basket.Lines = append(basket.Lines, line)
		basket.Subtotal += line.LineTotal()
	}

	return basket
}

func priceLine(storeID string, item *ResolvedItem) BasketLine {
	var best *catalog.CandidateProduct
	var bestPrice catalog.StorePrice

	for _, c := range item.Candidates {
		if c == nil {
			continue
		}
		sp, ok := c.PriceAt(storeID)
		if !ok {
			continue
		}
		// Strict comparison keeps the first-seen candidate on ties.
		if best == nil || sp.Price < bestPrice.Price {
			best = c
			bestPrice = sp
		}
	}

	if best == nil {
		return BasketLine{
			Name:     unavailableName(item.Item.Name),
			Price:    0,
			Quantity: item.Item.Quantity,
			Found:    false,
		}
	}

	perUnit := bestPrice.PricePerUnit
	line := BasketLine{
		ProductID:    best.ID,
		Name:         best.Name,
		Price:        bestPrice.Price,
		Quantity:     item.Item.Quantity,
		Found:        true,
		Brand:        best.Brand,
		ImageURL:     best.ImageURL,
		PricePerUnit: &perUnit,
		Size:         best.Size,
	}
	if best.Unit != "" {
		unit := best.Unit
		line.Unit = &unit
	}
	return line
}
