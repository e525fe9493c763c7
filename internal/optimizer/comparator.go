package optimizer

import "sort"

// CompareRoutes ranks store baskets into routes.
//
// Baskets with a positive subtotal come first in ascending order; baskets with
// nothing matched (subtotal 0) always sort after them. Equal keys keep input
// order. Savings are measured against the cheapest positive basket, so the
// cheapest route saves exactly 0 and unmatched baskets keep 0.
func CompareRoutes(baskets []*StoreBasket) []*OptimizedRoute {
	sorted := make([]*StoreBasket, 0, len(baskets))
	for _, b := range baskets {
		if b != nil {
			sorted = append(sorted, b)
		}
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].Subtotal, sorted[j].Subtotal
		if (a > 0) != (b > 0) {
			return a > 0
		}
		if a <= 0 {
			return false
		}
		return a < b
	})

	var cheapest int64
	for _, b := range sorted {
		if b.Subtotal > 0 {
			cheapest = b.Subtotal
			break
		}
	}

	routes := make([]*OptimizedRoute, 0, len(sorted))
	for _, b := range sorted {
		route := &OptimizedRoute{
			TotalCost: b.Subtotal,
			Stops:     []*StoreBasket{b},
		}
		if b.Subtotal > 0 {
			route.EstimatedSavings = max(0, b.Subtotal-cheapest)
		}
		routes = append(routes, route)
	}
	return routes
}

// Preview summarises ranked routes: the cheapest and most expensive positive
// totals and the spread between them.
func Preview(routes []*OptimizedRoute, itemCount, storeCount int) *PreviewSummary {
	summary := &PreviewSummary{ItemCount: itemCount, StoreCount: storeCount}

	first := true
	for _, r := range routes {
		if r.TotalCost <= 0 {
			continue
		}
		if first || r.TotalCost < summary.EstimatedMinCost {
			summary.EstimatedMinCost = r.TotalCost
		}
		if first || r.TotalCost > summary.EstimatedMaxCost {
			summary.EstimatedMaxCost = r.TotalCost
		}
		first = false
	}
	summary.PotentialSavings = summary.EstimatedMaxCost - summary.EstimatedMinCost
	return summary
}
