package catalog

import (
	"cmp"
	"slices"
)

// SortProducts orders the listing in place. Ties keep their merge order.
func SortProducts(products []EnrichedProduct, order SortOrder) {
	switch order {
	case SortPriceAsc:
		slices.SortStableFunc(products, func(a, b EnrichedProduct) int { return cmp.Compare(a.Price, b.Price) })
	case SortPriceDesc:
		slices.SortStableFunc(products, func(a, b EnrichedProduct) int { return cmp.Compare(b.Price, a.Price) })
	case SortNewest:
		slices.SortStableFunc(products, func(a, b EnrichedProduct) int { return b.CreatedAt.Compare(a.CreatedAt) })
	}
}

func sortOrdersNewestFirst(orders []EnrichedOrder) {
	slices.SortStableFunc(orders, func(a, b EnrichedOrder) int { return b.CreatedAt.Compare(a.CreatedAt) })
}
