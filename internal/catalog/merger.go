package catalog

import (
	"github.com/fjod/go_crafts/internal/domain"
	"github.com/fjod/go_crafts/internal/store"
)

// ScanResult is the output of one planned scan.
type ScanResult struct {
	Scan     store.Scan
	Products []*domain.Product
}

// Merge unions the scan results, keeping the first occurrence of every product id, and drops
// records that fail a predicate their scan's index does not guarantee.
func Merge(f Filter, results []ScanResult) []*domain.Product {
	seen := make(map[string]struct{})
	merged := make([]*domain.Product, 0)

	for _, result := range results {
		for _, p := range result.Products {
			if p == nil {
				continue
			}
			if _, dup := seen[p.ID]; dup {
				continue
			}
			if !residualMatch(f, result.Scan, p) {
				continue
			}
			seen[p.ID] = struct{}{}
			merged = append(merged, p)
		}
	}
	return merged
}

func residualMatch(f Filter, scan store.Scan, p *domain.Product) bool {
	if !scan.Range.Contains(p.Price) {
		return false
	}
	switch scan.Index {
	case store.IndexNameText:
		return f.priceRange().Contains(p.Price) && f.matchesCategory(p) && f.matchesArtisan(p)
	case store.IndexArtisanPrice:
		return f.matchesCategory(p)
	}
	return true
}
