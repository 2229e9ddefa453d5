package catalog

import (
	"math"
	"slices"
	"strings"

	"github.com/fjod/go_crafts/internal/domain"
	"github.com/fjod/go_crafts/internal/store"
)

// Filter is a product listing request. Empty sets and nil bounds do not constrain the result.
type Filter struct {
	Categories []string `json:"categories,omitempty"`
	ArtisanIDs []string `json:"artisan_ids,omitempty"`
	MinPrice   *float64 `json:"min_price,omitempty"`
	MaxPrice   *float64 `json:"max_price,omitempty"`
	SearchText string   `json:"search_text,omitempty"`
}

func (f Filter) Validate() error {
	if !finite(f.MinPrice) || !finite(f.MaxPrice) {
		return domain.Invalid("price bounds must be finite numbers")
	}
	if f.MinPrice != nil && *f.MinPrice < 0 {
		return domain.Invalid("min price must not be negative")
	}
	if f.MaxPrice != nil && *f.MaxPrice < 0 {
		return domain.Invalid("max price must not be negative")
	}
	if f.MinPrice != nil && f.MaxPrice != nil && *f.MinPrice > *f.MaxPrice {
		return domain.Invalid("min price %.2f is greater than max price %.2f", *f.MinPrice, *f.MaxPrice)
	}
	return nil
}

func finite(v *float64) bool {
	return v == nil || !(math.IsNaN(*v) || math.IsInf(*v, 0))
}

// normalize drops empty and repeated set members and trims the search text.
func (f Filter) normalize() Filter {
	f.Categories = uniqueNonEmpty(f.Categories)
	f.ArtisanIDs = uniqueNonEmpty(f.ArtisanIDs)
	f.SearchText = strings.TrimSpace(f.SearchText)
	return f
}

func uniqueNonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || slices.Contains(out, v) {
			continue
		}
		out = append(out, v)
	}
	return out
}

func (f Filter) priceRange() store.PriceRange {
	return store.PriceRange{Low: f.MinPrice, High: f.MaxPrice}
}

func (f Filter) matchesCategory(p *domain.Product) bool {
	return len(f.Categories) == 0 || slices.Contains(f.Categories, p.Category)
}

func (f Filter) matchesArtisan(p *domain.Product) bool {
	return len(f.ArtisanIDs) == 0 || slices.Contains(f.ArtisanIDs, p.ArtisanID)
}

// SortOrder is applied to a listing after merge and enrichment.
type SortOrder string

const (
	SortNone      SortOrder = ""
	SortPriceAsc  SortOrder = "price_asc"
	SortPriceDesc SortOrder = "price_desc"
	SortNewest    SortOrder = "newest"
)

func (s SortOrder) Valid() bool {
	switch s {
	case SortNone, SortPriceAsc, SortPriceDesc, SortNewest:
		return true
	}
	return false
}
