package catalog

import "github.com/fjod/go_crafts/internal/store"

// SearchLimit caps the number of products a free-text search returns.
const SearchLimit = 20

// Plan maps a normalized filter to the index scans that answer it.
//
// Free text always wins and yields a single capped full-text scan; every other predicate is then
// checked by Merge. Artisan ids produce one by_artisan_price scan each; when categories are also
// given, one by_category_price scan per category is added and the artisan-sourced records are
// narrowed to those categories during the merge, as there is no artisan x category index.
// Categories alone give one scan per category, a bare price range one by_price scan, and an
// empty filter a single full scan.
//
// Fan-out is bounded by |artisans| + |categories|, never by the size of the result.
func Plan(f Filter) []store.Scan {
	if f.SearchText != "" {
		return []store.Scan{{Index: store.IndexNameText, Text: f.SearchText, Limit: SearchLimit}}
	}

	rng := f.priceRange()
	scans := make([]store.Scan, 0, len(f.ArtisanIDs)+len(f.Categories))
	for _, id := range f.ArtisanIDs {
		scans = append(scans, store.Scan{Index: store.IndexArtisanPrice, Key: id, Range: rng})
	}
	for _, category := range f.Categories {
		scans = append(scans, store.Scan{Index: store.IndexCategoryPrice, Key: category, Range: rng})
	}
	if len(scans) > 0 {
		return scans
	}

	if !rng.IsZero() {
		return []store.Scan{{Index: store.IndexPrice, Range: rng}}
	}
	return []store.Scan{{Index: store.IndexNone}}
}
