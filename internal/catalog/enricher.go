package catalog

import (
	"context"
	"errors"

	"github.com/fjod/go_crafts/internal/domain"
	"golang.org/x/sync/errgroup"
)

// FetchFunc loads one related entity. found=false marks an absent entity and is not an error.
type FetchFunc[K comparable, V any] func(ctx context.Context, key K) (value V, found bool, err error)

// FromGetter adapts a store getter so that domain.ErrNotFound becomes found=false.
func FromGetter[K comparable, V any](get func(ctx context.Context, key K) (V, error)) FetchFunc[K, V] {
	return func(ctx context.Context, key K) (V, bool, error) {
		v, err := get(ctx, key)
		if errors.Is(err, domain.ErrNotFound) {
			var zero V
			return zero, false, nil
		}
		if err != nil {
			var zero V
			return zero, false, err
		}
		return v, true, nil
	}
}

// Enricher performs batched lookups of related entities: every distinct key is fetched exactly
// once per call, concurrently, with at most limit fetches in flight.
type Enricher[K comparable, V any] struct {
	fetch FetchFunc[K, V]
	limit int
}

func NewEnricher[K comparable, V any](fetch FetchFunc[K, V], limit int) *Enricher[K, V] {
	return &Enricher[K, V]{fetch: fetch, limit: limit}
}

// Lookup fetches the distinct keys and returns the entities that were found. Absent entities are
// missing from the map; any other fetch error fails the whole lookup.
func (e *Enricher[K, V]) Lookup(ctx context.Context, keys []K) (map[K]V, error) {
	distinct := dedupe(keys)
	if len(distinct) == 0 {
		return map[K]V{}, nil
	}

	values := make([]V, len(distinct))
	found := make([]bool, len(distinct))

	g, gctx := errgroup.WithContext(ctx)
	if e.limit > 0 {
		g.SetLimit(e.limit)
	}
	for i, key := range distinct {
		g.Go(func() error {
			v, ok, err := e.fetch(gctx, key)
			if err != nil {
				return err
			}
			values[i], found[i] = v, ok
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	lookup := make(map[K]V, len(distinct))
	for i, key := range distinct {
		if found[i] {
			lookup[key] = values[i]
		}
	}
	return lookup, nil
}

// Enrich extracts the foreign key of every record, skipping records without one, and looks the
// distinct keys up in one batch.
func Enrich[R any, K comparable, V any](ctx context.Context, e *Enricher[K, V], records []R, key func(R) (K, bool)) (map[K]V, error) {
	return e.Lookup(ctx, DistinctKeys(records, key))
}

// DistinctKeys returns the keys referenced by records in first-seen order.
func DistinctKeys[R any, K comparable](records []R, key func(R) (K, bool)) []K {
	keys := make([]K, 0, len(records))
	for _, r := range records {
		if k, ok := key(r); ok {
			keys = append(keys, k)
		}
	}
	return dedupe(keys)
}

func dedupe[K comparable](keys []K) []K {
	seen := make(map[K]struct{}, len(keys))
	out := make([]K, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
