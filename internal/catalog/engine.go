// Package catalog answers product listings and the views built on them: it plans index scans for a
// filter, merges their results and enriches every record with its related entities in batches.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/fjod/go_crafts/internal/cache"
	"github.com/fjod/go_crafts/internal/domain"
	"github.com/fjod/go_crafts/internal/logger"
	"github.com/fjod/go_crafts/internal/store"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const defaultConcurrency = 16

// Store is the read side of the document store the engine needs.
type Store interface {
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	ScanProducts(ctx context.Context, scan store.Scan) ([]*domain.Product, error)
	GetArtisan(ctx context.Context, id string) (*domain.Artisan, error)
	GetArtisanBySlug(ctx context.Context, slug string) (*domain.Artisan, error)
	ListFeaturedArtisans(ctx context.Context) ([]*domain.Artisan, error)
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)
	GetWishlist(ctx context.Context, userID string) (*domain.Wishlist, error)
	ListOrders(ctx context.Context) ([]*domain.Order, error)
	ListOrdersByBuyer(ctx context.Context, buyerID string) ([]*domain.Order, error)
	GetUser(ctx context.Context, id string) (*domain.User, error)
}

// Engine is stateless per request; it is safe for concurrent use.
type Engine struct {
	store       Store
	blobs       BlobResolver
	cache       cache.ArtisanCache
	concurrency int
	log         logrus.FieldLogger
	tracer      trace.Tracer

	artisans *artisanLoader
	images   *imageResolver
}

type Option func(*Engine)

func WithArtisanCache(c cache.ArtisanCache) Option {
	return func(e *Engine) { e.cache = c }
}

// WithConcurrency bounds the number of related-entity fetches in flight per batch.
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(e *Engine) { e.log = l }
}

func NewEngine(s Store, blobs BlobResolver, opts ...Option) *Engine {
	e := &Engine{
		store:       s,
		blobs:       blobs,
		concurrency: defaultConcurrency,
		log:         logger.Discard(),
		tracer:      otel.Tracer("github.com/fjod/go_crafts/internal/catalog"),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.artisans = &artisanLoader{store: s, cache: e.cache, log: e.log}
	e.images = newImageResolver(blobs, e.concurrency, e.log)
	return e
}

func (e *Engine) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return e.tracer.Start(ctx, "catalog."+name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// ListProducts plans the scans for the filter, runs them concurrently, merges their results and
// enriches the products. A single failing scan fails the listing.
func (e *Engine) ListProducts(ctx context.Context, filter Filter, order SortOrder) (_ []EnrichedProduct, err error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	if !order.Valid() {
		return nil, domain.Invalid("unknown sort order %q", order)
	}
	f := filter.normalize()
	scans := Plan(f)

	ctx, span := e.startSpan(ctx, "ListProducts", attribute.Int("catalog.scans", len(scans)))
	defer func() { endSpan(span, err) }()

	results := make([]ScanResult, len(scans))
	g, gctx := errgroup.WithContext(ctx)
	for i, scan := range scans {
		g.Go(func() error {
			products, err := e.store.ScanProducts(gctx, scan)
			if err != nil {
				return fmt.Errorf("scan %s %q: %w", scan.Index, scan.Key, err)
			}
			results[i] = ScanResult{Scan: scan, Products: products}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := Merge(f, results)
	span.SetAttributes(attribute.Int("catalog.results", len(merged)))

	enriched, err := e.enrichProducts(ctx, merged)
	if err != nil {
		return nil, err
	}
	SortProducts(enriched, order)
	return enriched, nil
}

// GetProduct returns domain.ErrNotFound when the product does not exist.
func (e *Engine) GetProduct(ctx context.Context, id string) (_ *EnrichedProduct, err error) {
	ctx, span := e.startSpan(ctx, "GetProduct", attribute.String("product.id", id))
	defer func() { endSpan(span, err) }()

	product, err := e.store.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	enriched, err := e.enrichProducts(ctx, []*domain.Product{product})
	if err != nil {
		return nil, err
	}
	return &enriched[0], nil
}

// ListByArtisan returns the artisan's products by price. The artisan is known to the caller, so
// nothing is enriched.
func (e *Engine) ListByArtisan(ctx context.Context, artisanID string) ([]*domain.Product, error) {
	if artisanID == "" {
		return nil, domain.Invalid("artisan id is required")
	}
	return e.store.ScanProducts(ctx, store.Scan{Index: store.IndexArtisanPrice, Key: artisanID})
}

func (e *Engine) Trending(ctx context.Context) (_ []EnrichedProduct, err error) {
	ctx, span := e.startSpan(ctx, "Trending")
	defer func() { endSpan(span, err) }()

	products, err := e.store.ScanProducts(ctx, store.Scan{Index: store.IndexTrending})
	if err != nil {
		return nil, err
	}
	return e.enrichProducts(ctx, products)
}

// Search runs a full-text match on product names and returns at most SearchLimit products.
func (e *Engine) Search(ctx context.Context, text string) ([]EnrichedProduct, error) {
	f := Filter{SearchText: text}.normalize()
	if f.SearchText == "" {
		return nil, domain.Invalid("search text must not be empty")
	}
	return e.ListProducts(ctx, f, SortNone)
}

// enrichProducts attaches artisans and resolved image URLs. Artisans are fetched once per distinct
// id, then product images and artisan avatars are resolved in a single batch.
func (e *Engine) enrichProducts(ctx context.Context, products []*domain.Product) ([]EnrichedProduct, error) {
	artisans, err := Enrich(ctx, NewEnricher(e.artisans.load, e.concurrency), products,
		func(p *domain.Product) (string, bool) { return p.ArtisanID, p.ArtisanID != "" })
	if err != nil {
		return nil, fmt.Errorf("enrich artisans: %w", err)
	}

	refs := make([]string, 0, len(products)+len(artisans))
	for _, p := range products {
		refs = append(refs, p.Images...)
	}
	for _, a := range artisans {
		refs = append(refs, a.Avatar)
	}
	urls, err := e.images.resolve(ctx, refs)
	if err != nil {
		return nil, fmt.Errorf("resolve images: %w", err)
	}

	return buildEnriched(products, func(p *domain.Product) *ArtisanSummary {
		a, ok := artisans[p.ArtisanID]
		if !ok {
			return nil
		}
		return summarize(a, urls)
	}, urls), nil
}

func buildEnriched(products []*domain.Product, artisanOf func(*domain.Product) *ArtisanSummary, urls imageURLs) []EnrichedProduct {
	out := make([]EnrichedProduct, 0, len(products))
	for _, p := range products {
		out = append(out, EnrichedProduct{
			Product:   *p,
			ImageURLs: urls.list(p.Images),
			Artisan:   artisanOf(p),
		})
	}
	return out
}

func summarize(a *domain.Artisan, urls imageURLs) *ArtisanSummary {
	return &ArtisanSummary{
		ID:        a.ID,
		Name:      a.Name,
		Slug:      a.Slug,
		Location:  a.Location,
		AvatarURL: urls.url(a.Avatar),
	}
}

// fetchProducts loads the distinct products referenced by ids, keyed by id. Missing products are
// absent from the map.
func (e *Engine) fetchProducts(ctx context.Context, ids []string) (map[string]*domain.Product, error) {
	products, err := NewEnricher(FromGetter(e.store.GetProduct), e.concurrency).Lookup(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("fetch products: %w", err)
	}
	return products, nil
}

// ArtisanPage returns the public storefront of the artisan with the given slug.
func (e *Engine) ArtisanPage(ctx context.Context, slug string) (_ *ArtisanPage, err error) {
	ctx, span := e.startSpan(ctx, "ArtisanPage", attribute.String("artisan.slug", slug))
	defer func() { endSpan(span, err) }()

	artisan, err := e.store.GetArtisanBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	products, err := e.ListByArtisan(ctx, artisan.ID)
	if err != nil {
		return nil, err
	}

	refs := []string{artisan.Avatar, artisan.Cover}
	for _, p := range products {
		refs = append(refs, p.Images...)
	}
	urls, err := e.images.resolve(ctx, refs)
	if err != nil {
		return nil, fmt.Errorf("resolve images: %w", err)
	}

	summary := summarize(artisan, urls)
	return &ArtisanPage{
		ArtisanProfile: profile(artisan, urls),
		Products:       buildEnriched(products, func(*domain.Product) *ArtisanSummary { return summary }, urls),
	}, nil
}

// FeaturedArtisans lists every artisan flagged as featured. Nothing enforces a single one.
func (e *Engine) FeaturedArtisans(ctx context.Context) ([]ArtisanProfile, error) {
	artisans, err := e.store.ListFeaturedArtisans(ctx)
	if err != nil {
		return nil, err
	}
	refs := make([]string, 0, 2*len(artisans))
	for _, a := range artisans {
		refs = append(refs, a.Avatar, a.Cover)
	}
	urls, err := e.images.resolve(ctx, refs)
	if err != nil {
		return nil, fmt.Errorf("resolve images: %w", err)
	}

	out := make([]ArtisanProfile, 0, len(artisans))
	for _, a := range artisans {
		out = append(out, profile(a, urls))
	}
	return out, nil
}

func profile(a *domain.Artisan, urls imageURLs) ArtisanProfile {
	return ArtisanProfile{Artisan: *a, AvatarURL: urls.url(a.Avatar), CoverURL: urls.url(a.Cover)}
}

// WishlistView returns the wishlisted products that still exist, in wishlist order.
func (e *Engine) WishlistView(ctx context.Context, userID string) (_ []EnrichedProduct, err error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	ctx, span := e.startSpan(ctx, "WishlistView")
	defer func() { endSpan(span, err) }()

	wishlist, err := e.store.GetWishlist(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return []EnrichedProduct{}, nil
	}
	if err != nil {
		return nil, err
	}

	byID, err := e.fetchProducts(ctx, wishlist.ProductIDs)
	if err != nil {
		return nil, err
	}
	products := make([]*domain.Product, 0, len(byID))
	for _, id := range dedupe(wishlist.ProductIDs) {
		if p, ok := byID[id]; ok {
			products = append(products, p)
		}
	}
	return e.enrichProducts(ctx, products)
}

// CartView returns the user's cart with its products and totals. A missing cart is an empty cart.
func (e *Engine) CartView(ctx context.Context, userID string) (_ *CartView, err error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	ctx, span := e.startSpan(ctx, "CartView")
	defer func() { endSpan(span, err) }()

	view := &CartView{UserID: userID, Items: []CartLine{}}
	cart, err := e.store.GetCart(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return view, nil
	}
	if err != nil {
		return nil, err
	}

	byID, err := Enrich(ctx, NewEnricher(FromGetter(e.store.GetProduct), e.concurrency), cart.Items,
		func(item domain.CartItem) (string, bool) { return item.ProductID, item.ProductID != "" })
	if err != nil {
		return nil, fmt.Errorf("fetch products: %w", err)
	}

	found := make([]*domain.Product, 0, len(byID))
	for _, id := range DistinctKeys(cart.Items, func(item domain.CartItem) (string, bool) { return item.ProductID, true }) {
		if p, ok := byID[id]; ok {
			found = append(found, p)
		}
	}
	enriched, err := e.enrichProducts(ctx, found)
	if err != nil {
		return nil, err
	}
	enrichedByID := make(map[string]*EnrichedProduct, len(enriched))
	for i := range enriched {
		enrichedByID[enriched[i].ID] = &enriched[i]
	}

	priced := make([]domain.OrderItem, 0, len(cart.Items))
	for _, item := range cart.Items {
		line := CartLine{ProductID: item.ProductID, Quantity: item.Quantity, AddedAt: item.AddedAt}
		if p, ok := enrichedByID[item.ProductID]; ok {
			line.Product = p
			line.LineTotal = domain.LineTotal(p.Price, item.Quantity).InexactFloat64()
			priced = append(priced, domain.OrderItem{ProductID: p.ID, Price: p.Price, Quantity: item.Quantity})
		}
		view.Items = append(view.Items, line)
		view.ItemCount += item.Quantity
	}
	view.Totals = domain.ComputeTotals(priced)
	return view, nil
}
