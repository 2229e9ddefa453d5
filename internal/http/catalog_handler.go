package http

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/fjod/go_crafts/internal/catalog"
	"github.com/fjod/go_crafts/internal/domain"
)

// Catalog is the read side used by the handlers. Consumers define this interface.
type Catalog interface {
	ListProducts(ctx context.Context, filter catalog.Filter, order catalog.SortOrder) ([]catalog.EnrichedProduct, error)
	GetProduct(ctx context.Context, id string) (*catalog.EnrichedProduct, error)
	ListByArtisan(ctx context.Context, artisanID string) ([]*domain.Product, error)
	Trending(ctx context.Context) ([]catalog.EnrichedProduct, error)
	Search(ctx context.Context, text string) ([]catalog.EnrichedProduct, error)
	ArtisanPage(ctx context.Context, slug string) (*catalog.ArtisanPage, error)
	FeaturedArtisans(ctx context.Context) ([]catalog.ArtisanProfile, error)
	WishlistView(ctx context.Context, userID string) ([]catalog.EnrichedProduct, error)
	CartView(ctx context.Context, userID string) (*catalog.CartView, error)
	ArtisanOrderView(ctx context.Context, artisanID string) ([]catalog.EnrichedOrder, error)
	BuyerOrders(ctx context.Context, userID string) ([]catalog.EnrichedOrder, error)
}

type CatalogHandler struct {
	catalog Catalog
	timeout time.Duration
	log     logrus.FieldLogger
}

func NewCatalogHandler(c Catalog, timeout time.Duration, log logrus.FieldLogger) *CatalogHandler {
	return &CatalogHandler{catalog: c, timeout: timeout, log: log}
}

type ProductsResponse struct {
	Products []catalog.EnrichedProduct `json:"products"`
}

type ArtisansResponse struct {
	Artisans []catalog.ArtisanProfile `json:"artisans"`
}

// ListProducts serves GET /products?category=&artisan=&min_price=&max_price=&q=&sort=.
// category and artisan may be repeated or comma separated.
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	filter, order, err := parseFilter(r.URL.Query())
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	products, err := h.catalog.ListProducts(ctx, filter, order)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, &ProductsResponse{Products: nonNil(products)})
}

func (h *CatalogHandler) Trending(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	products, err := h.catalog.Trending(ctx)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, &ProductsResponse{Products: nonNil(products)})
}

func (h *CatalogHandler) Search(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	products, err := h.catalog.Search(ctx, r.URL.Query().Get("q"))
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, &ProductsResponse{Products: nonNil(products)})
}

func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	product, err := h.catalog.GetProduct(ctx, chi.URLParam(r, "product_id"))
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, product)
}

func (h *CatalogHandler) FeaturedArtisans(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	artisans, err := h.catalog.FeaturedArtisans(ctx)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	if artisans == nil {
		artisans = []catalog.ArtisanProfile{}
	}
	respondJSON(w, http.StatusOK, &ArtisansResponse{Artisans: artisans})
}

func (h *CatalogHandler) ArtisanPage(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	page, err := h.catalog.ArtisanPage(ctx, chi.URLParam(r, "slug"))
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

func parseFilter(q url.Values) (catalog.Filter, catalog.SortOrder, error) {
	filter := catalog.Filter{
		Categories: splitList(q["category"]),
		ArtisanIDs: splitList(q["artisan"]),
		SearchText: q.Get("q"),
	}
	var err error
	if filter.MinPrice, err = parsePrice(q, "min_price"); err != nil {
		return catalog.Filter{}, "", err
	}
	if filter.MaxPrice, err = parsePrice(q, "max_price"); err != nil {
		return catalog.Filter{}, "", err
	}
	return filter, catalog.SortOrder(q.Get("sort")), nil
}

func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func parsePrice(q url.Values, key string) (*float64, error) {
	raw := q.Get(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, domain.Invalid("%s must be a number", key)
	}
	return &v, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
