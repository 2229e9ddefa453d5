package catalog

import (
	"context"
	"fmt"

	"github.com/fjod/go_crafts/internal/domain"
	"go.opentelemetry.io/otel/attribute"
)

// ArtisanOrderView lists, newest first, the orders containing at least one line sold by the
// artisan. Each order carries only that artisan's lines with their current product images and
// the buyer's display name. Referenced products and buyers are each fetched once.
func (e *Engine) ArtisanOrderView(ctx context.Context, artisanID string) (_ []EnrichedOrder, err error) {
	if artisanID == "" {
		return nil, domain.ErrForbidden
	}
	ctx, span := e.startSpan(ctx, "ArtisanOrderView", attribute.String("artisan.id", artisanID))
	defer func() { endSpan(span, err) }()

	orders, err := e.store.ListOrders(ctx)
	if err != nil {
		return nil, err
	}

	// Lines without an artisan snapshot are attributed through the live product.
	candidates := make([]string, 0)
	for _, o := range orders {
		for _, item := range o.Items {
			if item.ArtisanID == artisanID || item.ArtisanID == "" {
				candidates = append(candidates, item.ProductID)
			}
		}
	}
	products, err := e.fetchProducts(ctx, candidates)
	if err != nil {
		return nil, err
	}

	owned := func(item domain.OrderItem) bool {
		return item.SoldBy(artisanID, products[item.ProductID])
	}

	kept := make([]*domain.Order, 0)
	lines := make(map[string][]domain.OrderItem)
	for _, o := range orders {
		for _, item := range o.Items {
			if owned(item) {
				lines[o.ID] = append(lines[o.ID], item)
			}
		}
		if len(lines[o.ID]) > 0 {
			kept = append(kept, o)
		}
	}

	buyers, err := Enrich(ctx, NewEnricher(FromGetter(e.store.GetUser), e.concurrency), kept,
		func(o *domain.Order) (string, bool) { return o.BuyerID, o.BuyerID != "" })
	if err != nil {
		return nil, fmt.Errorf("fetch buyers: %w", err)
	}

	urls, err := e.images.resolve(ctx, productImageRefs(products))
	if err != nil {
		return nil, fmt.Errorf("resolve images: %w", err)
	}

	out := make([]EnrichedOrder, 0, len(kept))
	for _, o := range kept {
		view := enrichOrder(o, lines[o.ID], products, urls)
		if u, ok := buyers[o.BuyerID]; ok {
			view.BuyerName = u.DisplayName
		}
		out = append(out, view)
	}
	sortOrdersNewestFirst(out)
	return out, nil
}

// BuyerOrders lists the user's own orders, newest first, with current product images.
func (e *Engine) BuyerOrders(ctx context.Context, userID string) (_ []EnrichedOrder, err error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	ctx, span := e.startSpan(ctx, "BuyerOrders")
	defer func() { endSpan(span, err) }()

	orders, err := e.store.ListOrdersByBuyer(ctx, userID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0)
	for _, o := range orders {
		for _, item := range o.Items {
			ids = append(ids, item.ProductID)
		}
	}
	products, err := e.fetchProducts(ctx, ids)
	if err != nil {
		return nil, err
	}
	urls, err := e.images.resolve(ctx, productImageRefs(products))
	if err != nil {
		return nil, fmt.Errorf("resolve images: %w", err)
	}

	out := make([]EnrichedOrder, 0, len(orders))
	for _, o := range orders {
		out = append(out, enrichOrder(o, o.Items, products, urls))
	}
	sortOrdersNewestFirst(out)
	return out, nil
}

func productImageRefs(products map[string]*domain.Product) []string {
	refs := make([]string, 0)
	for _, p := range products {
		refs = append(refs, p.Images...)
	}
	return refs
}

// enrichOrder builds the view of an order restricted to items. Prices stay the snapshot prices;
// only images come from the live product.
func enrichOrder(o *domain.Order, items []domain.OrderItem, products map[string]*domain.Product, urls imageURLs) EnrichedOrder {
	view := EnrichedOrder{
		ID:        o.ID,
		BuyerID:   o.BuyerID,
		Status:    o.Status,
		Items:     make([]OrderLine, 0, len(items)),
		Shipping:  o.Shipping,
		Total:     o.Total,
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
	for _, item := range items {
		line := OrderLine{OrderItem: item, ImageURLs: []string{}}
		if p, ok := products[item.ProductID]; ok {
			line.ImageURLs = urls.list(p.Images)
		}
		view.Items = append(view.Items, line)
	}
	if len(items) == len(o.Items) {
		view.Subtotal = o.Subtotal
	} else {
		view.Subtotal = domain.ComputeTotals(items).Subtotal
	}
	return view
}
