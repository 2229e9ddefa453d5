package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/go_crafts/internal/catalog"
	"github.com/fjod/go_crafts/internal/domain"
	"github.com/fjod/go_crafts/internal/logger"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type OrderStore interface {
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)
	SaveCart(ctx context.Context, cart *domain.Cart, expectedVersion int64) error
	DeleteCartVersion(ctx context.Context, userID string, version int64) error
	InsertOrder(ctx context.Context, order *domain.Order) error
	GetOrder(ctx context.Context, id string) (*domain.Order, error)
	UpdateOrderStatus(ctx context.Context, id string, from, to domain.OrderStatus) error
	GetArtisanByUser(ctx context.Context, userID string) (*domain.Artisan, error)
}

type EventPublisher interface {
	OrderCreated(ctx context.Context, order *domain.Order) error
	OrderStatusChanged(ctx context.Context, order *domain.Order, from domain.OrderStatus) error
}

type OrderService struct {
	store    OrderStore
	events   EventPublisher
	products *catalog.Enricher[string, *domain.Product]
	log      logrus.FieldLogger
	now      func() time.Time
}

func NewOrderService(store OrderStore, events EventPublisher, concurrency int, log logrus.FieldLogger) *OrderService {
	return &OrderService{
		store:    store,
		events:   events,
		products: catalog.NewEnricher(catalog.FromGetter(store.GetProduct), concurrency),
		log:      log,
		now:      time.Now,
	}
}

// Checkout turns the user's cart into a pending order priced at the current product prices and
// deletes the cart. Lines record name, price and seller as they are at this moment. The cart is
// claimed by deleting the version that was priced; if it changed in between, pricing starts over.
func (s *OrderService) Checkout(ctx context.Context, userID string) (*domain.Order, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	log := logger.WithContext(ctx, s.log).WithField("user_id", userID)

	for attempt := 1; attempt <= maxCartAttempts; attempt++ {
		cart, err := s.store.GetCart(ctx, userID)
		if errors.Is(err, domain.ErrNotFound) || (err == nil && len(cart.Items) == 0) {
			return nil, domain.Invalid("cart is empty")
		}
		if err != nil {
			return nil, err
		}

		order, err := s.snapshot(ctx, cart)
		if err != nil {
			return nil, err
		}

		err = s.store.DeleteCartVersion(ctx, userID, cart.Version)
		if errors.Is(err, domain.ErrConflict) {
			log.WithField("attempt", attempt).Debug("cart changed during checkout, retrying")
			continue
		}
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("cart of %s was checked out concurrently: %w", userID, domain.ErrConflict)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to claim cart: %w", err)
		}

		if err := s.store.InsertOrder(ctx, order); err != nil {
			s.restoreCart(ctx, log, cart)
			return nil, fmt.Errorf("failed to create order: %w", err)
		}
		if err := s.events.OrderCreated(ctx, order); err != nil {
			log.WithError(err).WithField("order_id", order.ID).Warn("order created event not published")
		}

		log.WithFields(logrus.Fields{"order_id": order.ID, "total": order.Total}).Info("order created")
		return order, nil
	}
	return nil, fmt.Errorf("cart of %s still changing after %d attempts: %w", userID, maxCartAttempts, domain.ErrConflict)
}

func (s *OrderService) snapshot(ctx context.Context, cart *domain.Cart) (*domain.Order, error) {
	products, err := catalog.Enrich(ctx, s.products, cart.Items,
		func(item domain.CartItem) (string, bool) { return item.ProductID, true })
	if err != nil {
		return nil, fmt.Errorf("failed to fetch cart products: %w", err)
	}

	items := make([]domain.OrderItem, 0, len(cart.Items))
	for _, line := range cart.Items {
		p, ok := products[line.ProductID]
		if !ok {
			return nil, domain.Invalid("product %s is no longer available", line.ProductID)
		}
		if p.Stock < line.Quantity {
			return nil, domain.Invalid("only %d of %q in stock", p.Stock, p.Name)
		}
		items = append(items, domain.OrderItem{
			ProductID:   p.ID,
			ArtisanID:   p.ArtisanID,
			ProductName: p.Name,
			Price:       p.Price,
			Quantity:    line.Quantity,
		})
	}

	totals := domain.ComputeTotals(items)
	now := s.now()
	return &domain.Order{
		ID:        uuid.NewString(),
		BuyerID:   cart.UserID,
		Items:     items,
		Subtotal:  totals.Subtotal,
		Shipping:  totals.Shipping,
		Total:     totals.Total,
		Status:    domain.OrderStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// soldBy applies the same line ownership as the artisan order view.
func (s *OrderService) soldBy(ctx context.Context, order *domain.Order, artisanID string) (bool, error) {
	live, err := s.products.Lookup(ctx, order.UnattributedProducts())
	if err != nil {
		return false, fmt.Errorf("failed to fetch order products: %w", err)
	}
	for _, item := range order.Items {
		if item.SoldBy(artisanID, live[item.ProductID]) {
			return true, nil
		}
	}
	return false, nil
}

// restoreCart puts back a claimed cart whose order could not be stored. A cart started in the
// meantime wins.
func (s *OrderService) restoreCart(ctx context.Context, log logrus.FieldLogger, cart *domain.Cart) {
	if err := s.store.SaveCart(context.WithoutCancel(ctx), cart, 0); err != nil {
		log.WithError(err).Error("order not created and cart not restored")
	}
}

// AdvanceStatus moves an order to next on behalf of an artisan who sold at least one of its lines.
func (s *OrderService) AdvanceStatus(ctx context.Context, userID, orderID string, next domain.OrderStatus) (*domain.Order, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	if !next.Valid() {
		return nil, domain.Invalid("unknown order status %q", next)
	}

	artisan, err := s.store.GetArtisanByUser(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("user %s has no storefront: %w", userID, domain.ErrForbidden)
	}
	if err != nil {
		return nil, err
	}

	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	sold, err := s.soldBy(ctx, order, artisan.ID)
	if err != nil {
		return nil, err
	}
	if !sold {
		return nil, fmt.Errorf("order %s has no lines of artisan %s: %w", orderID, artisan.ID, domain.ErrForbidden)
	}

	from := order.Status
	if !from.CanTransitionTo(next) {
		return nil, domain.Invalid("cannot move order from %s to %s", from, next)
	}
	if err := s.store.UpdateOrderStatus(ctx, orderID, from, next); err != nil {
		return nil, err
	}

	order.Status = next
	order.UpdatedAt = s.now()
	if err := s.events.OrderStatusChanged(ctx, order, from); err != nil {
		logger.WithContext(ctx, s.log).WithError(err).WithField("order_id", orderID).Warn("status change event not published")
	}
	return order, nil
}
