package service

import (
	"context"
	"testing"

	"github.com/fjod/go_crafts/internal/domain"
	"github.com/fjod/go_crafts/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckout_SnapshotsCart(t *testing.T) {
	s := seedCatalog(t)
	events := &fakeEvents{}
	carts := NewCartService(s, testLog)
	orders := NewOrderService(s, events, 4, testLog)
	ctx := context.Background()

	_, err := carts.AddItem(ctx, "u1", "vase", 2)
	require.NoError(t, err)
	_, err = carts.AddItem(ctx, "u1", "bowl", 1)
	require.NoError(t, err)

	order, err := orders.Checkout(ctx, "u1")
	require.NoError(t, err)

	assert.NotEmpty(t, order.ID)
	assert.Equal(t, "u1", order.BuyerID)
	assert.Equal(t, domain.OrderStatusPending, order.Status)
	require.Len(t, order.Items, 2)
	assert.Equal(t, domain.OrderItem{ProductID: "vase", ArtisanID: "a1", ProductName: "Terracotta Vase", Price: 40, Quantity: 2}, order.Items[0])
	assert.Equal(t, 95.5, order.Subtotal)
	assert.Equal(t, 10.0, order.Shipping)
	assert.Equal(t, 105.5, order.Total)

	_, err = s.GetCart(ctx, "u1")
	assert.ErrorIs(t, err, domain.ErrNotFound, "cart is deleted on checkout")

	require.Len(t, events.events, 1)
	assert.Equal(t, "created", events.events[0].kind)
	assert.Equal(t, order.ID, events.events[0].order.ID)
}

func TestCheckout_PricesFrozenAtOrderTime(t *testing.T) {
	s := seedCatalog(t)
	carts := NewCartService(s, testLog)
	orders := NewOrderService(s, &fakeEvents{}, 4, testLog)
	ctx := context.Background()

	_, err := carts.AddItem(ctx, "u1", "ring", 1)
	require.NoError(t, err)
	order, err := orders.Checkout(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 130.0, order.Total)

	ring, err := s.GetProduct(ctx, "ring")
	require.NoError(t, err)
	ring.Price = 300
	require.NoError(t, s.UpdateProduct(ctx, ring))

	stored, err := s.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, 120.0, stored.Items[0].Price)
	assert.Equal(t, 130.0, stored.Total)
}

func TestCheckout_EmptyCart(t *testing.T) {
	orders := NewOrderService(seedCatalog(t), &fakeEvents{}, 4, testLog)

	_, err := orders.Checkout(context.Background(), "u1")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = orders.Checkout(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestCheckout_RejectsUnavailableProducts(t *testing.T) {
	s := seedCatalog(t)
	carts := NewCartService(s, testLog)
	orders := NewOrderService(s, &fakeEvents{}, 4, testLog)
	ctx := context.Background()

	_, err := carts.AddItem(ctx, "u1", "bowl", 3)
	require.NoError(t, err)
	require.NoError(t, s.DeleteProduct(ctx, "bowl"))

	_, err = orders.Checkout(ctx, "u1")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = carts.AddItem(ctx, "u2", "vase", 5)
	require.NoError(t, err)
	vase, err := s.GetProduct(ctx, "vase")
	require.NoError(t, err)
	vase.Stock = 1
	require.NoError(t, s.UpdateProduct(ctx, vase))

	_, err = orders.Checkout(ctx, "u2")
	assert.ErrorIs(t, err, domain.ErrValidation)

	all, err := s.ListOrders(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
	_, err = s.GetCart(ctx, "u2")
	assert.NoError(t, err, "a failed checkout keeps the cart")
}

func TestCheckout_PublishFailureDoesNotFailOrder(t *testing.T) {
	s := seedCatalog(t)
	carts := NewCartService(s, testLog)
	orders := NewOrderService(s, &fakeEvents{err: errBoom}, 4, testLog)
	ctx := context.Background()

	_, err := carts.AddItem(ctx, "u1", "vase", 1)
	require.NoError(t, err)

	order, err := orders.Checkout(ctx, "u1")
	require.NoError(t, err)

	_, err = s.GetOrder(ctx, order.ID)
	assert.NoError(t, err)
}

// checkoutRaceStore runs a competing write once, right before the cart is claimed or right
// before the order is stored.
type checkoutRaceStore struct {
	*store.MemoryStore
	beforeClaim  func(ctx context.Context, s *store.MemoryStore)
	beforeInsert func(ctx context.Context, s *store.MemoryStore)
	insertErr    error
}

func (s *checkoutRaceStore) DeleteCartVersion(ctx context.Context, userID string, version int64) error {
	if s.beforeClaim != nil {
		compete := s.beforeClaim
		s.beforeClaim = nil
		compete(ctx, s.MemoryStore)
	}
	return s.MemoryStore.DeleteCartVersion(ctx, userID, version)
}

func (s *checkoutRaceStore) InsertOrder(ctx context.Context, order *domain.Order) error {
	if s.beforeInsert != nil {
		compete := s.beforeInsert
		s.beforeInsert = nil
		compete(ctx, s.MemoryStore)
	}
	if s.insertErr != nil {
		return s.insertErr
	}
	return s.MemoryStore.InsertOrder(ctx, order)
}

func addRing(t *testing.T) func(ctx context.Context, s *store.MemoryStore) {
	return func(ctx context.Context, s *store.MemoryStore) {
		_, err := NewCartService(s, testLog).AddItem(ctx, "u1", "ring", 1)
		require.NoError(t, err)
	}
}

func orderedProducts(order *domain.Order) []string {
	ids := make([]string, 0, len(order.Items))
	for _, item := range order.Items {
		ids = append(ids, item.ProductID)
	}
	return ids
}

func TestCheckout_RepricesCartChangedBeforeClaim(t *testing.T) {
	s := &checkoutRaceStore{MemoryStore: seedCatalog(t)}
	s.beforeClaim = addRing(t)
	ctx := context.Background()
	_, err := NewCartService(s, testLog).AddItem(ctx, "u1", "vase", 1)
	require.NoError(t, err)

	order, err := NewOrderService(s, &fakeEvents{}, 4, testLog).Checkout(ctx, "u1")
	require.NoError(t, err)

	assert.Equal(t, []string{"vase", "ring"}, orderedProducts(order))
	assert.Equal(t, 160.0, order.Total)
	_, err = s.GetCart(ctx, "u1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCheckout_ItemAddedAfterClaimStaysInCart(t *testing.T) {
	s := &checkoutRaceStore{MemoryStore: seedCatalog(t)}
	s.beforeInsert = addRing(t)
	ctx := context.Background()
	_, err := NewCartService(s, testLog).AddItem(ctx, "u1", "vase", 1)
	require.NoError(t, err)

	order, err := NewOrderService(s, &fakeEvents{}, 4, testLog).Checkout(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"vase"}, orderedProducts(order))

	cart, err := s.GetCart(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "ring", cart.Items[0].ProductID)
}

func TestCheckout_FailedOrderRestoresCart(t *testing.T) {
	s := &checkoutRaceStore{MemoryStore: seedCatalog(t), insertErr: errBoom}
	ctx := context.Background()
	_, err := NewCartService(s, testLog).AddItem(ctx, "u1", "bowl", 2)
	require.NoError(t, err)

	_, err = NewOrderService(s, &fakeEvents{}, 4, testLog).Checkout(ctx, "u1")
	assert.ErrorIs(t, err, errBoom)

	cart, err := s.GetCart(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Quantity)
}

func placeOrder(t *testing.T, s interface {
	CartStore
	OrderStore
}, buyer, productID string) *domain.Order {
	t.Helper()
	ctx := context.Background()
	_, err := NewCartService(s, testLog).AddItem(ctx, buyer, productID, 1)
	require.NoError(t, err)
	order, err := NewOrderService(s, &fakeEvents{}, 4, testLog).Checkout(ctx, buyer)
	require.NoError(t, err)
	return order
}

func TestAdvanceStatus(t *testing.T) {
	s := seedCatalog(t)
	events := &fakeEvents{}
	orders := NewOrderService(s, events, 4, testLog)
	ctx := context.Background()
	order := placeOrder(t, s, "u1", "vase")

	updated, err := orders.AdvanceStatus(ctx, "seller-1", order.ID, domain.OrderStatusProcessing)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusProcessing, updated.Status)

	stored, err := s.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusProcessing, stored.Status)

	require.Len(t, events.events, 1)
	assert.Equal(t, "status", events.events[0].kind)
	assert.Equal(t, domain.OrderStatusPending, events.events[0].from)

	_, err = orders.AdvanceStatus(ctx, "seller-1", order.ID, domain.OrderStatusPending)
	assert.ErrorIs(t, err, domain.ErrValidation, "statuses never move backwards")

	_, err = orders.AdvanceStatus(ctx, "seller-1", order.ID, domain.OrderStatusDelivered)
	assert.ErrorIs(t, err, domain.ErrValidation, "shipped comes first")

	_, err = orders.AdvanceStatus(ctx, "seller-1", order.ID, "lost")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestAdvanceStatus_Authorization(t *testing.T) {
	s := seedCatalog(t)
	orders := NewOrderService(s, &fakeEvents{}, 4, testLog)
	ctx := context.Background()
	order := placeOrder(t, s, "u1", "vase")

	_, err := orders.AdvanceStatus(ctx, "seller-2", order.ID, domain.OrderStatusProcessing)
	assert.ErrorIs(t, err, domain.ErrForbidden, "artisan without lines in the order")

	_, err = orders.AdvanceStatus(ctx, "u1", order.ID, domain.OrderStatusCancelled)
	assert.ErrorIs(t, err, domain.ErrForbidden, "buyers cannot change status")

	_, err = orders.AdvanceStatus(ctx, "", order.ID, domain.OrderStatusProcessing)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = orders.AdvanceStatus(ctx, "seller-1", "missing", domain.OrderStatusProcessing)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAdvanceStatus_LinesWithoutArtisanUseLiveProduct(t *testing.T) {
	s := seedCatalog(t)
	orders := NewOrderService(s, &fakeEvents{}, 4, testLog)
	ctx := context.Background()
	require.NoError(t, s.InsertOrder(ctx, &domain.Order{
		ID:      "legacy",
		BuyerID: "u1",
		Items:   []domain.OrderItem{{ProductID: "ring", ProductName: "Silver Ring", Price: 120, Quantity: 1}},
		Status:  domain.OrderStatusPending,
	}))

	_, err := orders.AdvanceStatus(ctx, "seller-1", "legacy", domain.OrderStatusProcessing)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	updated, err := orders.AdvanceStatus(ctx, "seller-2", "legacy", domain.OrderStatusProcessing)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusProcessing, updated.Status)
}
