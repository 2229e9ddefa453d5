package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/fjod/go_crafts/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedOrders(t *testing.T, s *countingStore) {
	t.Helper()
	ctx := context.Background()
	s.PutUser(&domain.User{ID: "b1", DisplayName: "Ayesha"})

	orders := []*domain.Order{
		{
			ID: "o1", BuyerID: "b1", Status: domain.OrderStatusPending, CreatedAt: epoch.Add(time.Hour),
			Items: []domain.OrderItem{
				{ProductID: "p1", ArtisanID: "A1", ProductName: "Terracotta Vase", Price: 40, Quantity: 1},
				{ProductID: "p3", ArtisanID: "A2", ProductName: "Silver Ring", Price: 120, Quantity: 1},
			},
			Subtotal: 160, Total: 160,
		},
		{
			ID: "o2", BuyerID: "b2", Status: domain.OrderStatusShipped, CreatedAt: epoch.Add(2 * time.Hour),
			Items:    []domain.OrderItem{{ProductID: "p4", ArtisanID: "A2", ProductName: "Jamdani Scarf", Price: 65, Quantity: 1}},
			Subtotal: 65, Shipping: 10, Total: 75,
		},
		{
			// recorded before lines carried the seller
			ID: "o3", BuyerID: "b1", Status: domain.OrderStatusProcessing, CreatedAt: epoch.Add(3 * time.Hour),
			Items:    []domain.OrderItem{{ProductID: "p2", ProductName: "Tea Bowl", Price: 12, Quantity: 3}},
			Subtotal: 36, Shipping: 10, Total: 46,
		},
	}
	for _, o := range orders {
		require.NoError(t, s.InsertOrder(ctx, o))
	}
}

func TestArtisanOrderView(t *testing.T) {
	engine, s, _ := newTestEngine(t)
	seedOrders(t, s)
	ctx := context.Background()

	// later repricing must not leak into recorded orders
	p1, err := s.MemoryStore.GetProduct(ctx, "p1")
	require.NoError(t, err)
	p1.Price = 99
	require.NoError(t, s.UpdateProduct(ctx, p1))

	orders, err := engine.ArtisanOrderView(ctx, "A1")
	require.NoError(t, err)

	require.Len(t, orders, 2)
	assert.Equal(t, "o3", orders[0].ID)
	assert.Equal(t, "o1", orders[1].ID)

	o1 := orders[1]
	assert.Equal(t, "Ayesha", o1.BuyerName)
	require.Len(t, o1.Items, 1)
	assert.Equal(t, "p1", o1.Items[0].ProductID)
	assert.Equal(t, 40.0, o1.Items[0].Price)
	assert.Equal(t, 40.0, o1.Subtotal)
	assert.Equal(t, 160.0, o1.Total)
	assert.Equal(t, []string{"https://blobs.example.com/p1.jpg", "https://cdn.example.com/p1b.jpg"}, o1.Items[0].ImageURLs)

	o3 := orders[0]
	require.Len(t, o3.Items, 1)
	assert.Equal(t, 12.0, o3.Items[0].Price)
	assert.Equal(t, 36.0, o3.Subtotal)

	// p1 and p2 only: lines attributed to other artisans are never fetched
	assert.Equal(t, 2, s.Calls("GetProduct"))
	assert.Equal(t, 1, s.Calls("GetUser"))
}

func TestArtisanOrderView_NoOrders(t *testing.T) {
	engine, s, _ := newTestEngine(t)
	seedOrders(t, s)

	orders, err := engine.ArtisanOrderView(context.Background(), "A9")
	require.NoError(t, err)
	assert.Empty(t, orders)

	_, err = engine.ArtisanOrderView(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestArtisanOrderView_UnknownBuyerHasNoName(t *testing.T) {
	engine, s, _ := newTestEngine(t)
	seedOrders(t, s)

	orders, err := engine.ArtisanOrderView(context.Background(), "A2")
	require.NoError(t, err)

	require.Len(t, orders, 2)
	assert.Equal(t, "o2", orders[0].ID)
	assert.Empty(t, orders[0].BuyerName)
	assert.Equal(t, "Ayesha", orders[1].BuyerName)
	assert.Equal(t, 120.0, orders[1].Subtotal)
}

func TestBuyerOrders(t *testing.T) {
	engine, s, _ := newTestEngine(t)
	seedOrders(t, s)

	orders, err := engine.BuyerOrders(context.Background(), "b1")
	require.NoError(t, err)

	require.Len(t, orders, 2)
	assert.Equal(t, "o3", orders[0].ID)
	assert.Len(t, orders[1].Items, 2)
	assert.Equal(t, 160.0, orders[1].Subtotal)
	assert.Equal(t, []string{"https://blobs.example.com/p2.jpg"}, orders[0].Items[0].ImageURLs)

	_, err = engine.BuyerOrders(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}
