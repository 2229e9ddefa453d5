package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestComputeTotals_AddsShippingBelowThreshold(t *testing.T) {
	totals := ComputeTotals([]OrderItem{
		{ProductID: "p1", Price: 25.5, Quantity: 2},
		{ProductID: "p2", Price: 40, Quantity: 1},
	})

	assert.Equal(t, 91.0, totals.Subtotal)
	assert.Equal(t, 10.0, totals.Shipping)
	assert.Equal(t, 101.0, totals.Total)
}

func TestComputeTotals_FreeShippingAtThreshold(t *testing.T) {
	totals := ComputeTotals([]OrderItem{{ProductID: "p1", Price: 75, Quantity: 2}})

	assert.Equal(t, 150.0, totals.Subtotal)
	assert.Equal(t, 0.0, totals.Shipping)
	assert.Equal(t, 150.0, totals.Total)
}

func TestComputeTotals_Empty(t *testing.T) {
	assert.Equal(t, Totals{}, ComputeTotals(nil))
}

func TestComputeTotals_NoFloatDrift(t *testing.T) {
	totals := ComputeTotals([]OrderItem{{Price: 0.1, Quantity: 3}, {Price: 0.2, Quantity: 1}})
	assert.Equal(t, 0.5, totals.Subtotal)
}

func TestOrderItem_SoldBy(t *testing.T) {
	snapshot := OrderItem{ProductID: "p1", ArtisanID: "a1"}
	assert.True(t, snapshot.SoldBy("a1", nil))
	assert.False(t, snapshot.SoldBy("a2", &Product{ID: "p1", ArtisanID: "a2"}), "the snapshot wins over the live product")

	legacy := OrderItem{ProductID: "p2"}
	assert.True(t, legacy.SoldBy("a2", &Product{ID: "p2", ArtisanID: "a2"}))
	assert.False(t, legacy.SoldBy("a2", nil))

	order := &Order{Items: []OrderItem{snapshot, legacy}}
	assert.Equal(t, []string{"p2"}, order.UnattributedProducts())
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Rina's Clay Studio":     "rinas-clay-studio",
		"  Dhaka   Jamdani  ":    "dhaka-jamdani",
		"Kantha & Co.":           "kantha-co",
		"!!!":                    "artisan",
		"Nakshi Kantha 2":        "nakshi-kantha-2",
		"Already-slugged-name-":  "already-slugged-name",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slugify(in), in)
	}
}

func TestSlugCandidate(t *testing.T) {
	assert.Equal(t, "clay", SlugCandidate("clay", 1))
	assert.Equal(t, "clay-2", SlugCandidate("clay", 2))
	assert.Equal(t, "clay-10", SlugCandidate("clay", 10))
}

func TestOrderStatus_Transitions(t *testing.T) {
	assert.True(t, OrderStatusPending.CanTransitionTo(OrderStatusProcessing))
	assert.True(t, OrderStatusPending.CanTransitionTo(OrderStatusCancelled))
	assert.True(t, OrderStatusProcessing.CanTransitionTo(OrderStatusShipped))
	assert.True(t, OrderStatusShipped.CanTransitionTo(OrderStatusDelivered))

	assert.False(t, OrderStatusShipped.CanTransitionTo(OrderStatusPending))
	assert.False(t, OrderStatusShipped.CanTransitionTo(OrderStatusCancelled))
	assert.False(t, OrderStatusDelivered.CanTransitionTo(OrderStatusCancelled))
	assert.False(t, OrderStatusCancelled.CanTransitionTo(OrderStatusProcessing))
	assert.False(t, OrderStatusPending.CanTransitionTo(OrderStatusPending))
}

func TestCart_AddMergesQuantity(t *testing.T) {
	c := &Cart{UserID: "u1"}
	now := time.Now()
	c.Add("p1", 2, now)
	c.Add("p2", 1, now)
	c.Add("p1", 3, now)

	assert.Len(t, c.Items, 2)
	assert.Equal(t, 5, c.Quantity("p1"))
	assert.Equal(t, 1, c.Quantity("p2"))
}

func TestCart_SetAndRemove(t *testing.T) {
	c := &Cart{UserID: "u1"}
	c.Add("p1", 2, time.Now())

	assert.True(t, c.Set("p1", 7))
	assert.False(t, c.Set("missing", 1))
	assert.Equal(t, 7, c.Quantity("p1"))

	assert.True(t, c.Remove("p1"))
	assert.False(t, c.Remove("p1"))
	assert.Empty(t, c.Items)
}

func TestProductPatch_Apply(t *testing.T) {
	p := &Product{Name: "Bowl", Price: 20, Images: []string{"a"}}
	price := 25.0
	images := []string{"b", "c"}

	ProductPatch{Price: &price, Images: &images}.Apply(p)

	assert.Equal(t, "Bowl", p.Name)
	assert.Equal(t, 25.0, p.Price)
	assert.Equal(t, []string{"b", "c"}, p.Images)
	images[0] = "mutated"
	assert.Equal(t, "b", p.Images[0])
}

func TestProduct_Validate(t *testing.T) {
	assert.ErrorIs(t, (&Product{ArtisanID: "a"}).Validate(), ErrValidation)
	assert.ErrorIs(t, (&Product{Name: "x"}).Validate(), ErrValidation)
	assert.ErrorIs(t, (&Product{Name: "x", ArtisanID: "a", Price: -1}).Validate(), ErrValidation)
	assert.NoError(t, (&Product{Name: "x", ArtisanID: "a", Price: 1}).Validate())
}
