package domain

import "time"

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered},
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// CanTransitionTo reports whether the status may advance to next.
// Statuses only move forward; delivered and cancelled are final.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// OrderItem is a snapshot of a cart line taken at checkout. Later product edits do not touch it.
type OrderItem struct {
	ProductID   string  `bson:"product_id" json:"product_id"`
	ArtisanID   string  `bson:"artisan_id" json:"artisan_id"`
	ProductName string  `bson:"product_name" json:"product_name"`
	Price       float64 `bson:"price" json:"price"`
	Quantity    int     `bson:"quantity" json:"quantity"`
}

type Order struct {
	ID        string      `bson:"_id" json:"id"`
	BuyerID   string      `bson:"buyer_id" json:"buyer_id"`
	Items     []OrderItem `bson:"items" json:"items"`
	Subtotal  float64     `bson:"subtotal" json:"subtotal"`
	Shipping  float64     `bson:"shipping" json:"shipping"`
	Total     float64     `bson:"total" json:"total"`
	Status    OrderStatus `bson:"status" json:"status"`
	CreatedAt time.Time   `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time   `bson:"updated_at" json:"updated_at"`
}

// SoldBy reports whether the line belongs to the artisan. Lines stored without an artisan are
// attributed through live, the product as it is now (nil when it no longer exists).
func (i OrderItem) SoldBy(artisanID string, live *Product) bool {
	if i.ArtisanID != "" {
		return i.ArtisanID == artisanID
	}
	return live != nil && live.ArtisanID == artisanID
}

// UnattributedProducts lists the products of lines stored without an artisan.
func (o *Order) UnattributedProducts() []string {
	var ids []string
	for _, item := range o.Items {
		if item.ArtisanID == "" {
			ids = append(ids, item.ProductID)
		}
	}
	return ids
}
