package domain

import "time"

const MaxLineQuantity = 99

type Cart struct {
	UserID string     `bson:"_id" json:"user_id"`
	Items  []CartItem `bson:"items" json:"items"`
	// Version is bumped on every write and used as a compare-and-swap guard.
	Version   int64     `bson:"version" json:"version"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

type CartItem struct {
	ProductID string    `bson:"product_id" json:"product_id"`
	Quantity  int       `bson:"quantity" json:"quantity"`
	AddedAt   time.Time `bson:"added_at" json:"added_at"`
}

// Add merges quantity into an existing line for the product or appends a new one.
func (c *Cart) Add(productID string, quantity int, now time.Time) {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity += quantity
			return
		}
	}
	c.Items = append(c.Items, CartItem{ProductID: productID, Quantity: quantity, AddedAt: now})
}

// Set overwrites the quantity of an existing line. It reports false when the product is not in the cart.
func (c *Cart) Set(productID string, quantity int) bool {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity = quantity
			return true
		}
	}
	return false
}

func (c *Cart) Remove(productID string) bool {
	for i, item := range c.Items {
		if item.ProductID == productID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return true
		}
	}
	return false
}

func (c *Cart) Quantity(productID string) int {
	for _, item := range c.Items {
		if item.ProductID == productID {
			return item.Quantity
		}
	}
	return 0
}

type Wishlist struct {
	UserID     string    `bson:"_id" json:"user_id"`
	ProductIDs []string  `bson:"product_ids" json:"product_ids"`
	UpdatedAt  time.Time `bson:"updated_at" json:"updated_at"`
}

func (w *Wishlist) Contains(productID string) bool {
	for _, id := range w.ProductIDs {
		if id == productID {
			return true
		}
	}
	return false
}

type User struct {
	ID          string `bson:"_id" json:"id"`
	DisplayName string `bson:"display_name" json:"display_name"`
	Email       string `bson:"email,omitempty" json:"email,omitempty"`
}
