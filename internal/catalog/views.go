package catalog

import (
	"time"

	"github.com/fjod/go_crafts/internal/domain"
)

// ArtisanSummary is the slice of an artisan shown next to each of its products.
type ArtisanSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	Location  string `json:"location,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// EnrichedProduct is a product with resolved image URLs and its artisan.
// Artisan is nil when the owning artisan no longer exists.
type EnrichedProduct struct {
	domain.Product
	ImageURLs []string        `json:"image_urls"`
	Artisan   *ArtisanSummary `json:"artisan"`
}

type ArtisanProfile struct {
	domain.Artisan
	AvatarURL string `json:"avatar_url,omitempty"`
	CoverURL  string `json:"cover_url,omitempty"`
}

type ArtisanPage struct {
	ArtisanProfile
	Products []EnrichedProduct `json:"products"`
}

// CartLine keeps a nil Product when the product was removed from the catalog after being added.
type CartLine struct {
	ProductID string           `json:"product_id"`
	Quantity  int              `json:"quantity"`
	AddedAt   time.Time        `json:"added_at"`
	Product   *EnrichedProduct `json:"product"`
	LineTotal float64          `json:"line_total"`
}

type CartView struct {
	UserID    string     `json:"user_id"`
	Items     []CartLine `json:"items"`
	ItemCount int        `json:"item_count"`
	domain.Totals
}

type OrderLine struct {
	domain.OrderItem
	ImageURLs []string `json:"image_urls"`
}

// EnrichedOrder is an order as shown on a dashboard. For the seller view Items holds only the
// artisan's own lines and Subtotal their value; Total is always the whole order's total.
type EnrichedOrder struct {
	ID        string             `json:"id"`
	BuyerID   string             `json:"buyer_id"`
	BuyerName string             `json:"buyer_name,omitempty"`
	Status    domain.OrderStatus `json:"status"`
	Items     []OrderLine        `json:"items"`
	Subtotal  float64            `json:"subtotal"`
	Shipping  float64            `json:"shipping"`
	Total     float64            `json:"total"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}
