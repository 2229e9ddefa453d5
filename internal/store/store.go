// Package store defines the document store contract the catalog engine and the
// services depend on, plus an in-memory implementation.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/fjod/go_crafts/internal/domain"
)

// ErrDuplicateKey is returned when an insert violates a unique index (artisan slug, owner).
var ErrDuplicateKey = errors.New("duplicate key")

// Index names a secondary index of the products collection.
type Index string

const (
	// IndexNone scans the whole collection.
	IndexNone Index = ""
	// IndexCategoryPrice orders products by price within one category.
	IndexCategoryPrice Index = "by_category_price"
	// IndexArtisanPrice orders products by price within one artisan.
	IndexArtisanPrice Index = "by_artisan_price"
	IndexPrice        Index = "by_price"
	IndexTrending     Index = "by_trending"
	// IndexNameText is the full-text index on the product name.
	IndexNameText Index = "name_text"
)

// PriceRange bounds a scan on the price field. Nil bounds are open.
type PriceRange struct {
	Low  *float64
	High *float64
}

func (r PriceRange) IsZero() bool {
	return r.Low == nil && r.High == nil
}

func (r PriceRange) Contains(price float64) bool {
	if r.Low != nil && price < *r.Low {
		return false
	}
	if r.High != nil && price > *r.High {
		return false
	}
	return true
}

// Scan describes one index scan over the products collection.
type Scan struct {
	Index Index
	// Key is the equality value on the leading index field (category or artisan id).
	Key   string
	Range PriceRange
	// Text and Limit are used by full-text scans only.
	Text  string
	Limit int
}

func (s Scan) IsFullText() bool {
	return s.Index == IndexNameText
}

type ProductStore interface {
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	// ScanProducts runs an equality/range scan on one of the product indexes.
	ScanProducts(ctx context.Context, scan Scan) ([]*domain.Product, error)
	// SearchProducts runs a full-text match on the product name, returning at most limit products.
	SearchProducts(ctx context.Context, text string, limit int) ([]*domain.Product, error)
	InsertProduct(ctx context.Context, product *domain.Product) error
	UpdateProduct(ctx context.Context, product *domain.Product) error
	DeleteProduct(ctx context.Context, id string) error
}

type ArtisanStore interface {
	GetArtisan(ctx context.Context, id string) (*domain.Artisan, error)
	GetArtisanBySlug(ctx context.Context, slug string) (*domain.Artisan, error)
	GetArtisanByUser(ctx context.Context, userID string) (*domain.Artisan, error)
	ListFeaturedArtisans(ctx context.Context) ([]*domain.Artisan, error)
	// InsertArtisan fails with ErrDuplicateKey when the slug is taken.
	InsertArtisan(ctx context.Context, artisan *domain.Artisan) error
	UpdateArtisan(ctx context.Context, artisan *domain.Artisan) error
}

type CartStore interface {
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)
	// SaveCart writes the cart only if the stored version still equals expectedVersion
	// (0 meaning "no cart yet") and bumps the version. A mismatch yields domain.ErrConflict.
	SaveCart(ctx context.Context, cart *domain.Cart, expectedVersion int64) error
	DeleteCart(ctx context.Context, userID string) error
	// DeleteCartVersion deletes the cart only if it is still at version, failing with
	// domain.ErrConflict when it was written since.
	DeleteCartVersion(ctx context.Context, userID string, version int64) error
	// DeleteCartUpdatedBefore deletes the cart only if its last write is not after t. A newer cart
	// is left alone and reported as domain.ErrNotFound.
	DeleteCartUpdatedBefore(ctx context.Context, userID string, t time.Time) error
}

type WishlistStore interface {
	GetWishlist(ctx context.Context, userID string) (*domain.Wishlist, error)
	// AddWishlistItem and RemoveWishlistItem are atomic set operations.
	AddWishlistItem(ctx context.Context, userID, productID string) error
	RemoveWishlistItem(ctx context.Context, userID, productID string) error
}

type OrderStore interface {
	InsertOrder(ctx context.Context, order *domain.Order) error
	GetOrder(ctx context.Context, id string) (*domain.Order, error)
	ListOrders(ctx context.Context) ([]*domain.Order, error)
	ListOrdersByBuyer(ctx context.Context, buyerID string) ([]*domain.Order, error)
	// UpdateOrderStatus moves the order from one status to the next, failing with
	// domain.ErrConflict if the stored status is no longer from.
	UpdateOrderStatus(ctx context.Context, id string, from, to domain.OrderStatus) error
}

type UserStore interface {
	GetUser(ctx context.Context, id string) (*domain.User, error)
}

// Store is the full document store used by the service.
type Store interface {
	ProductStore
	ArtisanStore
	CartStore
	WishlistStore
	OrderStore
	UserStore

	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
