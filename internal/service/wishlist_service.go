package service

import (
	"context"
	"errors"

	"github.com/fjod/go_crafts/internal/domain"
)

type WishlistStore interface {
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	GetWishlist(ctx context.Context, userID string) (*domain.Wishlist, error)
	AddWishlistItem(ctx context.Context, userID, productID string) error
	RemoveWishlistItem(ctx context.Context, userID, productID string) error
}

type WishlistService struct {
	store WishlistStore
}

func NewWishlistService(store WishlistStore) *WishlistService {
	return &WishlistService{store: store}
}

// Toggle removes the product from the wishlist if present and adds it otherwise.
// It reports whether the product is in the wishlist afterwards.
func (s *WishlistService) Toggle(ctx context.Context, userID, productID string) (bool, error) {
	if userID == "" {
		return false, domain.ErrUnauthorized
	}
	if productID == "" {
		return false, domain.Invalid("product id is required")
	}

	wishlist, err := s.store.GetWishlist(ctx, userID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return false, err
	}
	if wishlist != nil && wishlist.Contains(productID) {
		return false, s.store.RemoveWishlistItem(ctx, userID, productID)
	}

	if _, err := s.store.GetProduct(ctx, productID); err != nil {
		return false, err
	}
	if err := s.store.AddWishlistItem(ctx, userID, productID); err != nil {
		return false, err
	}
	return true, nil
}
