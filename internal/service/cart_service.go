package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/go_crafts/internal/domain"
	"github.com/fjod/go_crafts/internal/logger"
	"github.com/sirupsen/logrus"
)

// maxCartAttempts bounds the read-modify-write retries of one cart mutation.
const maxCartAttempts = 3

type CartStore interface {
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)
	SaveCart(ctx context.Context, cart *domain.Cart, expectedVersion int64) error
	DeleteCart(ctx context.Context, userID string) error
}

type CartService struct {
	store CartStore
	log   logrus.FieldLogger
	now   func() time.Time
}

func NewCartService(store CartStore, log logrus.FieldLogger) *CartService {
	return &CartService{store: store, log: log, now: time.Now}
}

func validQuantity(quantity int) error {
	if quantity < 1 || quantity > domain.MaxLineQuantity {
		return domain.Invalid("quantity must be between 1 and %d", domain.MaxLineQuantity)
	}
	return nil
}

// AddItem adds quantity to the product's line, creating the cart and the line when missing.
func (s *CartService) AddItem(ctx context.Context, userID, productID string, quantity int) (*domain.Cart, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	if err := validQuantity(quantity); err != nil {
		return nil, err
	}
	product, err := s.store.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	return s.mutate(ctx, userID, func(cart *domain.Cart) error {
		total := cart.Quantity(productID) + quantity
		if total > domain.MaxLineQuantity {
			return domain.Invalid("at most %d of one product per cart", domain.MaxLineQuantity)
		}
		if total > product.Stock {
			return domain.Invalid("only %d of %q in stock", product.Stock, product.Name)
		}
		cart.Add(productID, quantity, s.now())
		return nil
	})
}

func (s *CartService) UpdateQuantity(ctx context.Context, userID, productID string, quantity int) (*domain.Cart, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	if err := validQuantity(quantity); err != nil {
		return nil, err
	}
	product, err := s.store.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if quantity > product.Stock {
		return nil, domain.Invalid("only %d of %q in stock", product.Stock, product.Name)
	}

	return s.mutate(ctx, userID, func(cart *domain.Cart) error {
		if !cart.Set(productID, quantity) {
			return fmt.Errorf("product %s in cart: %w", productID, domain.ErrNotFound)
		}
		return nil
	})
}

func (s *CartService) RemoveItem(ctx context.Context, userID, productID string) (*domain.Cart, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	return s.mutate(ctx, userID, func(cart *domain.Cart) error {
		if !cart.Remove(productID) {
			return fmt.Errorf("product %s in cart: %w", productID, domain.ErrNotFound)
		}
		return nil
	})
}

// Clear deletes the cart. Clearing a cart that does not exist is not an error.
func (s *CartService) Clear(ctx context.Context, userID string) error {
	if userID == "" {
		return domain.ErrUnauthorized
	}
	if err := s.store.DeleteCart(ctx, userID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return nil
}

// mutate applies fn to the current cart and saves it guarded by the version it read. A concurrent
// writer makes the save fail with ErrConflict, in which case fn is re-applied to a fresh read.
func (s *CartService) mutate(ctx context.Context, userID string, fn func(*domain.Cart) error) (*domain.Cart, error) {
	for attempt := 1; attempt <= maxCartAttempts; attempt++ {
		cart, err := s.store.GetCart(ctx, userID)
		if errors.Is(err, domain.ErrNotFound) {
			cart = &domain.Cart{UserID: userID}
		} else if err != nil {
			return nil, err
		}

		expected := cart.Version
		if err := fn(cart); err != nil {
			return nil, err
		}

		err = s.store.SaveCart(ctx, cart, expected)
		if err == nil {
			return cart, nil
		}
		if !errors.Is(err, domain.ErrConflict) {
			return nil, err
		}
		logger.WithContext(ctx, s.log).WithFields(logrus.Fields{
			"user_id": userID,
			"attempt": attempt,
		}).Debug("cart changed concurrently, retrying")
	}
	return nil, fmt.Errorf("cart of %s still changing after %d attempts: %w", userID, maxCartAttempts, domain.ErrConflict)
}
