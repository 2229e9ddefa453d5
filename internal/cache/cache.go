package cache

import (
	"context"
	"errors"

	"github.com/fjod/go_crafts/internal/domain"
)

// ArtisanCache holds artisan documents read on every catalog listing.
type ArtisanCache interface {
	Get(ctx context.Context, artisanID string) (*domain.Artisan, error)
	Set(ctx context.Context, artisan *domain.Artisan) error
	Delete(ctx context.Context, artisanID string) error
}

var ErrCacheMiss = errors.New("cache miss")
