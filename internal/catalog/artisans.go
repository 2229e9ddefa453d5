package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/fjod/go_crafts/internal/cache"
	"github.com/fjod/go_crafts/internal/domain"
	"github.com/fjod/go_crafts/internal/logger"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

type artisanGetter interface {
	GetArtisan(ctx context.Context, id string) (*domain.Artisan, error)
}

// artisanLoadTimeout bounds a shared artisan read, which outlives the caller that started it.
const artisanLoadTimeout = 5 * time.Second

// artisanLoader reads artisans through an optional cache. Concurrent misses for the same artisan
// share one store read; it runs detached from the caller that started it, and each caller stops
// waiting on its own context.
type artisanLoader struct {
	store artisanGetter
	cache cache.ArtisanCache
	log   logrus.FieldLogger
	sfg   singleflight.Group
}

func (l *artisanLoader) load(ctx context.Context, id string) (*domain.Artisan, bool, error) {
	ch := l.sfg.DoChan(id, func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), artisanLoadTimeout)
		defer cancel()

		if l.cache != nil {
			artisan, err := l.cache.Get(ctx, id)
			if err == nil {
				return artisan, nil
			}
			if !errors.Is(err, cache.ErrCacheMiss) {
				logger.WithContext(ctx, l.log).WithError(err).Warn("artisan cache get failed")
			}
		}

		artisan, err := l.store.GetArtisan(ctx, id)
		if err != nil {
			return nil, err
		}

		if l.cache != nil {
			go func() {
				setCtx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				if err := l.cache.Set(setCtx, artisan); err != nil {
					l.log.WithError(err).Warn("artisan cache set failed")
				}
			}()
		}
		return artisan, nil
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case res = <-ch:
	}
	v, err := res.Val, res.Err
	if errors.Is(err, domain.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return v.(*domain.Artisan), true, nil
}
