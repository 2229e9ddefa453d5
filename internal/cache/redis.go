package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/fjod/go_crafts/internal/domain"
	"github.com/redis/go-redis/v9"
)

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{
		client:  client,
		baseTTL: 15 * time.Minute,
	}
}

type RedisCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

var _ ArtisanCache = (*RedisCache)(nil)

func (r *RedisCache) Get(ctx context.Context, artisanID string) (*domain.Artisan, error) {
	key := cacheKey(artisanID)

	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var artisan domain.Artisan
	if err := json.Unmarshal(data, &artisan); err != nil {
		return nil, fmt.Errorf("unmarshal artisan failed: %w", err)
	}

	return &artisan, nil
}

// Set stores the artisan with a jittered TTL so entries written together do not expire together.
func (r *RedisCache) Set(ctx context.Context, artisan *domain.Artisan) error {
	key := cacheKey(artisan.ID)
	data, err := json.Marshal(artisan)
	if err != nil {
		return fmt.Errorf("marshal artisan failed: %w", err)
	}

	jitter := time.Duration(rand.Intn(5)) * time.Minute
	ttl := r.baseTTL + jitter
	if err := r.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisCache) Delete(ctx context.Context, artisanID string) error {
	if err := r.client.Del(ctx, cacheKey(artisanID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func cacheKey(artisanID string) string {
	return fmt.Sprintf("artisan:%s", artisanID)
}
