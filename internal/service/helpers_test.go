package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/fjod/go_crafts/internal/domain"
	"github.com/fjod/go_crafts/internal/logger"
	"github.com/fjod/go_crafts/internal/store"
	"github.com/stretchr/testify/require"
)

var testLog = logger.Discard()

func seedCatalog(t *testing.T) *store.MemoryStore {
	t.Helper()
	s := store.NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.InsertArtisan(ctx, &domain.Artisan{ID: "a1", Name: "Rina Clay", Slug: "rina-clay", UserID: "seller-1"}))
	require.NoError(t, s.InsertArtisan(ctx, &domain.Artisan{ID: "a2", Name: "Silver Nook", Slug: "silver-nook", UserID: "seller-2"}))
	for _, p := range []*domain.Product{
		{ID: "vase", Name: "Terracotta Vase", ArtisanID: "a1", Price: 40, Stock: 5},
		{ID: "bowl", Name: "Tea Bowl", ArtisanID: "a1", Price: 15.5, Stock: 10},
		{ID: "ring", Name: "Silver Ring", ArtisanID: "a2", Price: 120, Stock: 1},
	} {
		require.NoError(t, s.InsertProduct(ctx, p))
	}
	return s
}

type recordedEvent struct {
	kind  string
	order domain.Order
	from  domain.OrderStatus
}

type fakeEvents struct {
	mu     sync.Mutex
	events []recordedEvent
	err    error
}

func (f *fakeEvents) OrderCreated(_ context.Context, order *domain.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, recordedEvent{kind: "created", order: *order})
	return f.err
}

func (f *fakeEvents) OrderStatusChanged(_ context.Context, order *domain.Order, from domain.OrderStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, recordedEvent{kind: "status", order: *order, from: from})
	return f.err
}

// interleavingStore runs a competing write right before the first n cart saves.
type interleavingStore struct {
	*store.MemoryStore
	n       int
	compete func(ctx context.Context, s *store.MemoryStore)
	saves   int
}

func (s *interleavingStore) SaveCart(ctx context.Context, cart *domain.Cart, expected int64) error {
	s.saves++
	if s.saves <= s.n {
		s.compete(ctx, s.MemoryStore)
	}
	return s.MemoryStore.SaveCart(ctx, cart, expected)
}

// staleSlugStore never sees existing slugs, so only the unique index catches collisions.
type staleSlugStore struct {
	*store.MemoryStore
}

func (staleSlugStore) GetArtisanBySlug(context.Context, string) (*domain.Artisan, error) {
	return nil, domain.ErrNotFound
}

var errBoom = errors.New("boom")
