package catalog

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fjod/go_crafts/internal/domain"
	"github.com/fjod/go_crafts/internal/store"
	"github.com/stretchr/testify/require"
)

// countingStore records the reads the engine issues against the memory store.
type countingStore struct {
	*store.MemoryStore

	mu       sync.Mutex
	calls    map[string]int
	failScan string
}

func newCountingStore() *countingStore {
	return &countingStore{MemoryStore: store.NewMemoryStore(), calls: make(map[string]int)}
}

func (s *countingStore) count(op string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[op]++
}

func (s *countingStore) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

func (s *countingStore) GetArtisan(ctx context.Context, id string) (*domain.Artisan, error) {
	s.count("GetArtisan")
	s.count("GetArtisan:" + id)
	return s.MemoryStore.GetArtisan(ctx, id)
}

func (s *countingStore) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	s.count("GetProduct")
	return s.MemoryStore.GetProduct(ctx, id)
}

func (s *countingStore) GetUser(ctx context.Context, id string) (*domain.User, error) {
	s.count("GetUser")
	return s.MemoryStore.GetUser(ctx, id)
}

func (s *countingStore) ScanProducts(ctx context.Context, scan store.Scan) ([]*domain.Product, error) {
	s.count("ScanProducts")
	if s.failScan != "" && scan.Key == s.failScan {
		return nil, domain.ErrStoreUnavailable
	}
	return s.MemoryStore.ScanProducts(ctx, scan)
}

type fakeBlobs struct {
	mu     sync.Mutex
	urls   map[string]string
	failed map[string]bool
	calls  map[string]int
}

func newFakeBlobs(urls map[string]string) *fakeBlobs {
	return &fakeBlobs{urls: urls, failed: map[string]bool{}, calls: map[string]int{}}
}

func (b *fakeBlobs) ResolveURL(_ context.Context, ref string) (string, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls[ref]++
	if b.failed[ref] {
		return "", false, errors.New("blob service unavailable")
	}
	url, ok := b.urls[ref]
	return url, ok, nil
}

func (b *fakeBlobs) Calls(ref string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[ref]
}

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// seedMarket stores two artisans and their products:
// A1 sells pottery, A2 sells jewelry and one vase.
func seedMarket(t *testing.T, s *countingStore) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, s.InsertArtisan(ctx, &domain.Artisan{ID: "A1", Name: "Rina Clay", Slug: "rina-clay", Location: "Dhaka", Avatar: "avatars/a1", Cover: "covers/a1", UserID: "u-a1", Featured: true}))
	require.NoError(t, s.InsertArtisan(ctx, &domain.Artisan{ID: "A2", Name: "Silver Nook", Slug: "silver-nook", Avatar: "https://cdn.example.com/a2.png", UserID: "u-a2"}))

	products := []*domain.Product{
		{ID: "p1", Name: "Terracotta Vase", Category: "Pottery", ArtisanID: "A1", Price: 40, Stock: 5, Images: []string{"img/p1", "https://cdn.example.com/p1b.jpg"}, CreatedAt: epoch.Add(1 * time.Hour)},
		{ID: "p2", Name: "Tea Bowl", Category: "Pottery", ArtisanID: "A1", Price: 15, Stock: 10, Trending: true, Images: []string{"img/p2"}, CreatedAt: epoch.Add(2 * time.Hour)},
		{ID: "p3", Name: "Silver Ring", Category: "Jewelry", ArtisanID: "A2", Price: 120, Stock: 2, Trending: true, Images: []string{"img/missing"}, CreatedAt: epoch.Add(3 * time.Hour)},
		{ID: "p4", Name: "Jamdani Scarf", Category: "Textiles", ArtisanID: "A2", Price: 65, Stock: 1, CreatedAt: epoch.Add(4 * time.Hour)},
		{ID: "p5", Name: "Glazed Vase", Category: "Pottery", ArtisanID: "A2", Price: 90, Stock: 3, Images: []string{"img/p1"}, CreatedAt: epoch.Add(5 * time.Hour)},
	}
	for _, p := range products {
		require.NoError(t, s.InsertProduct(ctx, p))
	}
}

func newTestEngine(t *testing.T) (*Engine, *countingStore, *fakeBlobs) {
	t.Helper()
	s := newCountingStore()
	seedMarket(t, s)
	blobs := newFakeBlobs(map[string]string{
		"img/p1":     "https://blobs.example.com/p1.jpg",
		"img/p2":     "https://blobs.example.com/p2.jpg",
		"avatars/a1": "https://blobs.example.com/a1.jpg",
		"covers/a1":  "https://blobs.example.com/a1-cover.jpg",
	})
	return NewEngine(s, blobs, WithConcurrency(4)), s, blobs
}

func enrichedIDs(products []EnrichedProduct) []string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.ID)
	}
	return out
}
