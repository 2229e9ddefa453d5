package catalog

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fjod/go_crafts/internal/domain"
	"github.com/fjod/go_crafts/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gatedArtisans blocks every read until released or until the read's context ends.
type gatedArtisans struct {
	calls   atomic.Int32
	entered chan struct{}
	release chan struct{}
}

func (g *gatedArtisans) GetArtisan(ctx context.Context, id string) (*domain.Artisan, error) {
	if g.calls.Add(1) == 1 {
		close(g.entered)
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-g.release:
		return &domain.Artisan{ID: id, Name: "Rina Clay"}, nil
	}
}

type loadResult struct {
	artisan *domain.Artisan
	err     error
}

func TestArtisanLoader_CancelledCallerDoesNotFailOthers(t *testing.T) {
	getter := &gatedArtisans{entered: make(chan struct{}), release: make(chan struct{})}
	loader := &artisanLoader{store: getter, log: logger.Discard()}

	ctxA, cancelA := context.WithCancel(context.Background())
	resA := make(chan loadResult, 1)
	go func() {
		a, _, err := loader.load(ctxA, "a1")
		resA <- loadResult{a, err}
	}()
	<-getter.entered

	resB := make(chan loadResult, 1)
	go func() {
		a, _, err := loader.load(context.Background(), "a1")
		resB <- loadResult{a, err}
	}()
	time.Sleep(50 * time.Millisecond)

	cancelA()
	a := <-resA
	assert.ErrorIs(t, a.err, context.Canceled)

	close(getter.release)
	b := <-resB
	require.NoError(t, b.err)
	assert.Equal(t, "a1", b.artisan.ID)
	assert.Equal(t, int32(1), getter.calls.Load(), "both callers share one read")
}

func TestArtisanLoader_NotFoundIsAbsent(t *testing.T) {
	s := newCountingStore()
	loader := &artisanLoader{store: s, log: logger.Discard()}

	a, ok, err := loader.load(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, a)
}
