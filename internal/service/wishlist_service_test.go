package service

import (
	"context"
	"testing"

	"github.com/fjod/go_crafts/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToggle_AddsThenRemoves(t *testing.T) {
	s := seedCatalog(t)
	svc := NewWishlistService(s)
	ctx := context.Background()

	added, err := svc.Toggle(ctx, "u1", "vase")
	require.NoError(t, err)
	assert.True(t, added)

	added, err = svc.Toggle(ctx, "u1", "ring")
	require.NoError(t, err)
	assert.True(t, added)

	// toggling a present product removes it rather than adding a duplicate
	added, err = svc.Toggle(ctx, "u1", "vase")
	require.NoError(t, err)
	assert.False(t, added)

	w, err := s.GetWishlist(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"ring"}, w.ProductIDs)
}

func TestToggle_NeverDuplicates(t *testing.T) {
	s := seedCatalog(t)
	svc := NewWishlistService(s)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := svc.Toggle(ctx, "u1", "vase")
		require.NoError(t, err)
		_, err = svc.Toggle(ctx, "u1", "bowl")
		require.NoError(t, err)
	}
	_, err := svc.Toggle(ctx, "u1", "vase")
	require.NoError(t, err)

	w, err := s.GetWishlist(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"bowl"}, w.ProductIDs)
}

func TestToggle_RemovesDeletedProduct(t *testing.T) {
	s := seedCatalog(t)
	svc := NewWishlistService(s)
	ctx := context.Background()
	_, err := svc.Toggle(ctx, "u1", "bowl")
	require.NoError(t, err)
	require.NoError(t, s.DeleteProduct(ctx, "bowl"))

	added, err := svc.Toggle(ctx, "u1", "bowl")
	require.NoError(t, err)
	assert.False(t, added)
}

func TestToggle_Errors(t *testing.T) {
	svc := NewWishlistService(seedCatalog(t))
	ctx := context.Background()

	_, err := svc.Toggle(ctx, "u1", "unknown")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Toggle(ctx, "", "vase")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = svc.Toggle(ctx, "u1", "")
	assert.ErrorIs(t, err, domain.ErrValidation)
}
