package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fjod/go_crafts/internal/cache"
	"github.com/fjod/go_crafts/internal/domain"
	"github.com/fjod/go_crafts/internal/logger"
	"github.com/fjod/go_crafts/internal/store"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const maxSlugAttempts = 10

type SellerStore interface {
	GetArtisanBySlug(ctx context.Context, slug string) (*domain.Artisan, error)
	GetArtisanByUser(ctx context.Context, userID string) (*domain.Artisan, error)
	InsertArtisan(ctx context.Context, artisan *domain.Artisan) error
	UpdateArtisan(ctx context.Context, artisan *domain.Artisan) error
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	InsertProduct(ctx context.Context, product *domain.Product) error
	UpdateProduct(ctx context.Context, product *domain.Product) error
	DeleteProduct(ctx context.Context, id string) error
}

// SellerService holds the artisan-scoped mutations. Every operation acts on the artisan owned by
// the calling user.
type SellerService struct {
	store SellerStore
	cache cache.ArtisanCache
	log   logrus.FieldLogger
	now   func() time.Time
}

// NewSellerService creates the service. artisanCache may be nil.
func NewSellerService(store SellerStore, artisanCache cache.ArtisanCache, log logrus.FieldLogger) *SellerService {
	return &SellerService{store: store, cache: artisanCache, log: log, now: time.Now}
}

type RegisterArtisanRequest struct {
	Name        string             `json:"name"`
	Bio         string             `json:"bio"`
	Story       string             `json:"story"`
	Location    string             `json:"location"`
	Specialty   string             `json:"specialty"`
	Avatar      string             `json:"avatar"`
	Cover       string             `json:"cover"`
	SocialLinks domain.SocialLinks `json:"social_links"`
}

// Register creates the caller's storefront. The slug is derived from the name; on collision the
// next numeric suffix is tried. The unique slug index backs the existence check up under races.
func (s *SellerService) Register(ctx context.Context, userID string, req RegisterArtisanRequest) (*domain.Artisan, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.Invalid("name must not be empty")
	}
	if err := s.ensureNoStorefront(ctx, userID); err != nil {
		return nil, err
	}

	artisan := &domain.Artisan{
		ID:          uuid.NewString(),
		Name:        name,
		Bio:         req.Bio,
		Story:       req.Story,
		Location:    req.Location,
		Specialty:   req.Specialty,
		Avatar:      req.Avatar,
		Cover:       req.Cover,
		SocialLinks: req.SocialLinks,
		UserID:      userID,
		CreatedAt:   s.now(),
	}

	base := domain.Slugify(name)
	for n := 1; n <= maxSlugAttempts; n++ {
		candidate := domain.SlugCandidate(base, n)
		_, err := s.store.GetArtisanBySlug(ctx, candidate)
		if err == nil {
			continue
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}

		artisan.Slug = candidate
		err = s.store.InsertArtisan(ctx, artisan)
		if err == nil {
			logger.WithContext(ctx, s.log).WithFields(logrus.Fields{"artisan_id": artisan.ID, "slug": candidate}).Info("artisan registered")
			return artisan, nil
		}
		if !errors.Is(err, store.ErrDuplicateKey) {
			return nil, err
		}
		// lost a race: either on the slug or on the owner
		if err := s.ensureNoStorefront(ctx, userID); err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("no free slug for %q after %d attempts: %w", base, maxSlugAttempts, domain.ErrConflict)
}

func (s *SellerService) ensureNoStorefront(ctx context.Context, userID string) error {
	_, err := s.store.GetArtisanByUser(ctx, userID)
	if err == nil {
		return fmt.Errorf("user %s already has a storefront: %w", userID, domain.ErrConflict)
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return nil
}

// CurrentArtisan returns the caller's storefront, or ErrForbidden for users who do not sell.
func (s *SellerService) CurrentArtisan(ctx context.Context, userID string) (*domain.Artisan, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	artisan, err := s.store.GetArtisanByUser(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("user %s has no storefront: %w", userID, domain.ErrForbidden)
	}
	return artisan, err
}

func (s *SellerService) UpdateProfile(ctx context.Context, userID string, patch domain.ArtisanPatch) (*domain.Artisan, error) {
	artisan, err := s.CurrentArtisan(ctx, userID)
	if err != nil {
		return nil, err
	}
	patch.Apply(artisan)
	if err := s.store.UpdateArtisan(ctx, artisan); err != nil {
		return nil, err
	}
	s.invalidate(ctx, artisan.ID)
	return artisan, nil
}

func (s *SellerService) invalidate(ctx context.Context, artisanID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, artisanID); err != nil {
		logger.WithContext(ctx, s.log).WithError(err).WithField("artisan_id", artisanID).Warn("artisan cache invalidate failed")
	}
}

// CreateProduct lists a new product under the caller's storefront. The artisan reference is always
// the caller's own.
func (s *SellerService) CreateProduct(ctx context.Context, userID string, product domain.Product) (*domain.Product, error) {
	artisan, err := s.CurrentArtisan(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	product.ID = uuid.NewString()
	product.ArtisanID = artisan.ID
	product.CreatedAt = now
	product.UpdatedAt = now
	if product.Images == nil {
		product.Images = []string{}
	}
	if err := product.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.InsertProduct(ctx, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

func (s *SellerService) UpdateProduct(ctx context.Context, userID, productID string, patch domain.ProductPatch) (*domain.Product, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	product, err := s.ownedProduct(ctx, userID, productID)
	if err != nil {
		return nil, err
	}
	patch.Apply(product)
	product.UpdatedAt = s.now()
	if err := s.store.UpdateProduct(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *SellerService) DeleteProduct(ctx context.Context, userID, productID string) error {
	if _, err := s.ownedProduct(ctx, userID, productID); err != nil {
		return err
	}
	return s.store.DeleteProduct(ctx, productID)
}

func (s *SellerService) ownedProduct(ctx context.Context, userID, productID string) (*domain.Product, error) {
	artisan, err := s.CurrentArtisan(ctx, userID)
	if err != nil {
		return nil, err
	}
	product, err := s.store.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.ArtisanID != artisan.ID {
		return nil, fmt.Errorf("product %s belongs to another artisan: %w", productID, domain.ErrForbidden)
	}
	return product, nil
}
