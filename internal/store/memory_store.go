package store

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fjod/go_crafts/internal/domain"
)

// MemoryStore implements Store with in-memory maps. It honours the same index
// semantics and unique constraints as the MongoDB store and is used for local runs and tests.
type MemoryStore struct {
	mu sync.RWMutex

	products     map[string]*domain.Product
	productOrder []string // insertion order, the natural order of a full scan
	artisans     map[string]*domain.Artisan
	carts        map[string]*domain.Cart
	wishlists    map[string]*domain.Wishlist
	orders       map[string]*domain.Order
	orderSeq     []string
	users        map[string]*domain.User
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		products:  make(map[string]*domain.Product),
		artisans:  make(map[string]*domain.Artisan),
		carts:     make(map[string]*domain.Cart),
		wishlists: make(map[string]*domain.Wishlist),
		orders:    make(map[string]*domain.Order),
		users:     make(map[string]*domain.User),
	}
}

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) Ping(context.Context) error  { return nil }
func (s *MemoryStore) Close(context.Context) error { return nil }

// GetProduct returns a copy of the stored product.
func (s *MemoryStore) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneProduct(p), nil
}

func (s *MemoryStore) ScanProducts(ctx context.Context, scan Scan) ([]*domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if scan.IsFullText() {
		return s.SearchProducts(ctx, scan.Text, scan.Limit)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Product, 0)
	for _, id := range s.productOrder {
		p := s.products[id]
		if !matchesScan(p, scan) {
			continue
		}
		result = append(result, cloneProduct(p))
	}

	// Indexed scans come back in index order: price ascending.
	if scan.Index != IndexNone {
		slices.SortStableFunc(result, func(a, b *domain.Product) int {
			return cmp.Compare(a.Price, b.Price)
		})
	}
	if scan.Limit > 0 && len(result) > scan.Limit {
		result = result[:scan.Limit]
	}
	return result, nil
}

func matchesScan(p *domain.Product, scan Scan) bool {
	switch scan.Index {
	case IndexCategoryPrice:
		if p.Category != scan.Key {
			return false
		}
	case IndexArtisanPrice:
		if p.ArtisanID != scan.Key {
			return false
		}
	case IndexTrending:
		if !p.Trending {
			return false
		}
	}
	return scan.Range.Contains(p.Price)
}

// SearchProducts matches text case-insensitively against product names.
func (s *MemoryStore) SearchProducts(ctx context.Context, text string, limit int) ([]*domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(strings.TrimSpace(text))
	result := make([]*domain.Product, 0)
	if needle == "" {
		return result, nil
	}
	for _, id := range s.productOrder {
		p := s.products[id]
		if !strings.Contains(strings.ToLower(p.Name), needle) {
			continue
		}
		result = append(result, cloneProduct(p))
		if limit > 0 && len(result) == limit {
			break
		}
	}
	return result, nil
}

func (s *MemoryStore) InsertProduct(ctx context.Context, product *domain.Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[product.ID]; exists {
		return ErrDuplicateKey
	}
	s.products[product.ID] = cloneProduct(product)
	s.productOrder = append(s.productOrder, product.ID)
	return nil
}

func (s *MemoryStore) UpdateProduct(ctx context.Context, product *domain.Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[product.ID]; !exists {
		return domain.ErrNotFound
	}
	s.products[product.ID] = cloneProduct(product)
	return nil
}

func (s *MemoryStore) DeleteProduct(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[id]; !exists {
		return domain.ErrNotFound
	}
	delete(s.products, id)
	s.productOrder = slices.DeleteFunc(s.productOrder, func(existing string) bool { return existing == id })
	return nil
}

func (s *MemoryStore) GetArtisan(ctx context.Context, id string) (*domain.Artisan, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.artisans[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneArtisan(a), nil
}

func (s *MemoryStore) GetArtisanBySlug(ctx context.Context, slug string) (*domain.Artisan, error) {
	return s.findArtisan(ctx, func(a *domain.Artisan) bool { return a.Slug == slug })
}

func (s *MemoryStore) GetArtisanByUser(ctx context.Context, userID string) (*domain.Artisan, error) {
	if userID == "" {
		return nil, domain.ErrNotFound
	}
	return s.findArtisan(ctx, func(a *domain.Artisan) bool { return a.UserID == userID })
}

func (s *MemoryStore) findArtisan(ctx context.Context, match func(*domain.Artisan) bool) (*domain.Artisan, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, a := range s.artisans {
		if match(a) {
			return cloneArtisan(a), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *MemoryStore) ListFeaturedArtisans(ctx context.Context) ([]*domain.Artisan, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Artisan, 0)
	for _, a := range s.artisans {
		if a.Featured {
			result = append(result, cloneArtisan(a))
		}
	}
	slices.SortFunc(result, func(a, b *domain.Artisan) int { return cmp.Compare(a.Name, b.Name) })
	return result, nil
}

// InsertArtisan enforces the unique slug and owner constraints of the artisans collection.
func (s *MemoryStore) InsertArtisan(ctx context.Context, artisan *domain.Artisan) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.artisans[artisan.ID]; exists {
		return ErrDuplicateKey
	}
	for _, a := range s.artisans {
		if a.Slug == artisan.Slug || (artisan.UserID != "" && a.UserID == artisan.UserID) {
			return ErrDuplicateKey
		}
	}
	s.artisans[artisan.ID] = cloneArtisan(artisan)
	return nil
}

func (s *MemoryStore) UpdateArtisan(ctx context.Context, artisan *domain.Artisan) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.artisans[artisan.ID]; !exists {
		return domain.ErrNotFound
	}
	s.artisans[artisan.ID] = cloneArtisan(artisan)
	return nil
}

func (s *MemoryStore) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.carts[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneCart(c), nil
}

func (s *MemoryStore) SaveCart(ctx context.Context, cart *domain.Cart, expectedVersion int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var current int64
	if existing, ok := s.carts[cart.UserID]; ok {
		current = existing.Version
	}
	if current != expectedVersion {
		return domain.ErrConflict
	}

	now := time.Now()
	stored := cloneCart(cart)
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now
	stored.Version = expectedVersion + 1
	s.carts[cart.UserID] = stored
	cart.Version = stored.Version
	return nil
}

func (s *MemoryStore) DeleteCart(ctx context.Context, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.carts[userID]; !ok {
		return domain.ErrNotFound
	}
	delete(s.carts, userID)
	return nil
}

func (s *MemoryStore) DeleteCartVersion(ctx context.Context, userID string, version int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.carts[userID]
	if !ok {
		return domain.ErrNotFound
	}
	if c.Version != version {
		return domain.ErrConflict
	}
	delete(s.carts, userID)
	return nil
}

func (s *MemoryStore) DeleteCartUpdatedBefore(ctx context.Context, userID string, t time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.carts[userID]
	if !ok || c.UpdatedAt.After(t) {
		return domain.ErrNotFound
	}
	delete(s.carts, userID)
	return nil
}

func (s *MemoryStore) GetWishlist(ctx context.Context, userID string) (*domain.Wishlist, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, ok := s.wishlists[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &domain.Wishlist{
		UserID:     w.UserID,
		ProductIDs: slices.Clone(w.ProductIDs),
		UpdatedAt:  w.UpdatedAt,
	}, nil
}

func (s *MemoryStore) AddWishlistItem(ctx context.Context, userID, productID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.wishlists[userID]
	if !ok {
		w = &domain.Wishlist{UserID: userID}
		s.wishlists[userID] = w
	}
	if !w.Contains(productID) {
		w.ProductIDs = append(w.ProductIDs, productID)
	}
	w.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) RemoveWishlistItem(ctx context.Context, userID, productID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.wishlists[userID]
	if !ok {
		return nil
	}
	w.ProductIDs = slices.DeleteFunc(w.ProductIDs, func(id string) bool { return id == productID })
	w.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) InsertOrder(ctx context.Context, order *domain.Order) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.orders[order.ID]; exists {
		return ErrDuplicateKey
	}
	s.orders[order.ID] = cloneOrder(order)
	s.orderSeq = append(s.orderSeq, order.ID)
	return nil
}

func (s *MemoryStore) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneOrder(o), nil
}

func (s *MemoryStore) ListOrders(ctx context.Context) ([]*domain.Order, error) {
	return s.listOrders(ctx, func(*domain.Order) bool { return true })
}

func (s *MemoryStore) ListOrdersByBuyer(ctx context.Context, buyerID string) ([]*domain.Order, error) {
	return s.listOrders(ctx, func(o *domain.Order) bool { return o.BuyerID == buyerID })
}

// listOrders returns matching orders newest first.
func (s *MemoryStore) listOrders(ctx context.Context, match func(*domain.Order) bool) ([]*domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Order, 0)
	for i := len(s.orderSeq) - 1; i >= 0; i-- {
		o := s.orders[s.orderSeq[i]]
		if match(o) {
			result = append(result, cloneOrder(o))
		}
	}
	return result, nil
}

func (s *MemoryStore) UpdateOrderStatus(ctx context.Context, id string, from, to domain.OrderStatus) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return domain.ErrNotFound
	}
	if o.Status != from {
		return domain.ErrConflict
	}
	o.Status = to
	o.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) GetUser(ctx context.Context, id string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

// PutUser registers a buyer in the user directory.
func (s *MemoryStore) PutUser(user *domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *user
	s.users[user.ID] = &copied
}

func cloneProduct(p *domain.Product) *domain.Product {
	c := *p
	c.Materials = slices.Clone(p.Materials)
	c.Images = slices.Clone(p.Images)
	return &c
}

func cloneArtisan(a *domain.Artisan) *domain.Artisan {
	c := *a
	return &c
}

func cloneCart(cart *domain.Cart) *domain.Cart {
	c := *cart
	c.Items = slices.Clone(cart.Items)
	return &c
}

func cloneOrder(o *domain.Order) *domain.Order {
	c := *o
	c.Items = slices.Clone(o.Items)
	return &c
}
