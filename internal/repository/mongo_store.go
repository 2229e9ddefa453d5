package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/go_crafts/internal/domain"
	"github.com/fjod/go_crafts/internal/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	productsCollection  = "products"
	artisansCollection  = "artisans"
	cartsCollection     = "carts"
	wishlistsCollection = "wishlists"
	ordersCollection    = "orders"
	usersCollection     = "users"
)

// MongoStore implements store.Store on MongoDB. Secondary indexes are created by the migrations in
// the migrations directory and referenced here by name.
type MongoStore struct {
	db        *mongo.Database
	products  *mongo.Collection
	artisans  *mongo.Collection
	carts     *mongo.Collection
	wishlists *mongo.Collection
	orders    *mongo.Collection
	users     *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		db:        db,
		products:  db.Collection(productsCollection),
		artisans:  db.Collection(artisansCollection),
		carts:     db.Collection(cartsCollection),
		wishlists: db.Collection(wishlistsCollection),
		orders:    db.Collection(ordersCollection),
		users:     db.Collection(usersCollection),
	}
}

var _ store.Store = (*MongoStore)(nil)

// storeError classifies driver errors into the domain error kinds.
func storeError(op string, err error) error {
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return domain.ErrNotFound
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("%s: %w", op, err)
	case mongo.IsNetworkError(err), mongo.IsTimeout(err), errors.Is(err, mongo.ErrClientDisconnected):
		return fmt.Errorf("%s: %w: %w", op, domain.ErrStoreUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (m *MongoStore) Ping(ctx context.Context) error {
	if err := m.db.Client().Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("ping: %w: %w", domain.ErrStoreUnavailable, err)
	}
	return nil
}

func (m *MongoStore) Close(ctx context.Context) error {
	return m.db.Client().Disconnect(ctx)
}

func (m *MongoStore) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	var product domain.Product
	if err := m.products.FindOne(ctx, bson.M{"_id": id}).Decode(&product); err != nil {
		return nil, storeError("failed to get product", err)
	}
	return &product, nil
}

func priceFilter(r store.PriceRange) bson.M {
	bounds := bson.M{}
	if r.Low != nil {
		bounds["$gte"] = *r.Low
	}
	if r.High != nil {
		bounds["$lte"] = *r.High
	}
	return bounds
}

// scanFilter builds the query for one index scan. The hint pins the planner to the named index.
func scanFilter(scan store.Scan) (bson.M, *options.FindOptions) {
	filter := bson.M{}
	opts := options.Find()

	switch scan.Index {
	case store.IndexCategoryPrice:
		filter["category"] = scan.Key
	case store.IndexArtisanPrice:
		filter["artisan_id"] = scan.Key
	case store.IndexTrending:
		filter["trending"] = true
	}
	if !scan.Range.IsZero() {
		filter["price"] = priceFilter(scan.Range)
	}
	if scan.Index != store.IndexNone {
		opts.SetHint(string(scan.Index)).SetSort(bson.D{{Key: "price", Value: 1}})
	}
	if scan.Limit > 0 {
		opts.SetLimit(int64(scan.Limit))
	}
	return filter, opts
}

func (m *MongoStore) ScanProducts(ctx context.Context, scan store.Scan) ([]*domain.Product, error) {
	if scan.IsFullText() {
		return m.SearchProducts(ctx, scan.Text, scan.Limit)
	}

	filter, opts := scanFilter(scan)
	cursor, err := m.products.Find(ctx, filter, opts)
	if err != nil {
		return nil, storeError(fmt.Sprintf("failed to scan %q", scan.Index), err)
	}

	products := make([]*domain.Product, 0)
	if err := cursor.All(ctx, &products); err != nil {
		return nil, storeError("failed to decode products", err)
	}
	return products, nil
}

func (m *MongoStore) SearchProducts(ctx context.Context, text string, limit int) ([]*domain.Product, error) {
	filter := bson.M{"$text": bson.M{"$search": text}}
	opts := options.Find().
		SetProjection(bson.M{"score": bson.M{"$meta": "textScore"}}).
		SetSort(bson.D{{Key: "score", Value: bson.M{"$meta": "textScore"}}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := m.products.Find(ctx, filter, opts)
	if err != nil {
		return nil, storeError("failed to search products", err)
	}

	products := make([]*domain.Product, 0)
	if err := cursor.All(ctx, &products); err != nil {
		return nil, storeError("failed to decode products", err)
	}
	return products, nil
}

func (m *MongoStore) InsertProduct(ctx context.Context, product *domain.Product) error {
	if _, err := m.products.InsertOne(ctx, product); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return store.ErrDuplicateKey
		}
		return storeError("failed to insert product", err)
	}
	return nil
}

func (m *MongoStore) UpdateProduct(ctx context.Context, product *domain.Product) error {
	result, err := m.products.ReplaceOne(ctx, bson.M{"_id": product.ID}, product)
	if err != nil {
		return storeError("failed to update product", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (m *MongoStore) DeleteProduct(ctx context.Context, id string) error {
	result, err := m.products.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return storeError("failed to delete product", err)
	}
	if result.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (m *MongoStore) findArtisan(ctx context.Context, filter bson.M) (*domain.Artisan, error) {
	var artisan domain.Artisan
	if err := m.artisans.FindOne(ctx, filter).Decode(&artisan); err != nil {
		return nil, storeError("failed to get artisan", err)
	}
	return &artisan, nil
}

func (m *MongoStore) GetArtisan(ctx context.Context, id string) (*domain.Artisan, error) {
	return m.findArtisan(ctx, bson.M{"_id": id})
}

func (m *MongoStore) GetArtisanBySlug(ctx context.Context, slug string) (*domain.Artisan, error) {
	return m.findArtisan(ctx, bson.M{"slug": slug})
}

func (m *MongoStore) GetArtisanByUser(ctx context.Context, userID string) (*domain.Artisan, error) {
	if userID == "" {
		return nil, domain.ErrNotFound
	}
	return m.findArtisan(ctx, bson.M{"user_id": userID})
}

func (m *MongoStore) ListFeaturedArtisans(ctx context.Context) ([]*domain.Artisan, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := m.artisans.Find(ctx, bson.M{"featured": true}, opts)
	if err != nil {
		return nil, storeError("failed to list featured artisans", err)
	}

	artisans := make([]*domain.Artisan, 0)
	if err := cursor.All(ctx, &artisans); err != nil {
		return nil, storeError("failed to decode artisans", err)
	}
	return artisans, nil
}

func (m *MongoStore) InsertArtisan(ctx context.Context, artisan *domain.Artisan) error {
	if _, err := m.artisans.InsertOne(ctx, artisan); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return store.ErrDuplicateKey
		}
		return storeError("failed to insert artisan", err)
	}
	return nil
}

func (m *MongoStore) UpdateArtisan(ctx context.Context, artisan *domain.Artisan) error {
	result, err := m.artisans.ReplaceOne(ctx, bson.M{"_id": artisan.ID}, artisan)
	if err != nil {
		return storeError("failed to update artisan", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (m *MongoStore) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	var cart domain.Cart
	if err := m.carts.FindOne(ctx, bson.M{"_id": userID}).Decode(&cart); err != nil {
		return nil, storeError("failed to get cart", err)
	}
	return &cart, nil
}

// SaveCart writes the cart guarded by its version. The first write inserts the document, so a
// concurrent first write loses on the _id unique index.
func (m *MongoStore) SaveCart(ctx context.Context, cart *domain.Cart, expectedVersion int64) error {
	now := time.Now()
	if cart.CreatedAt.IsZero() {
		cart.CreatedAt = now
	}
	cart.UpdatedAt = now
	next := expectedVersion + 1

	if expectedVersion == 0 {
		doc := *cart
		doc.Version = next
		if _, err := m.carts.InsertOne(ctx, &doc); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return domain.ErrConflict
			}
			return storeError("failed to create cart", err)
		}
		cart.Version = next
		return nil
	}

	filter := bson.M{"_id": cart.UserID, "version": expectedVersion}
	update := bson.M{"$set": bson.M{
		"items":      cart.Items,
		"version":    next,
		"updated_at": now,
	}}
	result, err := m.carts.UpdateOne(ctx, filter, update)
	if err != nil {
		return storeError("failed to save cart", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrConflict
	}
	cart.Version = next
	return nil
}

func (m *MongoStore) DeleteCart(ctx context.Context, userID string) error {
	result, err := m.carts.DeleteOne(ctx, bson.M{"_id": userID})
	if err != nil {
		return storeError("failed to delete cart", err)
	}
	if result.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (m *MongoStore) DeleteCartVersion(ctx context.Context, userID string, version int64) error {
	result, err := m.carts.DeleteOne(ctx, bson.M{"_id": userID, "version": version})
	if err != nil {
		return storeError("failed to delete cart", err)
	}
	if result.DeletedCount > 0 {
		return nil
	}
	// Nothing matched: tell a missing cart from one written since.
	if _, err := m.GetCart(ctx, userID); err != nil {
		return err
	}
	return domain.ErrConflict
}

func (m *MongoStore) DeleteCartUpdatedBefore(ctx context.Context, userID string, t time.Time) error {
	result, err := m.carts.DeleteOne(ctx, bson.M{"_id": userID, "updated_at": bson.M{"$lte": t}})
	if err != nil {
		return storeError("failed to delete cart", err)
	}
	if result.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (m *MongoStore) GetWishlist(ctx context.Context, userID string) (*domain.Wishlist, error) {
	var wishlist domain.Wishlist
	if err := m.wishlists.FindOne(ctx, bson.M{"_id": userID}).Decode(&wishlist); err != nil {
		return nil, storeError("failed to get wishlist", err)
	}
	return &wishlist, nil
}

func (m *MongoStore) AddWishlistItem(ctx context.Context, userID, productID string) error {
	update := bson.M{
		"$addToSet": bson.M{"product_ids": productID},
		"$set":      bson.M{"updated_at": time.Now()},
	}
	opts := options.Update().SetUpsert(true)
	if _, err := m.wishlists.UpdateOne(ctx, bson.M{"_id": userID}, update, opts); err != nil {
		return storeError("failed to add wishlist item", err)
	}
	return nil
}

func (m *MongoStore) RemoveWishlistItem(ctx context.Context, userID, productID string) error {
	update := bson.M{
		"$pull": bson.M{"product_ids": productID},
		"$set":  bson.M{"updated_at": time.Now()},
	}
	if _, err := m.wishlists.UpdateOne(ctx, bson.M{"_id": userID}, update); err != nil {
		return storeError("failed to remove wishlist item", err)
	}
	return nil
}

func (m *MongoStore) InsertOrder(ctx context.Context, order *domain.Order) error {
	if _, err := m.orders.InsertOne(ctx, order); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return store.ErrDuplicateKey
		}
		return storeError("failed to insert order", err)
	}
	return nil
}

func (m *MongoStore) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	var order domain.Order
	if err := m.orders.FindOne(ctx, bson.M{"_id": id}).Decode(&order); err != nil {
		return nil, storeError("failed to get order", err)
	}
	return &order, nil
}

func (m *MongoStore) findOrders(ctx context.Context, filter bson.M) ([]*domain.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := m.orders.Find(ctx, filter, opts)
	if err != nil {
		return nil, storeError("failed to list orders", err)
	}

	orders := make([]*domain.Order, 0)
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, storeError("failed to decode orders", err)
	}
	return orders, nil
}

func (m *MongoStore) ListOrders(ctx context.Context) ([]*domain.Order, error) {
	return m.findOrders(ctx, bson.M{})
}

func (m *MongoStore) ListOrdersByBuyer(ctx context.Context, buyerID string) ([]*domain.Order, error) {
	return m.findOrders(ctx, bson.M{"buyer_id": buyerID})
}

func (m *MongoStore) UpdateOrderStatus(ctx context.Context, id string, from, to domain.OrderStatus) error {
	filter := bson.M{"_id": id, "status": from}
	update := bson.M{"$set": bson.M{"status": to, "updated_at": time.Now()}}

	result, err := m.orders.UpdateOne(ctx, filter, update)
	if err != nil {
		return storeError("failed to update order status", err)
	}
	if result.MatchedCount > 0 {
		return nil
	}

	count, err := m.orders.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return storeError("failed to check order", err)
	}
	if count == 0 {
		return domain.ErrNotFound
	}
	return domain.ErrConflict
}

func (m *MongoStore) GetUser(ctx context.Context, id string) (*domain.User, error) {
	var user domain.User
	if err := m.users.FindOne(ctx, bson.M{"_id": id}).Decode(&user); err != nil {
		return nil, storeError("failed to get user", err)
	}
	return &user, nil
}
