package database

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/AmrIbrahim41/smart-shop/internal/apperr"
	"github.com/AmrIbrahim41/smart-shop/internal/models"
)

type CartRepository struct {
	coll *mongo.Collection
}

func NewCartRepository(db *mongo.Database) *CartRepository {
	return &CartRepository{coll: db.Collection(CartItemsCollection)}
}

func (r *CartRepository) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.CartItem, error) {
	cur, err := r.coll.Find(ctx, bson.M{"userId": userID}, options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, internal(err)
	}
	defer cur.Close(ctx)
	return decodeAll[models.CartItem](ctx, cur)
}

// Upsert creates the (user, product) line or overwrites its quantity.
func (r *CartRepository) Upsert(ctx context.Context, userID, productID primitive.ObjectID, qty int, now time.Time) error {
	filter := bson.M{"userId": userID, "productId": productID}
	update := bson.M{
		"$set":         bson.M{"qty": qty},
		"$setOnInsert": bson.M{"createdAt": now},
	}
	_, err := r.coll.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if mongo.IsDuplicateKeyError(err) {
		// A concurrent add inserted the line first; the retry matches it.
		_, err = r.coll.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	}
	return internal(err)
}

// Remove reports whether a line was deleted.
func (r *CartRepository) Remove(ctx context.Context, userID, productID primitive.ObjectID) (bool, error) {
	res, err := r.coll.DeleteOne(ctx, bson.M{"userId": userID, "productId": productID})
	if err != nil {
		return false, internal(err)
	}
	return res.DeletedCount > 0, nil
}

func (r *CartRepository) Clear(ctx context.Context, userID primitive.ObjectID) error {
	_, err := r.coll.DeleteMany(ctx, bson.M{"userId": userID})
	return internal(err)
}

func (r *CartRepository) DeleteByProduct(ctx context.Context, productID primitive.ObjectID) error {
	_, err := r.coll.DeleteMany(ctx, bson.M{"productId": productID})
	return internal(err)
}

type WishlistRepository struct {
	coll *mongo.Collection
}

func NewWishlistRepository(db *mongo.Database) *WishlistRepository {
	return &WishlistRepository{coll: db.Collection(WishlistCollection)}
}

func (r *WishlistRepository) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.WishlistItem, error) {
	cur, err := r.coll.Find(ctx, bson.M{"userId": userID}, options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, internal(err)
	}
	defer cur.Close(ctx)
	return decodeAll[models.WishlistItem](ctx, cur)
}

func (r *WishlistRepository) Insert(ctx context.Context, item *models.WishlistItem) error {
	if item.ID.IsZero() {
		item.ID = primitive.NewObjectID()
	}
	_, err := r.coll.InsertOne(ctx, item)
	return duplicateOr(err, apperr.Conflict("Product already in wishlist"))
}

func (r *WishlistRepository) Remove(ctx context.Context, userID, productID primitive.ObjectID) (bool, error) {
	res, err := r.coll.DeleteOne(ctx, bson.M{"userId": userID, "productId": productID})
	if err != nil {
		return false, internal(err)
	}
	return res.DeletedCount > 0, nil
}

func (r *WishlistRepository) Clear(ctx context.Context, userID primitive.ObjectID) error {
	_, err := r.coll.DeleteMany(ctx, bson.M{"userId": userID})
	return internal(err)
}

func (r *WishlistRepository) DeleteByProduct(ctx context.Context, productID primitive.ObjectID) error {
	_, err := r.coll.DeleteMany(ctx, bson.M{"productId": productID})
	return internal(err)
}
