package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type collectionIndexes struct {
	collection string
	models     []mongo.IndexModel
}

// ownedBy keeps uniqueness on (x, userId) while allowing any number of
// rows whose author was deleted.
var ownedBy = bson.M{"userId": bson.M{"$type": "objectId"}}

func indexPlan() []collectionIndexes {
	return []collectionIndexes{
		{UsersCollection, []mongo.IndexModel{
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetName("email_unique").SetUnique(true)},
		}},
		{ProfilesCollection, []mongo.IndexModel{
			{Keys: bson.D{{Key: "userId", Value: 1}}, Options: options.Index().SetName("userId_unique").SetUnique(true)},
		}},
		{ProductsCollection, []mongo.IndexModel{
			{Keys: bson.D{{Key: "approvalStatus", Value: 1}, {Key: "createdAt", Value: -1}}, Options: options.Index().SetName("approval_createdAt")},
			{Keys: bson.D{{Key: "userId", Value: 1}}, Options: options.Index().SetName("userId_index")},
			{Keys: bson.D{{Key: "rating", Value: -1}}, Options: options.Index().SetName("rating_desc")},
			{Keys: bson.D{{Key: "images._id", Value: 1}}, Options: options.Index().SetName("images_id")},
		}},
		{CategoriesCollection, []mongo.IndexModel{
			{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetName("name_unique").SetUnique(true)},
		}},
		{TagsCollection, []mongo.IndexModel{
			{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetName("name_unique").SetUnique(true)},
		}},
		{ReviewsCollection, []mongo.IndexModel{
			{
				Keys: bson.D{{Key: "productId", Value: 1}, {Key: "userId", Value: 1}},
				Options: options.Index().SetName("product_user_unique").SetUnique(true).
					SetPartialFilterExpression(ownedBy),
			},
		}},
		{OrdersCollection, []mongo.IndexModel{
			{Keys: bson.D{{Key: "userId", Value: 1}}, Options: options.Index().SetName("userId_index")},
			{Keys: bson.D{{Key: "items.productId", Value: 1}}, Options: options.Index().SetName("items_productId")},
		}},
		{CartItemsCollection, []mongo.IndexModel{
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "productId", Value: 1}}, Options: options.Index().SetName("user_product_unique").SetUnique(true)},
		}},
		{WishlistCollection, []mongo.IndexModel{
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "productId", Value: 1}}, Options: options.Index().SetName("user_product_unique").SetUnique(true)},
		}},
		{RefreshTokensCollection, []mongo.IndexModel{
			{Keys: bson.D{{Key: "tokenHash", Value: 1}}, Options: options.Index().SetName("tokenHash_unique").SetUnique(true)},
			{Keys: bson.D{{Key: "userId", Value: 1}}, Options: options.Index().SetName("userId_index")},
		}},
	}
}

// EnsureIndexes creates every index the repositories rely on. The unique ones
// back the one-per-pair rules for reviews, cart lines and wishlist entries.
func EnsureIndexes(ctx context.Context, db *mongo.Database, log *zap.Logger) error {
	for _, plan := range indexPlan() {
		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		names, err := db.Collection(plan.collection).Indexes().CreateMany(ctx, plan.models)
		cancel()
		if err != nil {
			log.Error("index creation failed", zap.String("collection", plan.collection), zap.Error(err))
			return fmt.Errorf("indexes for %s: %w", plan.collection, err)
		}
		log.Debug("indexes ensured", zap.String("collection", plan.collection), zap.Strings("indexes", names))
	}
	return nil
}
