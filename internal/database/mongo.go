package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

const (
	ProductsCollection      = "products"
	CategoriesCollection    = "categories"
	TagsCollection          = "tags"
	ReviewsCollection       = "reviews"
	OrdersCollection        = "orders"
	CartItemsCollection     = "cart_items"
	WishlistCollection      = "wishlist_items"
	UsersCollection         = "users"
	ProfilesCollection      = "profiles"
	RefreshTokensCollection = "refresh_tokens"
)

// Connect opens a client with the decimal-aware registry and pings the
// primary. Transactions require the server to run as a replica set.
func Connect(ctx context.Context, uri, dbName string, log *zap.Logger) (*mongo.Client, *mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	opts := options.Client().
		ApplyURI(uri).
		SetRegistry(NewRegistry()).
		SetServerSelectionTimeout(5 * time.Second)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}

	log.Info("mongo connected", zap.String("db", dbName))
	return client, client.Database(dbName), nil
}

// Ping is used by the liveness probe.
func Ping(ctx context.Context, db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return db.Client().Ping(ctx, readpref.Primary())
}
