package database

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/AmrIbrahim41/smart-shop/internal/apperr"
	"github.com/AmrIbrahim41/smart-shop/internal/models"
)

const orderNotFound = "Order not found"

type OrderRepository struct {
	coll *mongo.Collection
}

func NewOrderRepository(db *mongo.Database) *OrderRepository {
	return &OrderRepository{coll: db.Collection(OrdersCollection)}
}

func (r *OrderRepository) Insert(ctx context.Context, o *models.Order) error {
	if o.ID.IsZero() {
		o.ID = primitive.NewObjectID()
	}
	_, err := r.coll.InsertOne(ctx, o)
	return internal(err)
}

func (r *OrderRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	var o models.Order
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&o); err != nil {
		return nil, notFoundOr(err, orderNotFound)
	}
	return &o, nil
}

func (r *OrderRepository) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	return r.find(ctx, bson.M{"userId": userID}, options.Find().SetSort(newestFirst))
}

func (r *OrderRepository) ListAll(ctx context.Context) ([]models.Order, error) {
	return r.find(ctx, bson.M{}, options.Find().SetSort(newestFirst))
}

// ListContainingProducts returns orders with at least one item referencing
// one of productIDs, newest first.
func (r *OrderRepository) ListContainingProducts(ctx context.Context, productIDs []primitive.ObjectID) ([]models.Order, error) {
	if len(productIDs) == 0 {
		return []models.Order{}, nil
	}
	return r.find(ctx, bson.M{"items.productId": bson.M{"$in": productIDs}}, options.Find().SetSort(newestFirst))
}

func (r *OrderRepository) Latest(ctx context.Context, n int) ([]models.Order, error) {
	return r.find(ctx, bson.M{}, options.Find().SetSort(newestFirst).SetLimit(int64(n)))
}

func (r *OrderRepository) MarkPaid(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	return r.set(ctx, id, bson.M{"isPaid": true, "paidAt": at})
}

func (r *OrderRepository) MarkDelivered(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	return r.set(ctx, id, bson.M{"isDelivered": true, "deliveredAt": at})
}

func (r *OrderRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return internal(err)
	}
	if res.DeletedCount == 0 {
		return apperr.NotFound(orderNotFound)
	}
	return nil
}

// DetachProduct clears the product reference of every item snapshot of a
// deleted product; the snapshot itself stays.
func (r *OrderRepository) DetachProduct(ctx context.Context, productID primitive.ObjectID) error {
	opts := options.Update().SetArrayFilters(options.ArrayFilters{
		Filters: []interface{}{bson.M{"it.productId": productID}},
	})
	_, err := r.coll.UpdateMany(ctx,
		bson.M{"items.productId": productID},
		bson.M{"$set": bson.M{"items.$[it].productId": nil}},
		opts,
	)
	return internal(err)
}

func (r *OrderRepository) DetachUser(ctx context.Context, userID primitive.ObjectID) error {
	_, err := r.coll.UpdateMany(ctx, bson.M{"userId": userID}, bson.M{"$set": bson.M{"userId": nil}})
	return internal(err)
}

func (r *OrderRepository) CountAll(ctx context.Context) (int64, error) {
	n, err := r.coll.EstimatedDocumentCount(ctx)
	return n, internal(err)
}

func (r *OrderRepository) TotalSales(ctx context.Context) (decimal.Decimal, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": nil, "sum": bson.M{"$sum": "$totalPrice"}}}},
	}
	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return decimal.Zero, internal(err)
	}
	defer cur.Close(ctx)

	var rows []struct {
		Sum decimal.Decimal `bson:"sum"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return decimal.Zero, internal(err)
	}
	if len(rows) == 0 {
		return decimal.Zero, nil
	}
	return rows[0].Sum, nil
}

func (r *OrderRepository) set(ctx context.Context, id primitive.ObjectID, fields bson.M) error {
	res, err := r.coll.UpdateByID(ctx, id, bson.M{"$set": fields})
	if err != nil {
		return internal(err)
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound(orderNotFound)
	}
	return nil
}

func (r *OrderRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Order, error) {
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, internal(err)
	}
	defer cur.Close(ctx)
	return decodeAll[models.Order](ctx, cur)
}
