package database

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/AmrIbrahim41/smart-shop/internal/apperr"
	"github.com/AmrIbrahim41/smart-shop/internal/models"
)

type ReviewRepository struct {
	coll *mongo.Collection
}

func NewReviewRepository(db *mongo.Database) *ReviewRepository {
	return &ReviewRepository{coll: db.Collection(ReviewsCollection)}
}

func (r *ReviewRepository) ListByProduct(ctx context.Context, productID primitive.ObjectID) ([]models.Review, error) {
	cur, err := r.coll.Find(ctx, bson.M{"productId": productID}, options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, internal(err)
	}
	defer cur.Close(ctx)
	return decodeAll[models.Review](ctx, cur)
}

// FindByProductAndUser returns nil, nil when the user has not reviewed the product.
func (r *ReviewRepository) FindByProductAndUser(ctx context.Context, productID, userID primitive.ObjectID) (*models.Review, error) {
	var rev models.Review
	err := r.coll.FindOne(ctx, bson.M{"productId": productID, "userId": userID}).Decode(&rev)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, internal(err)
	}
	return &rev, nil
}

func (r *ReviewRepository) Insert(ctx context.Context, rev *models.Review) error {
	if rev.ID.IsZero() {
		rev.ID = primitive.NewObjectID()
	}
	_, err := r.coll.InsertOne(ctx, rev)
	return duplicateOr(err, apperr.Conflict("Product already reviewed"))
}

func (r *ReviewRepository) Update(ctx context.Context, rev *models.Review) error {
	res, err := r.coll.UpdateByID(ctx, rev.ID, bson.M{"$set": bson.M{"rating": rev.Rating, "comment": rev.Comment}})
	if err != nil {
		return internal(err)
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("Review not found")
	}
	return nil
}

// Stats aggregates count and rating sum of a product's reviews.
func (r *ReviewRepository) Stats(ctx context.Context, productID primitive.ObjectID) (models.RatingStats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"productId": productID}}},
		{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"count": bson.M{"$sum": 1},
			"sum":   bson.M{"$sum": "$rating"},
		}}},
	}
	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return models.RatingStats{}, internal(err)
	}
	defer cur.Close(ctx)

	var rows []struct {
		Count int `bson:"count"`
		Sum   int `bson:"sum"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return models.RatingStats{}, internal(err)
	}
	if len(rows) == 0 {
		return models.RatingStats{}, nil
	}
	return models.RatingStats{Count: rows[0].Count, Sum: rows[0].Sum}, nil
}

func (r *ReviewRepository) DeleteByProduct(ctx context.Context, productID primitive.ObjectID) error {
	_, err := r.coll.DeleteMany(ctx, bson.M{"productId": productID})
	return internal(err)
}

// DetachUser keeps a deleted user's reviews, and the ratings built from
// them, without an author.
func (r *ReviewRepository) DetachUser(ctx context.Context, userID primitive.ObjectID) error {
	_, err := r.coll.UpdateMany(ctx, bson.M{"userId": userID}, bson.M{"$set": bson.M{"userId": nil}})
	return internal(err)
}
