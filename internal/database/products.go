package database

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/AmrIbrahim41/smart-shop/internal/apperr"
	"github.com/AmrIbrahim41/smart-shop/internal/models"
)

const productNotFound = "Product not found"

var newestFirst = bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}

type ProductRepository struct {
	coll *mongo.Collection
}

func NewProductRepository(db *mongo.Database) *ProductRepository {
	return &ProductRepository{coll: db.Collection(ProductsCollection)}
}

func (r *ProductRepository) Count(ctx context.Context, q models.ProductQuery) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, ProductFilter(q))
	return n, internal(err)
}

func (r *ProductRepository) Search(ctx context.Context, q models.ProductQuery, skip, limit int64) ([]models.Product, error) {
	opts := options.Find().SetSort(newestFirst).SetSkip(skip).SetLimit(limit)
	return r.find(ctx, ProductFilter(q), opts)
}

func (r *ProductRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	var p models.Product
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, notFoundOr(err, productNotFound)
	}
	return &p, nil
}

func (r *ProductRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": ids}}, nil)
}

func (r *ProductRepository) FindByImageID(ctx context.Context, imageID primitive.ObjectID) (*models.Product, error) {
	var p models.Product
	if err := r.coll.FindOne(ctx, bson.M{"images._id": imageID}).Decode(&p); err != nil {
		return nil, notFoundOr(err, "Image not found")
	}
	return &p, nil
}

func (r *ProductRepository) FindByOwner(ctx context.Context, ownerID primitive.ObjectID) ([]models.Product, error) {
	return r.find(ctx, bson.M{"userId": ownerID}, options.Find().SetSort(newestFirst))
}

func (r *ProductRepository) IDsByOwner(ctx context.Context, ownerID primitive.ObjectID) ([]primitive.ObjectID, error) {
	cur, err := r.coll.Find(ctx, bson.M{"userId": ownerID}, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, internal(err)
	}
	defer cur.Close(ctx)

	ids := make([]primitive.ObjectID, 0)
	for cur.Next(ctx) {
		var doc struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cur.Decode(&doc); err != nil {
			return nil, internal(err)
		}
		ids = append(ids, doc.ID)
	}
	return ids, internal(cur.Err())
}

func (r *ProductRepository) FindApproved(ctx context.Context) ([]models.Product, error) {
	return r.find(ctx, bson.M{"approvalStatus": models.ApprovalApproved}, options.Find().SetSort(newestFirst))
}

func (r *ProductRepository) TopRated(ctx context.Context, limit int) ([]models.Product, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "rating", Value: -1}, {Key: "createdAt", Value: -1}}).
		SetLimit(int64(limit))
	return r.find(ctx, bson.M{}, opts)
}

func (r *ProductRepository) CountAll(ctx context.Context) (int64, error) {
	n, err := r.coll.EstimatedDocumentCount(ctx)
	return n, internal(err)
}

func (r *ProductRepository) Insert(ctx context.Context, p *models.Product) error {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	_, err := r.coll.InsertOne(ctx, p)
	return internal(err)
}

// Update writes the vendor-editable fields. Stock, ratings and the review
// version are owned by other writers and left alone; an explicit stock edit
// goes through SetStock.
func (r *ProductRepository) Update(ctx context.Context, p *models.Product) error {
	update := bson.M{"$set": bson.M{
		"name":           p.Name,
		"brand":          p.Brand,
		"description":    p.Description,
		"price":          p.Price,
		"discountPrice":  p.DiscountPrice,
		"categoryId":     p.CategoryID,
		"tags":           p.TagIDs,
		"image":          p.Image,
		"images":         p.Images,
		"approvalStatus": p.ApprovalStatus,
	}}
	res, err := r.coll.UpdateByID(ctx, p.ID, update)
	if err != nil {
		return internal(err)
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound(productNotFound)
	}
	return nil
}

func (r *ProductRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return internal(err)
	}
	if res.DeletedCount == 0 {
		return apperr.NotFound(productNotFound)
	}
	return nil
}

// SetStock overwrites the stock count.
func (r *ProductRepository) SetStock(ctx context.Context, id primitive.ObjectID, count int) error {
	res, err := r.coll.UpdateByID(ctx, id, bson.M{"$set": bson.M{"countInStock": count}})
	if err != nil {
		return internal(err)
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound(productNotFound)
	}
	return nil
}

// AdjustStock applies delta atomically. No floor is enforced.
func (r *ProductRepository) AdjustStock(ctx context.Context, id primitive.ObjectID, delta int) error {
	res, err := r.coll.UpdateByID(ctx, id, bson.M{"$inc": bson.M{"countInStock": delta}})
	if err != nil {
		return internal(err)
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound(productNotFound)
	}
	return nil
}

// BumpVersion writes to the product document so that two transactions
// touching the same product's reviews conflict and one of them retries.
func (r *ProductRepository) BumpVersion(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.UpdateByID(ctx, id, bson.M{"$inc": bson.M{"version": 1}})
	if err != nil {
		return internal(err)
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound(productNotFound)
	}
	return nil
}

func (r *ProductRepository) SetRating(ctx context.Context, id primitive.ObjectID, rating float64, numReviews int) error {
	_, err := r.coll.UpdateByID(ctx, id, bson.M{"$set": bson.M{"rating": rating, "numReviews": numReviews}})
	return internal(err)
}

func (r *ProductRepository) PullImage(ctx context.Context, productID, imageID primitive.ObjectID) error {
	_, err := r.coll.UpdateByID(ctx, productID, bson.M{"$pull": bson.M{"images": bson.M{"_id": imageID}}})
	return internal(err)
}

func (r *ProductRepository) UnsetCategory(ctx context.Context, categoryID primitive.ObjectID) error {
	_, err := r.coll.UpdateMany(ctx, bson.M{"categoryId": categoryID}, bson.M{"$set": bson.M{"categoryId": nil}})
	return internal(err)
}

func (r *ProductRepository) PullTag(ctx context.Context, tagID primitive.ObjectID) error {
	_, err := r.coll.UpdateMany(ctx, bson.M{"tags": tagID}, bson.M{"$pull": bson.M{"tags": tagID}})
	return internal(err)
}

// DetachOwner keeps a deleted vendor's products listed without an owner.
func (r *ProductRepository) DetachOwner(ctx context.Context, ownerID primitive.ObjectID) error {
	_, err := r.coll.UpdateMany(ctx, bson.M{"userId": ownerID}, bson.M{"$set": bson.M{"userId": nil}})
	return internal(err)
}

func (r *ProductRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Product, error) {
	if opts == nil {
		opts = options.Find()
	}
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, internal(err)
	}
	defer cur.Close(ctx)
	return decodeAll[models.Product](ctx, cur)
}
