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

type CategoryRepository struct {
	coll *mongo.Collection
}

func NewCategoryRepository(db *mongo.Database) *CategoryRepository {
	return &CategoryRepository{coll: db.Collection(CategoriesCollection)}
}

func (r *CategoryRepository) List(ctx context.Context) ([]models.Category, error) {
	cur, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, internal(err)
	}
	defer cur.Close(ctx)
	return decodeAll[models.Category](ctx, cur)
}

func (r *CategoryRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Category, error) {
	var c models.Category
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		return nil, notFoundOr(err, "Category not found")
	}
	return &c, nil
}

func (r *CategoryRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Category, error) {
	if len(ids) == 0 {
		return []models.Category{}, nil
	}
	cur, err := r.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, internal(err)
	}
	defer cur.Close(ctx)
	return decodeAll[models.Category](ctx, cur)
}

// IDsMatchingName returns the ids of categories whose name contains keyword,
// ignoring case.
func (r *CategoryRepository) IDsMatchingName(ctx context.Context, keyword string) ([]primitive.ObjectID, error) {
	cur, err := r.coll.Find(ctx, bson.M{"name": nameLike(keyword)}, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, internal(err)
	}
	defer cur.Close(ctx)

	var docs []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, internal(err)
	}
	ids := make([]primitive.ObjectID, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ID)
	}
	return ids, nil
}

func (r *CategoryRepository) Insert(ctx context.Context, c *models.Category) error {
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	_, err := r.coll.InsertOne(ctx, c)
	return duplicateOr(err, apperr.Validation("Category with this name already exists"))
}

func (r *CategoryRepository) Update(ctx context.Context, c *models.Category) error {
	res, err := r.coll.UpdateByID(ctx, c.ID, bson.M{"$set": bson.M{"name": c.Name, "description": c.Description}})
	if err != nil {
		return duplicateOr(err, apperr.Validation("Category with this name already exists"))
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("Category not found")
	}
	return nil
}

func (r *CategoryRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return internal(err)
	}
	if res.DeletedCount == 0 {
		return apperr.NotFound("Category not found")
	}
	return nil
}

type TagRepository struct {
	coll *mongo.Collection
}

func NewTagRepository(db *mongo.Database) *TagRepository {
	return &TagRepository{coll: db.Collection(TagsCollection)}
}

func (r *TagRepository) List(ctx context.Context) ([]models.Tag, error) {
	cur, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, internal(err)
	}
	defer cur.Close(ctx)
	return decodeAll[models.Tag](ctx, cur)
}

func (r *TagRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Tag, error) {
	var t models.Tag
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		return nil, notFoundOr(err, "Tag not found")
	}
	return &t, nil
}

// GetOrCreate upserts a tag by exact name and returns it.
func (r *TagRepository) GetOrCreate(ctx context.Context, name string) (*models.Tag, error) {
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	update := bson.M{"$setOnInsert": bson.M{"name": name}}

	var t models.Tag
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"name": name}, update, opts).Decode(&t); err != nil {
		return nil, internal(err)
	}
	return &t, nil
}

func (r *TagRepository) Insert(ctx context.Context, t *models.Tag) error {
	if t.ID.IsZero() {
		t.ID = primitive.NewObjectID()
	}
	_, err := r.coll.InsertOne(ctx, t)
	return duplicateOr(err, apperr.Validation("Tag with this name already exists"))
}

func (r *TagRepository) Update(ctx context.Context, t *models.Tag) error {
	res, err := r.coll.UpdateByID(ctx, t.ID, bson.M{"$set": bson.M{"name": t.Name}})
	if err != nil {
		return duplicateOr(err, apperr.Validation("Tag with this name already exists"))
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("Tag not found")
	}
	return nil
}

func (r *TagRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return internal(err)
	}
	if res.DeletedCount == 0 {
		return apperr.NotFound("Tag not found")
	}
	return nil
}
