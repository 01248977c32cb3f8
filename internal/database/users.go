package database

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/AmrIbrahim41/smart-shop/internal/apperr"
	"github.com/AmrIbrahim41/smart-shop/internal/models"
)

const (
	userNotFound   = "User not found"
	duplicateEmail = "this email is already registered"
)

type UserRepository struct {
	coll *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{coll: db.Collection(UsersCollection)}
}

func (r *UserRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, notFoundOr(err, userNotFound)
	}
	return &u, nil
}

// FindByEmail matches email or username, which are stored lowercased.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	filter := bson.M{"$or": bson.A{bson.M{"email": email}, bson.M{"username": email}}}

	var u models.User
	if err := r.coll.FindOne(ctx, filter).Decode(&u); err != nil {
		return nil, notFoundOr(err, userNotFound)
	}
	return &u, nil
}

func (r *UserRepository) EmailTaken(ctx context.Context, email string) (bool, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))})
	if err != nil {
		return false, internal(err)
	}
	return n > 0, nil
}

func (r *UserRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	cur, err := r.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, internal(err)
	}
	defer cur.Close(ctx)
	return decodeAll[models.User](ctx, cur)
}

func (r *UserRepository) List(ctx context.Context) ([]models.User, error) {
	cur, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, internal(err)
	}
	defer cur.Close(ctx)
	return decodeAll[models.User](ctx, cur)
}

func (r *UserRepository) Insert(ctx context.Context, u *models.User) error {
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	_, err := r.coll.InsertOne(ctx, u)
	return duplicateOr(err, apperr.Validation(duplicateEmail))
}

func (r *UserRepository) Update(ctx context.Context, u *models.User) error {
	u.UpdatedAt = time.Now().UTC()
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": u.ID}, u)
	if err != nil {
		return duplicateOr(err, apperr.Validation(duplicateEmail))
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound(userNotFound)
	}
	return nil
}

func (r *UserRepository) TouchLogin(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	_, err := r.coll.UpdateByID(ctx, id, bson.M{"$set": bson.M{"lastLogin": at}})
	return internal(err)
}

func (r *UserRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return internal(err)
	}
	if res.DeletedCount == 0 {
		return apperr.NotFound(userNotFound)
	}
	return nil
}

func (r *UserRepository) CountAll(ctx context.Context) (int64, error) {
	n, err := r.coll.EstimatedDocumentCount(ctx)
	return n, internal(err)
}

type ProfileRepository struct {
	coll *mongo.Collection
}

func NewProfileRepository(db *mongo.Database) *ProfileRepository {
	return &ProfileRepository{coll: db.Collection(ProfilesCollection)}
}

// FindByUser returns nil, nil for users created without a profile.
func (r *ProfileRepository) FindByUser(ctx context.Context, userID primitive.ObjectID) (*models.Profile, error) {
	var p models.Profile
	err := r.coll.FindOne(ctx, bson.M{"userId": userID}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, internal(err)
	}
	return &p, nil
}

func (r *ProfileRepository) FindByUsers(ctx context.Context, userIDs []primitive.ObjectID) ([]models.Profile, error) {
	if len(userIDs) == 0 {
		return []models.Profile{}, nil
	}
	cur, err := r.coll.Find(ctx, bson.M{"userId": bson.M{"$in": userIDs}})
	if err != nil {
		return nil, internal(err)
	}
	defer cur.Close(ctx)
	return decodeAll[models.Profile](ctx, cur)
}

func (r *ProfileRepository) Insert(ctx context.Context, p *models.Profile) error {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	_, err := r.coll.InsertOne(ctx, p)
	return duplicateOr(err, apperr.Conflict("profile already exists"))
}

// Upsert writes the profile of p.UserID, creating it when missing.
func (r *ProfileRepository) Upsert(ctx context.Context, p *models.Profile) error {
	update := bson.M{
		"$set": bson.M{
			"type":           p.Type,
			"phone":          p.Phone,
			"birthdate":      p.Birthdate,
			"city":           p.City,
			"country":        p.Country,
			"profilePicture": p.ProfilePicture,
		},
	}
	_, err := r.coll.UpdateOne(ctx, bson.M{"userId": p.UserID}, update, options.Update().SetUpsert(true))
	return internal(err)
}

func (r *ProfileRepository) DeleteByUser(ctx context.Context, userID primitive.ObjectID) error {
	_, err := r.coll.DeleteMany(ctx, bson.M{"userId": userID})
	return internal(err)
}

type RefreshTokenRepository struct {
	coll *mongo.Collection
}

func NewRefreshTokenRepository(db *mongo.Database) *RefreshTokenRepository {
	return &RefreshTokenRepository{coll: db.Collection(RefreshTokensCollection)}
}

func (r *RefreshTokenRepository) Insert(ctx context.Context, t *models.RefreshToken) error {
	if t.ID.IsZero() {
		t.ID = primitive.NewObjectID()
	}
	_, err := r.coll.InsertOne(ctx, t)
	return internal(err)
}

func (r *RefreshTokenRepository) FindByHash(ctx context.Context, hash string) (*models.RefreshToken, error) {
	var t models.RefreshToken
	if err := r.coll.FindOne(ctx, bson.M{"tokenHash": hash}).Decode(&t); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.Unauthorized("Token is invalid or expired")
		}
		return nil, internal(err)
	}
	return &t, nil
}

// Revoke marks a live token revoked and reports whether it was live.
func (r *RefreshTokenRepository) Revoke(ctx context.Context, id primitive.ObjectID, replacedBy *primitive.ObjectID) (bool, error) {
	set := bson.M{"revoked": true}
	if replacedBy != nil {
		set["replacedBy"] = *replacedBy
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id, "revoked": false}, bson.M{"$set": set})
	if err != nil {
		return false, internal(err)
	}
	return res.ModifiedCount > 0, nil
}

func (r *RefreshTokenRepository) DeleteByUser(ctx context.Context, userID primitive.ObjectID) error {
	_, err := r.coll.DeleteMany(ctx, bson.M{"userId": userID})
	return internal(err)
}

// DeleteStale removes revoked tokens and tokens expired before now.
func (r *RefreshTokenRepository) DeleteStale(ctx context.Context, now time.Time) (int64, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"revoked": true},
		bson.M{"expiresAt": bson.M{"$lt": now}},
	}}
	res, err := r.coll.DeleteMany(ctx, filter)
	if err != nil {
		return 0, internal(err)
	}
	return res.DeletedCount, nil
}
