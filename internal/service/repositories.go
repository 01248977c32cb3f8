package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/AmrIbrahim41/smart-shop/internal/models"
)

// TxRunner runs fn atomically. Repository calls made with the ctx passed to
// fn join the transaction; fn may be retried on transient conflicts.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type ProductRepository interface {
	Count(ctx context.Context, q models.ProductQuery) (int64, error)
	Search(ctx context.Context, q models.ProductQuery, skip, limit int64) ([]models.Product, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Product, error)
	FindByImageID(ctx context.Context, imageID primitive.ObjectID) (*models.Product, error)
	FindByOwner(ctx context.Context, ownerID primitive.ObjectID) ([]models.Product, error)
	IDsByOwner(ctx context.Context, ownerID primitive.ObjectID) ([]primitive.ObjectID, error)
	FindApproved(ctx context.Context) ([]models.Product, error)
	TopRated(ctx context.Context, limit int) ([]models.Product, error)
	CountAll(ctx context.Context) (int64, error)
	Insert(ctx context.Context, p *models.Product) error
	Update(ctx context.Context, p *models.Product) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	SetStock(ctx context.Context, id primitive.ObjectID, count int) error
	AdjustStock(ctx context.Context, id primitive.ObjectID, delta int) error
	BumpVersion(ctx context.Context, id primitive.ObjectID) error
	SetRating(ctx context.Context, id primitive.ObjectID, rating float64, numReviews int) error
	PullImage(ctx context.Context, productID, imageID primitive.ObjectID) error
	UnsetCategory(ctx context.Context, categoryID primitive.ObjectID) error
	PullTag(ctx context.Context, tagID primitive.ObjectID) error
	DetachOwner(ctx context.Context, ownerID primitive.ObjectID) error
}

type CategoryRepository interface {
	List(ctx context.Context) ([]models.Category, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Category, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Category, error)
	IDsMatchingName(ctx context.Context, keyword string) ([]primitive.ObjectID, error)
	Insert(ctx context.Context, c *models.Category) error
	Update(ctx context.Context, c *models.Category) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type TagRepository interface {
	List(ctx context.Context) ([]models.Tag, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Tag, error)
	GetOrCreate(ctx context.Context, name string) (*models.Tag, error)
	Insert(ctx context.Context, t *models.Tag) error
	Update(ctx context.Context, t *models.Tag) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type ReviewRepository interface {
	ListByProduct(ctx context.Context, productID primitive.ObjectID) ([]models.Review, error)
	FindByProductAndUser(ctx context.Context, productID, userID primitive.ObjectID) (*models.Review, error)
	Insert(ctx context.Context, r *models.Review) error
	Update(ctx context.Context, r *models.Review) error
	Stats(ctx context.Context, productID primitive.ObjectID) (models.RatingStats, error)
	DeleteByProduct(ctx context.Context, productID primitive.ObjectID) error
	DetachUser(ctx context.Context, userID primitive.ObjectID) error
}

type OrderRepository interface {
	Insert(ctx context.Context, o *models.Order) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error)
	ListAll(ctx context.Context) ([]models.Order, error)
	ListContainingProducts(ctx context.Context, productIDs []primitive.ObjectID) ([]models.Order, error)
	Latest(ctx context.Context, n int) ([]models.Order, error)
	MarkPaid(ctx context.Context, id primitive.ObjectID, at time.Time) error
	MarkDelivered(ctx context.Context, id primitive.ObjectID, at time.Time) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	DetachProduct(ctx context.Context, productID primitive.ObjectID) error
	DetachUser(ctx context.Context, userID primitive.ObjectID) error
	CountAll(ctx context.Context) (int64, error)
	TotalSales(ctx context.Context) (decimal.Decimal, error)
}

type CartRepository interface {
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.CartItem, error)
	Upsert(ctx context.Context, userID, productID primitive.ObjectID, qty int, now time.Time) error
	Remove(ctx context.Context, userID, productID primitive.ObjectID) (bool, error)
	Clear(ctx context.Context, userID primitive.ObjectID) error
	DeleteByProduct(ctx context.Context, productID primitive.ObjectID) error
}

type WishlistRepository interface {
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.WishlistItem, error)
	Insert(ctx context.Context, item *models.WishlistItem) error
	Remove(ctx context.Context, userID, productID primitive.ObjectID) (bool, error)
	Clear(ctx context.Context, userID primitive.ObjectID) error
	DeleteByProduct(ctx context.Context, productID primitive.ObjectID) error
}

type UserRepository interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	EmailTaken(ctx context.Context, email string) (bool, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Insert(ctx context.Context, u *models.User) error
	Update(ctx context.Context, u *models.User) error
	TouchLogin(ctx context.Context, id primitive.ObjectID, at time.Time) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	CountAll(ctx context.Context) (int64, error)
}

type ProfileRepository interface {
	FindByUser(ctx context.Context, userID primitive.ObjectID) (*models.Profile, error)
	FindByUsers(ctx context.Context, userIDs []primitive.ObjectID) ([]models.Profile, error)
	Insert(ctx context.Context, p *models.Profile) error
	Upsert(ctx context.Context, p *models.Profile) error
	DeleteByUser(ctx context.Context, userID primitive.ObjectID) error
}

type RefreshTokenRepository interface {
	Insert(ctx context.Context, t *models.RefreshToken) error
	FindByHash(ctx context.Context, hash string) (*models.RefreshToken, error)
	Revoke(ctx context.Context, id primitive.ObjectID, replacedBy *primitive.ObjectID) (bool, error)
	DeleteByUser(ctx context.Context, userID primitive.ObjectID) error
}
