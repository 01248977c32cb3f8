package models

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	ApprovalPending  = "pending"
	ApprovalApproved = "approved"
	ApprovalRejected = "rejected"
)

// ValidApprovalStatus reports whether status is one of the three approval states.
func ValidApprovalStatus(status string) bool {
	switch status {
	case ApprovalPending, ApprovalApproved, ApprovalRejected:
		return true
	}
	return false
}

// ProductImage is one gallery picture of a product.
type ProductImage struct {
	ID    primitive.ObjectID `bson:"_id" json:"id"`
	Image string             `bson:"image" json:"image"`
}

type Product struct {
	ID             primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	UserID         *primitive.ObjectID  `bson:"userId" json:"user"`
	CategoryID     *primitive.ObjectID  `bson:"categoryId" json:"category"`
	TagIDs         []primitive.ObjectID `bson:"tags" json:"tags"`
	Name           string               `bson:"name" json:"name"`
	Brand          string               `bson:"brand,omitempty" json:"brand"`
	Description    string               `bson:"description,omitempty" json:"description"`
	Price          decimal.Decimal      `bson:"price" json:"price"`
	DiscountPrice  *decimal.Decimal     `bson:"discountPrice" json:"discount_price"`
	CountInStock   int                  `bson:"countInStock" json:"countInStock"`
	Image          string               `bson:"image,omitempty" json:"image"`
	Images         []ProductImage       `bson:"images" json:"images"`
	Rating         float64              `bson:"rating" json:"rating"`
	NumReviews     int                  `bson:"numReviews" json:"numReviews"`
	IsFeatured     bool                 `bson:"isFeatured" json:"isFeatured"`
	ApprovalStatus string               `bson:"approvalStatus" json:"approval_status"`
	// Version is bumped by every review write so concurrent writers on the
	// same product conflict instead of interleaving.
	Version   int64     `bson:"version" json:"-"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`

	UserName     string   `bson:"-" json:"user_name,omitempty"`
	CategoryName string   `bson:"-" json:"category_name,omitempty"`
	Reviews      []Review `bson:"-" json:"reviews,omitempty"`
}

// UnitPrice is the price charged at checkout: the discount price when it is
// set and positive, the list price otherwise.
func (p *Product) UnitPrice() decimal.Decimal {
	if p.DiscountPrice != nil && p.DiscountPrice.IsPositive() {
		return *p.DiscountPrice
	}
	return p.Price
}

func (p *Product) IsApproved() bool {
	return p.ApprovalStatus == ApprovalApproved
}

// OwnedBy reports whether userID is the vendor that listed the product.
func (p *Product) OwnedBy(userID primitive.ObjectID) bool {
	return p.UserID != nil && *p.UserID == userID
}

// ImagePaths returns the main image followed by every gallery image.
func (p *Product) ImagePaths() []string {
	paths := make([]string, 0, len(p.Images)+1)
	if p.Image != "" {
		paths = append(paths, p.Image)
	}
	for _, img := range p.Images {
		paths = append(paths, img.Image)
	}
	return paths
}

// ProductQuery describes a catalog search.
type ProductQuery struct {
	Keyword string
	// KeywordCategoryIDs are the categories whose name matches Keyword.
	KeywordCategoryIDs []primitive.ObjectID
	CategoryID         *primitive.ObjectID
	ApprovedOnly       bool
}

// ProductPage is one page of a catalog listing.
type ProductPage struct {
	Products []Product `json:"products"`
	Page     int       `json:"page"`
	Pages    int       `json:"pages"`
}

// CategoryProducts groups the approved products of a category.
type CategoryProducts struct {
	ID       primitive.ObjectID `json:"id"`
	Name     string             `json:"name"`
	Products []Product          `json:"products"`
}
