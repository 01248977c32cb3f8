package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CartItem is unique per (user, product).
type CartItem struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"userId" json:"-"`
	ProductID primitive.ObjectID `bson:"productId" json:"product"`
	Qty       int                `bson:"qty" json:"qty"`
	CreatedAt time.Time          `bson:"createdAt" json:"-"`

	Product *Product `bson:"-" json:"product_details"`
}

// WishlistItem is unique per (user, product); its presence is the state.
type WishlistItem struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"userId" json:"-"`
	ProductID primitive.ObjectID `bson:"productId" json:"product"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`

	Product *Product `bson:"-" json:"product_details"`
}
