package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	MinRating = 1
	MaxRating = 5
)

type Review struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	ProductID primitive.ObjectID  `bson:"productId" json:"-"`
	UserID    *primitive.ObjectID `bson:"userId" json:"user"`
	// Name is the reviewer's display name captured when the review was written.
	Name      string    `bson:"name" json:"user_name"`
	Rating    int       `bson:"rating" json:"rating"`
	Comment   string    `bson:"comment" json:"comment"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

// RatingStats is the aggregate of every review of one product.
type RatingStats struct {
	Count int
	Sum   int
}
