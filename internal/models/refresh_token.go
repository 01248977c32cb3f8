package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RefreshToken is stored hashed; the plain value only ever lives on the client.
type RefreshToken struct {
	ID         primitive.ObjectID  `bson:"_id,omitempty"`
	UserID     primitive.ObjectID  `bson:"userId"`
	TokenHash  string              `bson:"tokenHash"`
	ExpiresAt  time.Time           `bson:"expiresAt"`
	Revoked    bool                `bson:"revoked"`
	CreatedAt  time.Time           `bson:"createdAt"`
	ReplacedBy *primitive.ObjectID `bson:"replacedBy,omitempty"`
}

// Usable reports whether the token can still be exchanged at now.
func (t *RefreshToken) Usable(now time.Time) bool {
	return !t.Revoked && now.Before(t.ExpiresAt)
}
