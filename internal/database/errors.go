package database

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/AmrIbrahim41/smart-shop/internal/apperr"
)

// notFoundOr maps a missing document to NotFound(msg) and anything else to an
// internal error that keeps the driver error as its cause.
func notFoundOr(err error, msg string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return apperr.NotFound(msg)
	}
	return internal(err)
}

func internal(err error) error {
	if err == nil {
		return nil
	}
	return apperr.Internal("database error", err)
}

// duplicateOr maps a unique index violation to dup and anything else to an
// internal error.
func duplicateOr(err error, dup error) error {
	if mongo.IsDuplicateKeyError(err) {
		return dup
	}
	return internal(err)
}

func decodeAll[T any](ctx context.Context, cur *mongo.Cursor) ([]T, error) {
	out := make([]T, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, internal(err)
	}
	return out, nil
}
