package service

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/AmrIbrahim41/smart-shop/internal/apperr"
	"github.com/AmrIbrahim41/smart-shop/internal/auth"
	"github.com/AmrIbrahim41/smart-shop/internal/events"
	"github.com/AmrIbrahim41/smart-shop/internal/models"
)

type ReviewService struct {
	d *Deps
}

// ReviewInput is a submitted review. A zero rating means none was chosen.
type ReviewInput struct {
	Rating  int
	Comment string
}

// Create adds the caller's review and recomputes the product rating in the
// same transaction. A user reviews a product at most once.
func (s *ReviewService) Create(ctx context.Context, p *auth.Principal, productID primitive.ObjectID, in ReviewInput) error {
	if err := requireUser(p); err != nil {
		return err
	}
	if _, err := s.d.Products.FindByID(ctx, productID); err != nil {
		return err
	}
	existing, err := s.d.Reviews.FindByProductAndUser(ctx, productID, p.UserID)
	if err != nil {
		return err
	}
	if existing != nil {
		return apperr.Conflict("Product already reviewed")
	}
	if err := validateRating(in.Rating); err != nil {
		return err
	}

	user, err := s.d.Users.FindByID(ctx, p.UserID)
	if err != nil {
		return err
	}
	name := user.FirstName
	if name == "" {
		name = user.Username
	}
	userID := p.UserID
	review := &models.Review{
		ID:        primitive.NewObjectID(),
		ProductID: productID,
		UserID:    &userID,
		Name:      name,
		Rating:    in.Rating,
		Comment:   strings.TrimSpace(in.Comment),
		CreatedAt: s.d.now(),
	}

	err = s.d.Tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.d.Products.BumpVersion(ctx, productID); err != nil {
			return err
		}
		if err := s.d.Reviews.Insert(ctx, review); err != nil {
			return err
		}
		return s.refreshRating(ctx, productID)
	})
	if err != nil {
		return err
	}

	s.submitted(ctx, review)
	return nil
}

// Update rewrites the caller's existing review of a product.
func (s *ReviewService) Update(ctx context.Context, p *auth.Principal, productID primitive.ObjectID, in ReviewInput) error {
	if err := requireUser(p); err != nil {
		return err
	}
	if _, err := s.d.Products.FindByID(ctx, productID); err != nil {
		return err
	}
	review, err := s.d.Reviews.FindByProductAndUser(ctx, productID, p.UserID)
	if err != nil {
		return err
	}
	if review == nil {
		return apperr.NotFound("Review not found")
	}
	if err := validateRating(in.Rating); err != nil {
		return err
	}
	review.Rating = in.Rating
	review.Comment = strings.TrimSpace(in.Comment)

	err = s.d.Tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.d.Products.BumpVersion(ctx, productID); err != nil {
			return err
		}
		if err := s.d.Reviews.Update(ctx, review); err != nil {
			return err
		}
		return s.refreshRating(ctx, productID)
	})
	if err != nil {
		return err
	}

	s.submitted(ctx, review)
	return nil
}

// refreshRating must run inside the transaction that changed the reviews.
// The version bump before it makes concurrent writers on one product
// conflict, so the stored mean always matches the committed reviews.
func (s *ReviewService) refreshRating(ctx context.Context, productID primitive.ObjectID) error {
	stats, err := s.d.Reviews.Stats(ctx, productID)
	if err != nil {
		return err
	}
	return s.d.Products.SetRating(ctx, productID, AverageRating(stats), stats.Count)
}

func (s *ReviewService) submitted(ctx context.Context, review *models.Review) {
	s.d.TopCache.Invalidate(ctx)
	s.d.Observer.ReviewSubmitted(review.Rating)
	s.d.publish(ctx, events.NewEvent(events.ReviewSubmitted, review.ProductID.Hex(), map[string]interface{}{
		"reviewId":  review.ID.Hex(),
		"productId": review.ProductID.Hex(),
		"rating":    review.Rating,
	}))
	s.d.Log.Debug("review saved", zap.String("productId", review.ProductID.Hex()), zap.Int("rating", review.Rating))
}

func validateRating(rating int) error {
	if rating == 0 {
		return apperr.Validation("Please select a rating")
	}
	if rating < models.MinRating || rating > models.MaxRating {
		return apperr.Validation("Rating must be between 1 and 5")
	}
	return nil
}
