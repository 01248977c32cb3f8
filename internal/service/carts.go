package service

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/AmrIbrahim41/smart-shop/internal/apperr"
	"github.com/AmrIbrahim41/smart-shop/internal/auth"
	"github.com/AmrIbrahim41/smart-shop/internal/models"
)

type CartService struct {
	d *Deps
}

// Cart lists the caller's cart lines with the current product details.
func (s *CartService) Cart(ctx context.Context, p *auth.Principal) ([]models.CartItem, error) {
	if err := requireUser(p); err != nil {
		return nil, err
	}
	items, err := s.d.Carts.ListByUser(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	products, err := s.productsByID(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i].Product = products[items[i].ProductID]
	}
	return items, nil
}

// AddToCart sets the quantity of a product in the cart. Adding a product
// that is already there overwrites its quantity.
func (s *CartService) AddToCart(ctx context.Context, p *auth.Principal, productID primitive.ObjectID, qty int) error {
	if err := requireUser(p); err != nil {
		return err
	}
	if qty < 1 {
		return apperr.Validation("Quantity must be at least 1")
	}
	if _, err := s.d.Products.FindByID(ctx, productID); err != nil {
		return err
	}
	return s.d.Carts.Upsert(ctx, p.UserID, productID, qty, s.d.now())
}

func (s *CartService) RemoveFromCart(ctx context.Context, p *auth.Principal, productID primitive.ObjectID) error {
	if err := requireUser(p); err != nil {
		return err
	}
	removed, err := s.d.Carts.Remove(ctx, p.UserID, productID)
	if err != nil {
		return err
	}
	if !removed {
		return apperr.NotFound("Item not found")
	}
	return nil
}

func (s *CartService) ClearCart(ctx context.Context, p *auth.Principal) error {
	if err := requireUser(p); err != nil {
		return err
	}
	return s.d.Carts.Clear(ctx, p.UserID)
}

func (s *CartService) Wishlist(ctx context.Context, p *auth.Principal) ([]models.WishlistItem, error) {
	if err := requireUser(p); err != nil {
		return nil, err
	}
	items, err := s.d.Wishlist.ListByUser(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	products, err := s.productsByID(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i].Product = products[items[i].ProductID]
	}
	return items, nil
}

// ToggleWishlist adds the product when absent and removes it when present.
// It reports whether the product is on the wishlist afterwards.
func (s *CartService) ToggleWishlist(ctx context.Context, p *auth.Principal, productID primitive.ObjectID) (bool, error) {
	if err := requireUser(p); err != nil {
		return false, err
	}
	if _, err := s.d.Products.FindByID(ctx, productID); err != nil {
		return false, err
	}
	removed, err := s.d.Wishlist.Remove(ctx, p.UserID, productID)
	if err != nil {
		return false, err
	}
	if removed {
		return false, nil
	}
	err = s.d.Wishlist.Insert(ctx, &models.WishlistItem{
		ID:        primitive.NewObjectID(),
		UserID:    p.UserID,
		ProductID: productID,
		CreatedAt: s.d.now(),
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *CartService) productsByID(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.Product, error) {
	products, err := s.d.Products.FindByIDs(ctx, uniqueIDs(ids))
	if err != nil {
		return nil, err
	}
	if err := enrichProducts(ctx, s.d, products); err != nil {
		return nil, err
	}
	byID := make(map[primitive.ObjectID]*models.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}
	return byID, nil
}
