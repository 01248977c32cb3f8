package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/AmrIbrahim41/smart-shop/internal/apperr"
	"github.com/AmrIbrahim41/smart-shop/internal/models"
)

func TestCart(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	_, p := f.addUser("ann@example.com", models.AccountCustomer, false)
	pen := f.addProduct("Pen", "10.00", 5, models.ApprovalApproved, nil)

	require.NoError(t, f.svc.Carts.AddToCart(ctx, p, pen.ID, 2))
	require.NoError(t, f.svc.Carts.AddToCart(ctx, p, pen.ID, 5))

	items, err := f.svc.Carts.Cart(ctx, p)
	require.NoError(t, err)
	require.Len(t, items, 1, "adding twice keeps one line")
	assert.Equal(t, 5, items[0].Qty)
	require.NotNil(t, items[0].Product)
	assert.Equal(t, "Pen", items[0].Product.Name)

	assert.True(t, apperr.Is(f.svc.Carts.AddToCart(ctx, p, pen.ID, 0), apperr.KindValidation))
	assert.True(t, apperr.Is(f.svc.Carts.AddToCart(ctx, p, primitive.NewObjectID(), 1), apperr.KindNotFound))

	require.NoError(t, f.svc.Carts.RemoveFromCart(ctx, p, pen.ID))
	err = f.svc.Carts.RemoveFromCart(ctx, p, pen.ID)
	assert.Equal(t, "Item not found", apperr.Message(err))

	require.NoError(t, f.svc.Carts.AddToCart(ctx, p, pen.ID, 1))
	require.NoError(t, f.svc.Carts.ClearCart(ctx, p))
	require.NoError(t, f.svc.Carts.ClearCart(ctx, p))
	items, err = f.svc.Carts.Cart(ctx, p)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestToggleWishlist(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	_, p := f.addUser("ann@example.com", models.AccountCustomer, false)
	pen := f.addProduct("Pen", "10.00", 5, models.ApprovalApproved, nil)

	added, err := f.svc.Carts.ToggleWishlist(ctx, p, pen.ID)
	require.NoError(t, err)
	assert.True(t, added)

	items, err := f.svc.Carts.Wishlist(ctx, p)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, pen.ID, items[0].Product.ID)

	added, err = f.svc.Carts.ToggleWishlist(ctx, p, pen.ID)
	require.NoError(t, err)
	assert.False(t, added)
	assert.Empty(t, f.store.wishlist)

	_, err = f.svc.Carts.ToggleWishlist(ctx, nil, pen.ID)
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))
}
