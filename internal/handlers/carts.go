package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AmrIbrahim41/smart-shop/internal/apperr"
	"github.com/AmrIbrahim41/smart-shop/internal/middleware"
	"github.com/AmrIbrahim41/smart-shop/internal/service"
)

type cartItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Qty       *int   `json:"qty"`
}

type wishlistRequest struct {
	ProductID string `json:"product_id" binding:"required"`
}

func GetCart(carts *service.CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /cart"
		items, err := carts.Cart(c.Request.Context(), middleware.Principal(c))
		if err != nil {
			respondWithError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, items)
	}
}

// AddToCart sets the quantity of a product in the cart; qty defaults to 1.
func AddToCart(carts *service.CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /cart/add"
		var req cartItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, route, err)
			return
		}
		id, err := parseObjectID(req.ProductID)
		if err != nil {
			respondWithError(c, route, apperr.NotFound("Product not found"))
			return
		}
		qty := 1
		if req.Qty != nil {
			qty = *req.Qty
		}
		if err := carts.AddToCart(c.Request.Context(), middleware.Principal(c), id, qty); err != nil {
			respondWithError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"details": "Item Added to Cart"})
	}
}

func RemoveFromCart(carts *service.CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /cart/remove/:id"
		id, ok := objectIDParam(c, "id", "Item not found")
		if !ok {
			return
		}
		if err := carts.RemoveFromCart(c.Request.Context(), middleware.Principal(c), id); err != nil {
			respondWithError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"details": "Item Removed"})
	}
}

func ClearCart(carts *service.CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /cart/clear"
		if err := carts.ClearCart(c.Request.Context(), middleware.Principal(c)); err != nil {
			respondWithError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"details": "Cart Cleared"})
	}
}

func GetWishlist(carts *service.CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /wishlist"
		items, err := carts.Wishlist(c.Request.Context(), middleware.Principal(c))
		if err != nil {
			respondWithError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, items)
	}
}

func ToggleWishlist(carts *service.CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /wishlist/toggle"
		var req wishlistRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, route, err)
			return
		}
		id, err := parseObjectID(req.ProductID)
		if err != nil {
			respondWithError(c, route, apperr.NotFound("Product not found"))
			return
		}
		added, err := carts.ToggleWishlist(c.Request.Context(), middleware.Principal(c), id)
		if err != nil {
			respondWithError(c, route, err)
			return
		}
		status := "removed"
		if added {
			status = "added"
		}
		c.JSON(http.StatusOK, gin.H{"status": status})
	}
}
