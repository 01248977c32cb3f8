package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/AmrIbrahim41/smart-shop/internal/apperr"
	"github.com/AmrIbrahim41/smart-shop/internal/middleware"
	"github.com/AmrIbrahim41/smart-shop/internal/service"
)

/*
GET /products?keyword=&category=&page=
- staff sees every approval status
*/
func ListProducts(catalog *service.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /products"

		var categoryID *primitive.ObjectID
		if raw := strings.TrimSpace(c.Query("category")); raw != "" {
			id, err := parseObjectID(raw)
			if err != nil {
				respondWithError(c, route, apperr.Validation("invalid category id"))
				return
			}
			categoryID = &id
		}

		page, err := catalog.List(c.Request.Context(), middleware.Principal(c), c.Query("keyword"), categoryID, c.Query("page"))
		if err != nil {
			respondWithError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, page)
	}
}

func TopProducts(catalog *service.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /products/top"
		products, err := catalog.Top(c.Request.Context())
		if err != nil {
			respondWithError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, products)
	}
}

func ProductsByCategory(catalog *service.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /products/by-category"
		groups, err := catalog.ByCategory(c.Request.Context())
		if err != nil {
			respondWithError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, groups)
	}
}

func MyProducts(catalog *service.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /products/myproducts"
		products, err := catalog.Mine(c.Request.Context(), middleware.Principal(c))
		if err != nil {
			respondWithError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, products)
	}
}

func GetProduct(catalog *service.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /products/:id"
		id, ok := objectIDParam(c, "id", "Product not found")
		if !ok {
			return
		}
		product, err := catalog.Get(c.Request.Context(), id)
		if err != nil {
			respondWithError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, product)
	}
}

func CreateProduct(catalog *service.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /products/create"
		in, err := parseProductRequest(c)
		if err != nil {
			respondWithError(c, route, err)
			return
		}
		product, err := catalog.Create(c.Request.Context(), middleware.Principal(c), in)
		if err != nil {
			respondWithError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, product)
	}
}

func UpdateProduct(catalog *service.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /products/update/:id"
		id, ok := objectIDParam(c, "id", "Product not found")
		if !ok {
			return
		}
		in, err := parseProductRequest(c)
		if err != nil {
			respondWithError(c, route, err)
			return
		}
		product, err := catalog.Update(c.Request.Context(), middleware.Principal(c), id, in)
		if err != nil {
			respondWithError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, product)
	}
}

func DeleteProduct(catalog *service.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /products/delete/:id"
		id, ok := objectIDParam(c, "id", "Product not found")
		if !ok {
			return
		}
		if err := catalog.Delete(c.Request.Context(), middleware.Principal(c), id); err != nil {
			respondWithError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, "Product Deleted")
	}
}

func DeleteProductImage(catalog *service.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /products/delete-image/:id"
		id, ok := objectIDParam(c, "id", "Image not found")
		if !ok {
			return
		}
		if err := catalog.DeleteImage(c.Request.Context(), middleware.Principal(c), id); err != nil {
			respondWithError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, "Image Deleted")
	}
}

type reviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment" binding:"max=2000"`
}

func CreateReview(reviews *service.ReviewService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /products/:id/reviews/create"
		id, ok := objectIDParam(c, "id", "Product not found")
		if !ok {
			return
		}
		var req reviewRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, route, err)
			return
		}
		in := service.ReviewInput{Rating: req.Rating, Comment: req.Comment}
		if err := reviews.Create(c.Request.Context(), middleware.Principal(c), id, in); err != nil {
			respondWithError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, "Review Added")
	}
}

func UpdateReview(reviews *service.ReviewService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /products/:id/reviews/update"
		id, ok := objectIDParam(c, "id", "Product not found")
		if !ok {
			return
		}
		var req reviewRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, route, err)
			return
		}
		in := service.ReviewInput{Rating: req.Rating, Comment: req.Comment}
		if err := reviews.Update(c.Request.Context(), middleware.Principal(c), id, in); err != nil {
			respondWithError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, "Review Updated")
	}
}
