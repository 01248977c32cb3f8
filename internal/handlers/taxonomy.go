package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AmrIbrahim41/smart-shop/internal/middleware"
	"github.com/AmrIbrahim41/smart-shop/internal/service"
)

type categoryRequest struct {
	Name        string  `json:"name" binding:"max=200"`
	Description *string `json:"description"`
}

type tagRequest struct {
	Name string `json:"name" binding:"max=100"`
}

func ListCategories(taxonomy *service.TaxonomyService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /categories"
		categories, err := taxonomy.Categories(c.Request.Context())
		if err != nil {
			respondWithError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, categories)
	}
}

func CreateCategory(taxonomy *service.TaxonomyService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /categories/create"
		var req categoryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, route, err)
			return
		}
		category, err := taxonomy.CreateCategory(c.Request.Context(), middleware.Principal(c),
			service.CategoryInput{Name: req.Name, Description: req.Description})
		if err != nil {
			respondWithError(c, route, err)
			return
		}
		c.JSON(http.StatusCreated, category)
	}
}

func UpdateCategory(taxonomy *service.TaxonomyService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /categories/update/:id"
		id, ok := objectIDParam(c, "id", "Category not found")
		if !ok {
			return
		}
		var req categoryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, route, err)
			return
		}
		category, err := taxonomy.UpdateCategory(c.Request.Context(), middleware.Principal(c), id,
			service.CategoryInput{Name: req.Name, Description: req.Description})
		if err != nil {
			respondWithError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, category)
	}
}

func DeleteCategory(taxonomy *service.TaxonomyService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /categories/delete/:id"
		id, ok := objectIDParam(c, "id", "Category not found")
		if !ok {
			return
		}
		if err := taxonomy.DeleteCategory(c.Request.Context(), middleware.Principal(c), id); err != nil {
			respondWithError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, "Category Deleted")
	}
}

func ListTags(taxonomy *service.TaxonomyService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /tags"
		tags, err := taxonomy.Tags(c.Request.Context())
		if err != nil {
			respondWithError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, tags)
	}
}

func CreateTag(taxonomy *service.TaxonomyService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /tags/create"
		var req tagRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, route, err)
			return
		}
		tag, err := taxonomy.CreateTag(c.Request.Context(), middleware.Principal(c), req.Name)
		if err != nil {
			respondWithError(c, route, err)
			return
		}
		c.JSON(http.StatusCreated, tag)
	}
}

func UpdateTag(taxonomy *service.TaxonomyService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /tags/update/:id"
		id, ok := objectIDParam(c, "id", "Tag not found")
		if !ok {
			return
		}
		var req tagRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, route, err)
			return
		}
		tag, err := taxonomy.UpdateTag(c.Request.Context(), middleware.Principal(c), id, req.Name)
		if err != nil {
			respondWithError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, tag)
	}
}

func DeleteTag(taxonomy *service.TaxonomyService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /tags/delete/:id"
		id, ok := objectIDParam(c, "id", "Tag not found")
		if !ok {
			return
		}
		if err := taxonomy.DeleteTag(c.Request.Context(), middleware.Principal(c), id); err != nil {
			respondWithError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, "Tag Deleted")
	}
}
