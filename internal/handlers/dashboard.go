package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AmrIbrahim41/smart-shop/internal/middleware"
	"github.com/AmrIbrahim41/smart-shop/internal/service"
)

func DashboardStats(dashboard *service.DashboardService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /dashboard/stats"
		stats, err := dashboard.Stats(c.Request.Context(), middleware.Principal(c))
		if err != nil {
			respondWithError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}
