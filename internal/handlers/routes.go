package handlers

import (
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/AmrIbrahim41/smart-shop/internal/auth"
	"github.com/AmrIbrahim41/smart-shop/internal/middleware"
	"github.com/AmrIbrahim41/smart-shop/internal/service"
)

type Router struct {
	Services *service.Services
	Tokens   *auth.Tokens
	Metrics  *middleware.Metrics
	// DB backs the liveness probe; nil disables /healthz.
	DB *mongo.Database
}

// RegisterRoutes mounts the REST API under /api plus /metrics and /healthz.
func RegisterRoutes(r *gin.Engine, rt Router) {
	s := rt.Services
	authed := middleware.RequireAuth(rt.Tokens)
	requireAdmin := middleware.RequireAdmin()
	admin := func(h gin.HandlerFunc) []gin.HandlerFunc {
		return []gin.HandlerFunc{authed, requireAdmin, h}
	}

	if rt.Metrics != nil {
		r.GET("/metrics", gin.WrapH(rt.Metrics.Handler()))
	}
	if rt.DB != nil {
		r.GET("/healthz", Health(rt.DB))
	}

	api := r.Group("/api")

	products := api.Group("/products")
	{
		products.GET("", middleware.OptionalAuth(rt.Tokens), ListProducts(s.Catalog))
		products.GET("/top", TopProducts(s.Catalog))
		products.GET("/by-category", ProductsByCategory(s.Catalog))
		products.GET("/myproducts", authed, MyProducts(s.Catalog))
		products.POST("/create", authed, CreateProduct(s.Catalog))
		products.GET("/:id", GetProduct(s.Catalog))
		products.POST("/:id/reviews/create", authed, CreateReview(s.Reviews))
		products.PUT("/:id/reviews/update", authed, UpdateReview(s.Reviews))
		products.PUT("/update/:id", authed, UpdateProduct(s.Catalog))
		products.DELETE("/delete/:id", authed, DeleteProduct(s.Catalog))
		products.DELETE("/delete-image/:id", authed, DeleteProductImage(s.Catalog))
	}

	categories := api.Group("/categories")
	{
		categories.GET("", ListCategories(s.Taxonomy))
		categories.POST("/create", admin(CreateCategory(s.Taxonomy))...)
		categories.PUT("/update/:id", admin(UpdateCategory(s.Taxonomy))...)
		categories.DELETE("/delete/:id", admin(DeleteCategory(s.Taxonomy))...)
	}

	tags := api.Group("/tags")
	{
		tags.GET("", ListTags(s.Taxonomy))
		tags.POST("/create", admin(CreateTag(s.Taxonomy))...)
		tags.PUT("/update/:id", admin(UpdateTag(s.Taxonomy))...)
		tags.DELETE("/delete/:id", admin(DeleteTag(s.Taxonomy))...)
	}

	orders := api.Group("/orders")
	{
		orders.POST("/add", authed, AddOrder(s.Orders))
		orders.GET("", admin(ListOrders(s.Orders))...)
		orders.GET("/myorders", authed, MyOrders(s.Orders))
		orders.GET("/export/csv", admin(ExportOrdersCSV(s.Orders))...)
		orders.GET("/:id", authed, GetOrder(s.Orders))
		orders.PUT("/:id/pay", authed, PayOrder(s.Orders))
		orders.PUT("/:id/deliver", admin(DeliverOrder(s.Orders))...)
		orders.DELETE("/delete/:id", admin(DeleteOrder(s.Orders))...)
	}

	cart := api.Group("/cart", authed)
	{
		cart.GET("", GetCart(s.Carts))
		cart.POST("/add", AddToCart(s.Carts))
		cart.DELETE("/remove/:id", RemoveFromCart(s.Carts))
		cart.DELETE("/clear", ClearCart(s.Carts))
	}

	wishlist := api.Group("/wishlist", authed)
	{
		wishlist.GET("", GetWishlist(s.Carts))
		wishlist.POST("/toggle", ToggleWishlist(s.Carts))
	}

	api.GET("/dashboard/stats", admin(DashboardStats(s.Dashboard))...)

	users := api.Group("/users")
	{
		users.POST("/login", Login(s.Accounts))
		users.POST("/register", Register(s.Accounts))
		users.POST("/token/refresh", RefreshToken(s.Accounts))
		users.POST("/logout", Logout(s.Accounts))
		users.POST("/forgot-password", ForgotPassword(s.Accounts))
		users.POST("/reset-password/:uid/:token", ResetPassword(s.Accounts))
		users.GET("/activate/:uid/:token", ActivateAccount(s.Accounts))
		users.GET("/profile", authed, GetProfile(s.Accounts))
		users.PUT("/profile/update", authed, UpdateProfile(s.Accounts))
		users.GET("/seller/orders", authed, SellerOrders(s.Orders))
		users.GET("", admin(ListUsers(s.Accounts))...)
		users.GET("/:id", admin(GetUser(s.Accounts))...)
		users.PUT("/update/:id", admin(UpdateUser(s.Accounts))...)
		users.DELETE("/delete/:id", admin(DeleteUser(s.Accounts))...)
	}
}
