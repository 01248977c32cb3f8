package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/AmrIbrahim41/smart-shop/internal/middleware"
	"github.com/AmrIbrahim41/smart-shop/internal/service"
)

type loginRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password" binding:"required"`
}

type registerRequest struct {
	FirstName       string `json:"first_name" binding:"max=150"`
	LastName        string `json:"last_name" binding:"max=150"`
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required"`
	ConfirmPassword string `json:"confirm_password"`
	Phone           string `json:"phone" binding:"max=30"`
	Type            string `json:"type"`
}

type refreshRequest struct {
	Refresh string `json:"refresh" binding:"required"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" binding:"required"`
}

type resetPasswordRequest struct {
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

type adminUserRequest struct {
	Name    *string `json:"name"`
	Email   *string `json:"email" binding:"omitempty,email"`
	IsAdmin *bool   `json:"isAdmin"`
}

func Login(accounts *service.AccountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /users/login"
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, route, err)
			return
		}
		identifier := req.Email
		if strings.TrimSpace(identifier) == "" {
			identifier = req.Username
		}
		session, err := accounts.Login(c.Request.Context(), identifier, req.Password)
		if err != nil {
			respondWithError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, session)
	}
}

/*
POST /users/register
- account starts inactive, the activation link goes out by mail
*/
func Register(accounts *service.AccountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /users/register"
		var req registerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, route, err)
			return
		}
		err := accounts.Register(c.Request.Context(), service.RegisterInput{
			FirstName:       req.FirstName,
			LastName:        req.LastName,
			Email:           req.Email,
			Password:        req.Password,
			ConfirmPassword: req.ConfirmPassword,
			Phone:           req.Phone,
			Type:            req.Type,
		})
		if err != nil {
			respondWithError(c, route, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{
			"details": "account created successfully, please check your email to activate your account.",
		})
	}
}

func RefreshToken(accounts *service.AccountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /users/token/refresh"
		var req refreshRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, route, err)
			return
		}
		session, err := accounts.Refresh(c.Request.Context(), req.Refresh)
		if err != nil {
			respondWithError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, session)
	}
}

func Logout(accounts *service.AccountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /users/logout"
		var req refreshRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, route, err)
			return
		}
		if err := accounts.Logout(c.Request.Context(), req.Refresh); err != nil {
			respondWithError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"details": "Logged out"})
	}
}

// ForgotPassword answers the same way whether or not the account exists.
func ForgotPassword(accounts *service.AccountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /users/forgot-password"
		var req forgotPasswordRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, route, err)
			return
		}
		if err := accounts.ForgotPassword(c.Request.Context(), req.Email); err != nil {
			respondWithError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"details": "If this email exists, a reset link has been sent."})
	}
}

func ResetPassword(accounts *service.AccountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /users/reset-password/:uid/:token"
		var req resetPasswordRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, route, err)
			return
		}
		err := accounts.ResetPassword(c.Request.Context(), c.Param("uid"), c.Param("token"), req.Password, req.ConfirmPassword)
		if err != nil {
			respondWithError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"details": "Password reset successful! You can login now."})
	}
}

func ActivateAccount(accounts *service.AccountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /users/activate/:uid/:token"
		if err := accounts.Activate(c.Request.Context(), c.Param("uid"), c.Param("token")); err != nil {
			respondWithError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"details": "Account activated successfully! You can login now."})
	}
}

func GetProfile(accounts *service.AccountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /users/profile"
		user, err := accounts.Profile(c.Request.Context(), middleware.Principal(c))
		if err != nil {
			respondWithError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

// UpdateProfile takes a multipart form (with profilePicture) or JSON.
func UpdateProfile(accounts *service.AccountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /users/profile/update"

		fields, err := requestFields(c)
		if err != nil {
			respondWithError(c, route, err)
			return
		}
		optional := func(key string) *string {
			if v, ok := fields.value(key); ok {
				return &v
			}
			return nil
		}

		in := service.ProfileInput{
			FirstName: optional("first_name"),
			LastName:  optional("last_name"),
			Phone:     optional("phone"),
			City:      optional("city"),
			Country:   optional("country"),
		}
		in.Password, _ = fields.value("password")
		in.Birthdate, _ = fields.value("birthdate")

		picture, err := formFile(c, "profilePicture")
		if err != nil {
			respondWithError(c, route, err)
			return
		}
		in.Picture = picture

		user, err := accounts.UpdateProfile(c.Request.Context(), middleware.Principal(c), in)
		if err != nil {
			respondWithError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

func SellerOrders(orders *service.OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /users/seller/orders"
		lines, err := orders.SellerOrders(c.Request.Context(), middleware.Principal(c))
		if err != nil {
			respondWithError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, lines)
	}
}

func ListUsers(accounts *service.AccountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /users"
		users, err := accounts.Users(c.Request.Context(), middleware.Principal(c))
		if err != nil {
			respondWithError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, users)
	}
}

func GetUser(accounts *service.AccountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /users/:id"
		id, ok := objectIDParam(c, "id", "User not found")
		if !ok {
			return
		}
		user, err := accounts.User(c.Request.Context(), middleware.Principal(c), id)
		if err != nil {
			respondWithError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

func UpdateUser(accounts *service.AccountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /users/update/:id"
		id, ok := objectIDParam(c, "id", "User not found")
		if !ok {
			return
		}
		var req adminUserRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, route, err)
			return
		}
		user, err := accounts.UpdateUser(c.Request.Context(), middleware.Principal(c), id,
			service.AdminUserInput{Name: req.Name, Email: req.Email, IsAdmin: req.IsAdmin})
		if err != nil {
			respondWithError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

func DeleteUser(accounts *service.AccountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /users/delete/:id"
		id, ok := objectIDParam(c, "id", "User not found")
		if !ok {
			return
		}
		if err := accounts.DeleteUser(c.Request.Context(), middleware.Principal(c), id); err != nil {
			respondWithError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, "User was deleted")
	}
}
