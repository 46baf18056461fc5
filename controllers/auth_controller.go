package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rogpool/pool-service-api/services"
)

// LoginRequest represents the request body for logging in
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthController handles login and identity lookups
type AuthController struct {
	users *services.UserService
}

// NewAuthController creates a new auth controller
func NewAuthController(users *services.UserService) *AuthController {
	return &AuthController{users: users}
}

// Login handles POST /api/auth/login - exchanges credentials for a bearer token
func (ctrl *AuthController) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidBody(c, err)
		return
	}

	result, err := ctrl.users.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	user := gin.H{
		"id":       result.User.ID,
		"username": result.User.Username,
		"role":     result.User.Role,
	}
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"access_token": result.AccessToken,
		"token_type":   "bearer",
		"user":         user,
	})
}

// Me handles GET /api/auth/me - returns the authenticated user
func (ctrl *AuthController) Me(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    user,
	})
}
