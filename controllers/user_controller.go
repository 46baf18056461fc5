package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rogpool/pool-service-api/models"
	"github.com/rogpool/pool-service-api/services"
)

// CreateUserRequest represents the request body for creating an account
type CreateUserRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role" binding:"omitempty,oneof=administrator admin employee"`
}

// UserController handles account management (administrators only)
type UserController struct {
	users    *services.UserService
	degraded bool
}

// NewUserController creates a new user controller
func NewUserController(users *services.UserService, degraded bool) *UserController {
	return &UserController{users: users, degraded: degraded}
}

// ListUsers handles GET /api/users
func (ctrl *UserController) ListUsers(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}

	users, err := ctrl.users.ListUsers(c.Request.Context(), actor)
	respondList[models.User](c, users, err, ctrl.degraded)
}

// CreateUser handles POST /api/users
func (ctrl *UserController) CreateUser(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}

	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidBody(c, err)
		return
	}

	user, err := ctrl.users.CreateUser(c.Request.Context(), actor, services.NewUserInput{
		Username: req.Username,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    user,
	})
}

// DeleteUser handles DELETE /api/users/:id
func (ctrl *UserController) DeleteUser(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}

	if err := ctrl.users.DeleteUser(c.Request.Context(), actor, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "User deleted successfully",
	})
}
