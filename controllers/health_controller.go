package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rogpool/pool-service-api/store"
)

// HealthController reports service and dependency status
type HealthController struct {
	store store.Store
	redis *redis.Client
}

// NewHealthController creates a new health controller. rdb may be nil.
func NewHealthController(s store.Store, rdb *redis.Client) *HealthController {
	return &HealthController{store: s, redis: rdb}
}

// Root handles GET /api/
func (ctrl *HealthController) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"message":  "Pool Maintenance API",
		"database": ctrl.databaseStatus(c.Request.Context()),
		"endpoints": []string{
			"/api/auth/login",
			"/api/auth/me",
			"/api/clients",
			"/api/reports",
			"/api/users",
			"/api/media",
			"/api/health",
		},
	})
}

// Health handles GET /api/health
func (ctrl *HealthController) Health(c *gin.Context) {
	ctx := c.Request.Context()
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"status":   "healthy",
		"service":  "pool-service-api",
		"database": ctrl.databaseStatus(ctx),
		"redis":    ctrl.redisStatus(ctx),
	})
}

func (ctrl *HealthController) databaseStatus(ctx context.Context) string {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := ctrl.store.Ping(ctx); err != nil {
		return "disconnected"
	}
	return "connected"
}

func (ctrl *HealthController) redisStatus(ctx context.Context) string {
	if ctrl.redis == nil {
		return "disabled"
	}
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := ctrl.redis.Ping(ctx).Err(); err != nil {
		return "disconnected"
	}
	return "connected"
}
