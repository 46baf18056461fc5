package controllers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rogpool/pool-service-api/middleware"
	"github.com/rogpool/pool-service-api/models"
	"github.com/rogpool/pool-service-api/services"
	"github.com/rogpool/pool-service-api/utils"
)

// respondError writes the error envelope with the status matching the error kind
func respondError(c *gin.Context, err error) {
	var svcErr *services.Error
	if errors.As(err, &svcErr) && !errors.Is(err, services.ErrInternal) {
		c.JSON(statusFor(err), gin.H{
			"success": false,
			"error": gin.H{
				"code":    svcErr.Code,
				"message": svcErr.Message,
			},
		})
		return
	}

	var uploadErr *utils.FileUploadError
	if errors.As(err, &uploadErr) {
		respondErrorCode(c, http.StatusBadRequest, uploadErr.Code, uploadErr.Message)
		return
	}

	log.Printf("Internal error on %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	respondErrorCode(c, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred")
}

func respondErrorCode(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

func respondInvalidBody(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "VALIDATION_ERROR",
			"message": "Invalid request data",
			"details": err.Error(),
		},
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, services.ErrUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// respondList writes a listing. With degraded mode on, an unreachable
// datastore yields an empty list instead of a 503.
func respondList[T any](c *gin.Context, items []T, err error, degraded bool) {
	if err != nil {
		if degraded && errors.Is(err, services.ErrUnavailable) {
			c.JSON(http.StatusOK, gin.H{
				"success":  true,
				"data":     []T{},
				"degraded": true,
			})
			return
		}
		respondError(c, err)
		return
	}

	if items == nil {
		items = []T{}
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    items,
	})
}

// currentUser reads the authenticated user, writing a 401 when absent
func currentUser(c *gin.Context) (*models.User, bool) {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		respondErrorCode(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user information")
		return nil, false
	}
	return user, true
}
