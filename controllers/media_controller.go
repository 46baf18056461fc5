package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rogpool/pool-service-api/services"
)

// MediaController handles report photo uploads
type MediaController struct {
	media services.MediaService
}

// NewMediaController creates a new media controller
func NewMediaController(media services.MediaService) *MediaController {
	return &MediaController{media: media}
}

// UploadMedia handles POST /api/media - stores an image and returns its key and a presigned URL
func (ctrl *MediaController) UploadMedia(c *gin.Context) {
	if _, ok := currentUser(c); !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondErrorCode(c, http.StatusBadRequest, "MISSING_FILE", "An image must be uploaded in the 'file' field")
		return
	}

	obj, err := ctrl.media.UploadImage(c.Request.Context(), fileHeader)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    obj,
	})
}

// GetMedia handles GET /api/media/*key - redirects to a fresh presigned URL
func (ctrl *MediaController) GetMedia(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	if key == "" {
		respondErrorCode(c, http.StatusBadRequest, "INVALID_REQUEST", "Media key is required")
		return
	}

	url, err := ctrl.media.GetImageURL(c.Request.Context(), key)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Cache-Control", "private, max-age=300")
	c.Redirect(http.StatusFound, url)
}
