package services

import (
	"context"
	"fmt"
	"log"
	"mime/multipart"
	"strings"

	"github.com/google/uuid"
	"github.com/rogpool/pool-service-api/utils"
)

// MediaPathPrefix is the public path under which stored media is served.
// Report photos that reference it are removed from storage with the report.
const MediaPathPrefix = "/api/media/"

// MediaObject describes an uploaded file
type MediaObject struct {
	Key  string `json:"key"`
	URL  string `json:"url"`
	Path string `json:"path"`
}

// MediaService stores report photos
type MediaService interface {
	UploadImage(ctx context.Context, fileHeader *multipart.FileHeader) (*MediaObject, error)
	GetImageURL(ctx context.Context, key string) (string, error)
	DeleteImage(ctx context.Context, key string) error
}

// S3MediaService implements MediaService on top of S3
type S3MediaService struct {
	s3 S3Interface
}

// NewMediaService creates a media service. A nil backend yields a service that
// reports every call as unavailable.
func NewMediaService(backend S3Interface) MediaService {
	if backend == nil {
		return disabledMedia{}
	}
	return &S3MediaService{s3: backend}
}

// UploadImage validates and uploads an image under reports/<uuid><ext>
func (s *S3MediaService) UploadImage(ctx context.Context, fileHeader *multipart.FileHeader) (*MediaObject, error) {
	if err := utils.ValidateImageFile(fileHeader); err != nil {
		uploadErr := err.(*utils.FileUploadError)
		return nil, newError(ErrValidation, uploadErr.Code, "%s", uploadErr.Message)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			log.Printf("warning: failed to close file: %v", closeErr)
		}
	}()

	key := "reports/" + uuid.NewString() + utils.FileExt(fileHeader.Filename)
	if err := s.s3.UploadFile(ctx, key, utils.ImageContentType(fileHeader.Filename), file); err != nil {
		return nil, fmt.Errorf("failed to upload image: %w", err)
	}

	url, err := s.GetImageURL(ctx, key)
	if err != nil {
		return nil, err
	}
	return &MediaObject{Key: key, URL: url, Path: MediaPathPrefix + key}, nil
}

// GetImageURL generates a presigned URL for an image
func (s *S3MediaService) GetImageURL(ctx context.Context, key string) (string, error) {
	if !validMediaKey(key) {
		return "", newError(ErrNotFound, "MEDIA_NOT_FOUND", "Media not found")
	}

	url, err := s.s3.GetPresignedURL(ctx, key)
	if err != nil {
		return "", fmt.Errorf("failed to generate image URL: %w", err)
	}
	return url, nil
}

// DeleteImage removes an image from S3
func (s *S3MediaService) DeleteImage(ctx context.Context, key string) error {
	if !validMediaKey(key) {
		return nil
	}
	if err := s.s3.DeleteFile(ctx, key); err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	return nil
}

// MediaKeyFromPhoto returns the storage key when a photo references stored media
func MediaKeyFromPhoto(photo string) (string, bool) {
	key := strings.TrimPrefix(photo, MediaPathPrefix)
	if key == photo || !validMediaKey(key) {
		return "", false
	}
	return key, true
}

func validMediaKey(key string) bool {
	return strings.HasPrefix(key, "reports/") && !strings.Contains(key, "..")
}

type disabledMedia struct{}

func (disabledMedia) UploadImage(ctx context.Context, fileHeader *multipart.FileHeader) (*MediaObject, error) {
	return nil, errMediaUnavailable()
}

func (disabledMedia) GetImageURL(ctx context.Context, key string) (string, error) {
	return "", errMediaUnavailable()
}

func (disabledMedia) DeleteImage(ctx context.Context, key string) error {
	return nil
}

func errMediaUnavailable() error {
	return newError(ErrUnavailable, "MEDIA_UNAVAILABLE", "Media storage is not configured")
}
