package utils

import (
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"
)

const (
	// MaxFileSize is 10MB in bytes
	MaxFileSize = 10 * 1024 * 1024
	// SpreadsheetFormat is the only accepted import format
	SpreadsheetFormat = ".xlsx"
)

// AllowedImageFormats maps accepted image extensions to their content type
var AllowedImageFormats = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
}

// FileUploadError represents a file upload validation error
type FileUploadError struct {
	Code    string
	Message string
}

func (e *FileUploadError) Error() string {
	return e.Message
}

// ValidateImageFile validates the uploaded image format and size
func ValidateImageFile(fileHeader *multipart.FileHeader) error {
	if err := validateSize(fileHeader); err != nil {
		return err
	}

	if _, ok := AllowedImageFormats[FileExt(fileHeader.Filename)]; !ok {
		return &FileUploadError{
			Code:    "INVALID_FILE_FORMAT",
			Message: "Only .png, .jpg and .jpeg files are allowed",
		}
	}

	return nil
}

// ValidateSpreadsheetFile validates an uploaded client import workbook
func ValidateSpreadsheetFile(fileHeader *multipart.FileHeader) error {
	if err := validateSize(fileHeader); err != nil {
		return err
	}

	if FileExt(fileHeader.Filename) != SpreadsheetFormat {
		return &FileUploadError{
			Code:    "INVALID_FILE_FORMAT",
			Message: fmt.Sprintf("Only %s files are allowed", SpreadsheetFormat),
		}
	}

	return nil
}

// ImageContentType returns the content type for an accepted image filename
func ImageContentType(filename string) string {
	if ct, ok := AllowedImageFormats[FileExt(filename)]; ok {
		return ct
	}
	return "application/octet-stream"
}

// FileExt returns the lower-cased extension of a filename
func FileExt(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}

func validateSize(fileHeader *multipart.FileHeader) error {
	if fileHeader.Size > MaxFileSize {
		return &FileUploadError{
			Code:    "FILE_TOO_LARGE",
			Message: fmt.Sprintf("File size exceeds maximum allowed size of %d MB", MaxFileSize/(1024*1024)),
		}
	}
	return nil
}
