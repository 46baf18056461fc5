package controllers

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

// SPAFallback serves the single-page frontend for any non-API path.
// Existing files are served as-is; everything else gets index.html.
func SPAFallback(staticDir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if path == "/api" || strings.HasPrefix(path, "/api/") {
			respondErrorCode(c, http.StatusNotFound, "NOT_FOUND", "Endpoint not found")
			return
		}
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			respondErrorCode(c, http.StatusNotFound, "NOT_FOUND", "Endpoint not found")
			return
		}

		// Clean against a rooted path so ".." cannot escape staticDir
		file := filepath.Join(staticDir, filepath.FromSlash(filepath.Clean("/"+path)))
		if info, err := os.Stat(file); err == nil && !info.IsDir() {
			c.File(file)
			return
		}

		index := filepath.Join(staticDir, "index.html")
		if _, err := os.Stat(index); err == nil {
			c.File(index)
			return
		}

		respondErrorCode(c, http.StatusNotFound, "NOT_FOUND", "Resource not found")
	}
}
