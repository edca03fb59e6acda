package handlers

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

// SinglePageApp serves the built front-end from dir for unmatched GET and HEAD
// requests, falling back to index.html so client-side routes resolve.
func SinglePageApp(dir string) gin.HandlerFunc {
	root := filepath.Clean(dir)
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}

		rel := strings.TrimPrefix(path.Clean("/"+c.Request.URL.Path), "/")
		target := filepath.Join(root, filepath.FromSlash(rel))
		if rel != "" {
			if info, err := os.Stat(target); err == nil && !info.IsDir() {
				c.File(target)
				return
			}
		}
		c.File(filepath.Join(root, "index.html"))
	}
}
