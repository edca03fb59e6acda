package handlers

import (
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"spotted/internal/media"
)

const maxImageSize = 10 << 20

var allowedImageExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".gif":  "image/gif",
	".avif": "image/avif",
}

// Upload relays the multipart "image" file to the image host and returns the
// URL it is served from.
func Upload(uploader media.Uploader, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		file, err := c.FormFile("image")
		if err != nil {
			if !errors.Is(err, http.ErrMissingFile) && !errors.Is(err, http.ErrNotMultipart) {
				logger.Warn("multipart parse failed", zap.Error(err))
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded!"})
			return
		}

		key, contentType, err := imageObjectKey(file)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		in, err := file.Open()
		if err != nil {
			logger.Error("open upload failed", zap.String("filename", file.Filename), zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"error": "could not read upload"})
			return
		}
		defer in.Close()

		url, err := uploader.Upload(c.Request.Context(), key, in, file.Size, contentType)
		if errors.Is(err, media.ErrNotConfigured) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "image uploads are disabled"})
			return
		}
		if err != nil {
			logger.Error("image relay failed", zap.String("key", key), zap.Error(err))
			c.JSON(http.StatusBadGateway, gin.H{"error": "upload failed"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"secure_url": url})
	}
}

// imageObjectKey checks the upload and names the stored object after a fresh
// ObjectID so client file names never reach the bucket.
func imageObjectKey(file *multipart.FileHeader) (string, string, error) {
	extension := strings.ToLower(filepath.Ext(file.Filename))
	if extension == "" {
		return "", "", fmt.Errorf("image file extension is required")
	}
	contentType, ok := allowedImageExtensions[extension]
	if !ok {
		return "", "", fmt.Errorf("unsupported image type: %s", extension)
	}
	if file.Size > maxImageSize {
		return "", "", fmt.Errorf("image file too large (max %dMB)", maxImageSize>>20)
	}

	if header := file.Header.Get("Content-Type"); header != "" {
		if parsed, _, err := mime.ParseMediaType(header); err == nil && strings.HasPrefix(parsed, "image/") {
			contentType = parsed
		}
	}

	return "spots/" + primitive.NewObjectID().Hex() + extension, contentType, nil
}
