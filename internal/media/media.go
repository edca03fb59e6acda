// Package media relays uploaded spot images to an external object store and
// hands back the public URL they are served from.
package media

import (
	"context"
	"errors"
	"io"
)

//go:generate mockgen -destination=mocks/uploader.go -package=mocks spotted/internal/media Uploader

var ErrNotConfigured = errors.New("media storage is not configured")

type Uploader interface {
	// Upload stores body under key and returns its public https URL.
	Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)
}

// Disabled is used when no bucket is configured; every upload fails.
type Disabled struct{}

func (Disabled) Upload(context.Context, string, io.Reader, int64, string) (string, error) {
	return "", ErrNotConfigured
}
