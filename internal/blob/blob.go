// Package blob stores product images and hands back their public URLs.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"strings"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a key does not exist in the store
var ErrNotFound = errors.New("blob not found")

// Object is a stored blob
type Object struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// Store uploads and deletes blobs. Uploaded objects are publicly readable at
// Object.URL.
type Store interface {
	Upload(ctx context.Context, key, contentType string, r io.Reader) (Object, error)
	Delete(ctx context.Context, key string) error
}

// NewKey builds a unique key for an image owned by a supplier. The extension
// follows the declared content type when it is known.
func NewKey(owner uuid.UUID, contentType string) string {
	ext := ""
	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
		ext = exts[0]
	}
	return fmt.Sprintf("%s_%s%s", owner, uuid.NewString(), ext)
}

// IsImage reports whether the content type names an image
func IsImage(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return strings.HasPrefix(mediaType, "image/")
}
