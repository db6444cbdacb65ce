package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/nkiryanov/festival/internal/apperrors"
)

// Store keeps binary assets addressed by slash separated keys like "bands/bands_1_0a1b.png"
type Store interface {
	// Write object, replacing existing one with the same key
	Put(ctx context.Context, key string, data []byte, contentType string) error

	// Remove object. Missing object is not an error
	Delete(ctx context.Context, key string) error

	// Open object for reading. apperrors.ErrAssetNotFound if there is no such object
	Open(ctx context.Context, key string) (io.ReadSeekCloser, ObjectInfo, error)
}

type ObjectInfo struct {
	Size        int64
	ContentType string
	ModTime     time.Time
}

// CleanKey validates key and returns it in canonical form
// Absolute keys and keys escaping the store root are rejected with apperrors.ErrInvalidAssetPath
func CleanKey(key string) (string, error) {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, `\`) {
		return "", fmt.Errorf("%w: %q", apperrors.ErrInvalidAssetPath, key)
	}

	for _, part := range strings.Split(key, "/") {
		if part == ".." {
			return "", fmt.Errorf("%w: %q", apperrors.ErrInvalidAssetPath, key)
		}
	}

	cleaned := path.Clean(key)
	if cleaned == "." {
		return "", fmt.Errorf("%w: %q", apperrors.ErrInvalidAssetPath, key)
	}

	return cleaned, nil
}
