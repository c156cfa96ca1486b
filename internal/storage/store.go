// Package storage wraps the object store holding venue and gallery images.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
)

var (
	ErrNotFound = errors.New("object not found")
	// ErrBackend marks a failure of the store itself (unreachable, denied,
	// timed out) as opposed to a missing object.
	ErrBackend = errors.New("object storage unavailable")
)

// BackendError wraps err with ErrBackend. nil, ErrNotFound and errors
// already marked pass through unchanged.
func BackendError(op string, err error) error {
	if err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, ErrBackend) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, ErrBackend, err)
}

const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

// Object describes one stored blob.
type Object struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	ContentType  string    `json:"contentType,omitempty"`
	ETag         string    `json:"etag,omitempty"`
	LastModified time.Time `json:"lastModified"`
}

// ObjectPage is one page of a listing. Pass NextStartAfter back as
// startAfter to fetch the following page.
type ObjectPage struct {
	Objects        []Object `json:"objects"`
	NextStartAfter string   `json:"nextStartAfter,omitempty"`
	Truncated      bool     `json:"truncated"`
}

// BlobStore is implemented by MinIOStorage and MemoryStore.
type BlobStore interface {
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	// Download returns ErrNotFound when key does not exist.
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	List(ctx context.Context, prefix, startAfter string, limit int) (ObjectPage, error)
	URL(ctx context.Context, key string) (string, error)
}

// ClampLimit applies the listing default and ceiling.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}

// CleanKey normalises a user supplied key or prefix. It rejects parent
// directory segments and strips leading slashes.
func CleanKey(key string) (string, error) {
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if key == "" {
		return "", nil
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == ".." {
			return "", errors.New("invalid key")
		}
	}
	trailing := strings.HasSuffix(key, "/")
	key = path.Clean(key)
	if trailing {
		key += "/"
	}
	return key, nil
}

// ContentTypeFor guesses a content type from the key extension.
func ContentTypeFor(key string) string {
	switch strings.ToLower(path.Ext(key)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	case ".gif":
		return "image/gif"
	case ".json":
		return "application/json"
	case ".jsonl":
		return "application/x-ndjson"
	}
	return "application/octet-stream"
}
