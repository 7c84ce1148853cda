// Package storage puts uploaded images somewhere a browser can fetch them.
// Two backends exist: Local writes under a directory served by the HTTP
// server, Cloudinary pushes to a Cloudinary account.
package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
)

// Object is a stored blob. Path is the key inside its bucket.
type Object struct {
	URL  string `json:"url"`
	Path string `json:"path"`
}

// BlobStore stores r under bucket/key.
type BlobStore interface {
	Put(ctx context.Context, bucket, key string, r io.Reader, contentType string) (Object, error)
}

// ErrBadKey is returned for keys that are empty or escape their bucket.
var ErrBadKey = errors.New("storage: invalid object key")

// cleanKey rejects absolute keys and parent references.
func cleanKey(bucket, key string) (string, error) {
	if bucket == "" || strings.ContainsAny(bucket, "/\\") || bucket == "." || bucket == ".." {
		return "", ErrBadKey
	}
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return "", ErrBadKey
	}
	k := path.Clean(key)
	if k != key || k == "." || strings.HasPrefix(k, "../") || k == ".." {
		return "", ErrBadKey
	}
	return k, nil
}
