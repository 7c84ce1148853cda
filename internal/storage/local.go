package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Local keeps blobs under Root/<bucket>/<key> and serves them from
// BaseURL/media/<bucket>/<key>.
type Local struct {
	Root    string
	BaseURL string
}

// NewLocal creates root if needed.
func NewLocal(root, baseURL string) (*Local, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create %s: %w", root, err)
	}
	return &Local{Root: root, BaseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Put writes r to a temp file next to the target and renames it into
// place, so readers never see a partial object.
func (l *Local) Put(ctx context.Context, bucket, key string, r io.Reader, _ string) (Object, error) {
	k, err := cleanKey(bucket, key)
	if err != nil {
		return Object{}, err
	}
	if err := ctx.Err(); err != nil {
		return Object{}, err
	}

	dst := filepath.Join(l.Root, bucket, filepath.FromSlash(k))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return Object{}, fmt.Errorf("storage: mkdir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return Object{}, fmt.Errorf("storage: temp: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op after rename

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return Object{}, fmt.Errorf("storage: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return Object{}, fmt.Errorf("storage: close: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return Object{}, fmt.Errorf("storage: chmod: %w", err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return Object{}, fmt.Errorf("storage: rename: %w", err)
	}
	return Object{URL: l.BaseURL + "/media/" + bucket + "/" + k, Path: k}, nil
}
