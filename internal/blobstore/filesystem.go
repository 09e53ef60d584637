// Package blobstore stores generated media and hands back public URLs.
package blobstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/chris/mira/internal/model"
)

// MediaPrefix is the URL path the HTTP layer serves stored objects under.
const MediaPrefix = "/media/"

// FilesystemStore writes objects below a base directory. URLs point at
// publicURL + MediaPrefix + key.
type FilesystemStore struct {
	baseDir   string
	publicURL string
}

func NewFilesystemStore(baseDir, publicURL string) (*FilesystemStore, error) {
	if baseDir == "" {
		baseDir = "data/media"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create media dir: %w", err)
	}
	return &FilesystemStore{baseDir: baseDir, publicURL: strings.TrimRight(publicURL, "/")}, nil
}

// Put stores data under key and returns its public URL. The content type is
// implied by the key's extension when served.
func (s *FilesystemStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	p, err := s.Path(key)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return "", fmt.Errorf("ensure media dir: %w: %w", model.ErrStorageUnavailable, err)
	}
	f, err := os.Create(p)
	if err != nil {
		return "", fmt.Errorf("create object: %w: %w", model.ErrStorageUnavailable, err)
	}
	if _, err := io.Copy(f, bytes.NewReader(data)); err != nil {
		_ = f.Close()
		_ = os.Remove(p)
		return "", fmt.Errorf("write object: %w: %w", model.ErrStorageUnavailable, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close object: %w: %w", model.ErrStorageUnavailable, err)
	}
	return s.URL(key), nil
}

// URL is the public address of key.
func (s *FilesystemStore) URL(key string) string {
	u := s.publicURL + MediaPrefix
	for i, seg := range strings.Split(key, "/") {
		if i > 0 {
			u += "/"
		}
		u += url.PathEscape(seg)
	}
	return u
}

// Path maps key to a file below the base directory, rejecting keys that
// would escape it.
func (s *FilesystemStore) Path(key string) (string, error) {
	clean := path.Clean("/" + key)
	if key == "" || clean == "/" || strings.Contains(key, "..") {
		return "", model.Invalid("key", "invalid object key %q", key)
	}
	return filepath.Join(s.baseDir, filepath.FromSlash(strings.TrimPrefix(clean, "/"))), nil
}
