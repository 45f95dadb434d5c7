// Package storage persists uploaded files under a fixed upload prefix.
package storage

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// postPrefix is the sub-directory for post featured images.
const postPrefix = "posts"

var allowedImageExts = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".gif":  {},
	".webp": {},
}

// Store writes uploads below a root directory and addresses them by the
// generated relative path.
type Store struct {
	root string
}

// NewStore creates a Store rooted at dir, creating it when missing.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(filepath.Join(dir, postPrefix), 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Store{root: dir}, nil
}

// SavePostImage stores an uploaded featured image and returns its path
// relative to the upload root (e.g. "posts/3f1c….png").
func (s *Store) SavePostImage(file *multipart.FileHeader) (string, error) {
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if _, ok := allowedImageExts[ext]; !ok {
		return "", fmt.Errorf("unsupported image type %q", ext)
	}

	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	rel := filepath.Join(postPrefix, uuid.New().String()+ext)
	dst, err := os.Create(filepath.Join(s.root, rel))
	if err != nil {
		return "", fmt.Errorf("create upload target: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}
	return filepath.ToSlash(rel), nil
}

// Root returns the upload root directory.
func (s *Store) Root() string {
	return s.root
}
