// Package imagestore persists composite images and export archives on the
// local filesystem.
package imagestore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/olaizola/maplabel/internal/core/ports"
)

// Store implements ports.ImageStore rooted at a directory. Writes go through
// a temp file and rename so readers never observe a partial image.
type Store struct {
	root string
}

var _ ports.ImageStore = (*Store)(nil)

// New creates the root directory if needed.
func New(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create image store root: %w", err)
	}
	return &Store{root: root}, nil
}

// Save writes data under name and returns the path relative to the root.
func (s *Store) Save(ctx context.Context, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	full := filepath.Join(s.root, filepath.Clean(name))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create image dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(full), ".tmp-*")
	if err != nil {
		return "", fmt.Errorf("create temp image: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("close temp image: %w", err)
	}
	if err := os.Rename(tmp.Name(), full); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("store image: %w", err)
	}

	rel, err := filepath.Rel(s.root, full)
	if err != nil {
		return "", fmt.Errorf("relativize image path: %w", err)
	}
	return rel, nil
}

// Open returns the bytes of a previously saved image.
func (s *Store) Open(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.root, filepath.Clean(path)))
	if err != nil {
		return nil, fmt.Errorf("open image %s: %w", path, err)
	}
	return data, nil
}

// Delete removes a stored image. Missing files are not an error.
func (s *Store) Delete(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := os.Remove(filepath.Join(s.root, filepath.Clean(path)))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete image %s: %w", path, err)
	}
	return nil
}
