package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

// DiskStore keeps blobs as plain files below a root directory, so keys such
// as "uploads/a.png" map to <root>/uploads/a.png.
type DiskStore struct {
	root string
}

func NewDiskStore(root string) (*DiskStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("disk store root: %w", err)
	}
	return &DiskStore{root: root}, nil
}

// Upload writes data to a temp file next to the target and renames it into
// place, so readers never observe a partially written image.
func (s *DiskStore) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("disk mkdir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("disk temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("disk write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("disk close %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("disk rename %s: %w", key, err)
	}
	return nil
}

// Download reads a blob; the content type is derived from the extension.
func (s *DiskStore) Download(ctx context.Context, key string) ([]byte, string, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, "", fmt.Errorf("disk read %s: %w", key, ErrNotFound)
		}
		return nil, "", fmt.Errorf("disk read %s: %w", key, err)
	}
	ct := mime.TypeByExtension(filepath.Ext(path))
	if ct == "" {
		ct = "application/octet-stream"
	}
	return data, ct, nil
}

func (s *DiskStore) path(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("disk key %q: %w", key, ErrNotFound)
	}
	return filepath.Join(s.root, clean), nil
}
