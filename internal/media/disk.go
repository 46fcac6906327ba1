package media

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// DiskStore writes images below Dir and serves them under BaseURL.
type DiskStore struct {
	Dir     string
	BaseURL string
}

func NewDiskStore(dir, baseURL string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("media: create %s: %w", dir, err)
	}
	return &DiskStore{Dir: dir, BaseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *DiskStore) Store(ctx context.Context, data []byte, folder, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	rel, err := clean(folder, name+".jpg")
	if err != nil {
		return "", err
	}
	full := filepath.Join(s.Dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("media: mkdir: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", fmt.Errorf("media: write: %w", err)
	}
	return s.BaseURL + "/" + rel, nil
}

func (s *DiskStore) DeleteFolder(ctx context.Context, folder string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rel, err := clean(folder)
	if err != nil {
		return err
	}
	return os.RemoveAll(filepath.Join(s.Dir, filepath.FromSlash(rel)))
}

// clean joins elements and refuses anything escaping the store root.
func clean(elem ...string) (string, error) {
	rel := path.Clean(path.Join(elem...))
	if rel == "." || rel == "" || strings.HasPrefix(rel, "..") || path.IsAbs(rel) {
		return "", fmt.Errorf("media: invalid path %q", rel)
	}
	return rel, nil
}
