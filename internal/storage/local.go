package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LocalStorage keeps objects under Dir/bucket/path and serves them from
// BaseURL/bucket/path.
type LocalStorage struct {
	Dir     string
	BaseURL string
}

func NewLocalStorage(dir, baseURL string) *LocalStorage {
	return &LocalStorage{Dir: dir, BaseURL: strings.TrimRight(baseURL, "/")}
}

func (l *LocalStorage) file(bucket, path string) (string, error) {
	if _, err := cleanPath(bucket); err != nil || strings.Contains(bucket, "/") {
		return "", ErrInvalidPath
	}
	p, err := cleanPath(path)
	if err != nil {
		return "", err
	}
	return filepath.Join(l.Dir, bucket, filepath.FromSlash(p)), nil
}

func (l *LocalStorage) Upload(ctx context.Context, bucket, path string, data []byte, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name, err := l.file(bucket, path)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(name), 0o755); err != nil {
		return "", fmt.Errorf("create bucket dir: %w", err)
	}
	if err := os.WriteFile(name, data, 0o644); err != nil {
		return "", fmt.Errorf("write object: %w", err)
	}
	return l.PublicURL(bucket, path), nil
}

// Delete removes the object. Deleting a missing object is not an error.
func (l *LocalStorage) Delete(ctx context.Context, bucket, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	name, err := l.file(bucket, path)
	if err != nil {
		return err
	}
	if err := os.Remove(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove object: %w", err)
	}
	return nil
}

func (l *LocalStorage) PublicURL(bucket, path string) string {
	return fmt.Sprintf("%s/%s/%s", l.BaseURL, bucket, strings.TrimLeft(path, "/"))
}

func (l *LocalStorage) ObjectPath(publicURL string) (string, string, bool) {
	return splitURL(l.BaseURL, publicURL)
}
