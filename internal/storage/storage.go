// Package storage puts uploaded images somewhere they can be served from and
// maps public URLs back to object paths.
package storage

import (
	"context"
	"errors"
	"strings"

	"github.com/oklog/ulid/v2"
)

var ErrInvalidPath = errors.New("storage: invalid object path")

// Storage is a bucketed object store with public read access.
type Storage interface {
	Upload(ctx context.Context, bucket, path string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, bucket, path string) error
	PublicURL(bucket, path string) string
	// ObjectPath returns the bucket and path behind a URL returned by
	// PublicURL. ok is false for URLs this store did not issue.
	ObjectPath(publicURL string) (bucket, path string, ok bool)
}

// ObjectKey returns a unique, time-ordered object path under prefix.
func ObjectKey(prefix, ext string) string {
	key := strings.ToLower(ulid.Make().String()) + ext
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return key
	}
	return prefix + "/" + key
}

func cleanPath(p string) (string, error) {
	p = strings.TrimLeft(p, "/")
	if p == "" {
		return "", ErrInvalidPath
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return "", ErrInvalidPath
		}
	}
	return p, nil
}

func splitURL(base, publicURL string) (bucket, path string, ok bool) {
	base = strings.TrimRight(base, "/") + "/"
	rest, found := strings.CutPrefix(publicURL, base)
	if !found {
		return "", "", false
	}
	bucket, path, found = strings.Cut(rest, "/")
	if !found || bucket == "" || path == "" {
		return "", "", false
	}
	return bucket, path, true
}
