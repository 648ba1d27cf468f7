// Package storage keeps uploaded document blobs in a named container.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"
)

// ErrNotFound is returned when a key does not exist in the container.
var ErrNotFound = errors.New("object not found")

// Object describes a stored blob.
type Object struct {
	Key     string
	Size    int64
	ModTime time.Time
}

// Store is a flat object store. Keys use "/" as separator and are listed in
// lexical order.
type Store interface {
	Put(ctx context.Context, container, key string, data []byte) error
	Get(ctx context.Context, container, key string) ([]byte, error)
	List(ctx context.Context, container, prefix string) ([]Object, error)
	Delete(ctx context.Context, container, key string) error
	Close() error
}

// validateKey rejects keys that are empty, absolute or escape the container.
func validateKey(container, key string) error {
	if container == "" || strings.ContainsAny(container, `/\`) || strings.HasPrefix(container, ".") {
		return fmt.Errorf("invalid container %q", container)
	}
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, `\`) {
		return fmt.Errorf("invalid key %q", key)
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return fmt.Errorf("invalid key %q", key)
		}
	}
	if path.Clean(key) != key {
		return fmt.Errorf("invalid key %q", key)
	}
	return nil
}
