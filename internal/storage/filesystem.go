package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// stagingDir holds in-flight writes. Container names cannot start with a dot,
// so it never collides with a container directory.
const stagingDir = ".staging"

// FileStore keeps each container as a directory below root.
type FileStore struct {
	root string
}

func NewFileStore(root string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Join(root, stagingDir), 0700); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}
	return &FileStore{root: root}, nil
}

func (s *FileStore) path(container, key string) string {
	return filepath.Join(s.root, container, filepath.FromSlash(key))
}

func (s *FileStore) Put(ctx context.Context, container, key string, data []byte) error {
	if err := validateKey(container, key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	p := s.path(container, key)
	if err := os.MkdirAll(filepath.Dir(p), 0700); err != nil {
		return fmt.Errorf("creating object directory: %w", err)
	}

	// Write to a staged file first so readers never see a partial blob.
	tmp, err := os.CreateTemp(filepath.Join(s.root, stagingDir), "put-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing object: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("closing object: %w", err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("storing object: %w", err)
	}
	return nil
}

func (s *FileStore) Get(ctx context.Context, container, key string) ([]byte, error) {
	if err := validateKey(container, key); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path(container, key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading object: %w", err)
	}
	return data, nil
}

func (s *FileStore) List(ctx context.Context, container, prefix string) ([]Object, error) {
	dir := filepath.Join(s.root, container)
	var objects []Object
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return fs.SkipAll
			}
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if !strings.HasPrefix(key, prefix) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		objects = append(objects, Object{Key: key, Size: info.Size(), ModTime: info.ModTime()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing objects: %w", err)
	}

	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })
	return objects, nil
}

func (s *FileStore) Delete(ctx context.Context, container, key string) error {
	if err := validateKey(container, key); err != nil {
		return err
	}
	p := s.path(container, key)
	if err := os.Remove(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("deleting object: %w", err)
	}
	// Drop the per-document directory once it is empty.
	_ = os.Remove(filepath.Dir(p))
	return nil
}

func (s *FileStore) Close() error { return nil }
