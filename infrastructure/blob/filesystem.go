// Package blob implements the object store (C1) against the local
// filesystem: no S3 (or compatible) client is available in this module's
// dependency set, so this adapter is a small, self-contained layer over
// os/io instead of a third-party storage SDK — the one component in this
// module built on the standard library alone, justified in DESIGN.md.
package blob

import (
	"context"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/codesense-dev/codesense/domain/blob"
)

// FilesystemStore stores objects under root, one file per key plus a
// sibling ".ctype" file carrying the content type.
type FilesystemStore struct {
	root string
}

// NewFilesystemStore creates a FilesystemStore rooted at dir (typically
// {dataDir}/blobs).
func NewFilesystemStore(dir string) *FilesystemStore {
	return &FilesystemStore{root: dir}
}

// Put writes obj atomically: the content is written to a temp file in the
// same directory, then renamed into place, so a concurrent Get never
// observes a partial write.
func (s *FilesystemStore) Put(_ context.Context, key string, obj blob.Object) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create blob directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp blob file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) //nolint:errcheck

	if _, err := tmp.Write(obj.Content); err != nil {
		tmp.Close() //nolint:errcheck
		return fmt.Errorf("write blob %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp blob file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("commit blob %s: %w", key, err)
	}

	contentType := obj.ContentType
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(key))
	}
	if contentType != "" {
		if err := os.WriteFile(path+".ctype", []byte(contentType), 0o644); err != nil {
			return fmt.Errorf("write content type for blob %s: %w", key, err)
		}
	}

	return nil
}

// Get reads the object stored at key.
func (s *FilesystemStore) Get(_ context.Context, key string) (blob.Object, error) {
	path, err := s.resolve(key)
	if err != nil {
		return blob.Object{}, err
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return blob.Object{}, blob.ErrNotFound
		}
		return blob.Object{}, fmt.Errorf("read blob %s: %w", key, err)
	}

	contentType := ""
	if ct, err := os.ReadFile(path + ".ctype"); err == nil {
		contentType = string(ct)
	}

	return blob.Object{Content: content, ContentType: contentType}, nil
}

// List returns every key under prefix, sorted by directory-walk order.
func (s *FilesystemStore) List(_ context.Context, prefix string) ([]string, error) {
	base, err := s.resolve(prefix)
	if err != nil {
		return nil, err
	}

	var keys []string
	walkRoot := base
	if info, err := os.Stat(base); err != nil || !info.IsDir() {
		walkRoot = filepath.Dir(base)
	}

	err = filepath.WalkDir(walkRoot, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if os.IsNotExist(walkErr) {
				return nil
			}
			return walkErr
		}
		if d.IsDir() || strings.HasSuffix(path, ".ctype") {
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list blobs under %s: %w", prefix, err)
	}

	return keys, nil
}

// Delete removes every object under prefix.
func (s *FilesystemStore) Delete(ctx context.Context, prefix string) error {
	keys, err := s.List(ctx, prefix)
	if err != nil {
		return err
	}

	for _, key := range keys {
		path, err := s.resolve(key)
		if err != nil {
			return err
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("delete blob %s: %w", key, err)
		}
		_ = os.Remove(path + ".ctype")
	}

	return nil
}

// resolve joins key onto root, rejecting any key that would escape it.
func (s *FilesystemStore) resolve(key string) (string, error) {
	clean := filepath.Clean("/" + key)
	path := filepath.Join(s.root, clean)
	if !strings.HasPrefix(path, filepath.Clean(s.root)+string(os.PathSeparator)) && path != filepath.Clean(s.root) {
		return "", fmt.Errorf("blob key %q escapes store root", key)
	}
	return path, nil
}

var _ blob.Store = (*FilesystemStore)(nil)
