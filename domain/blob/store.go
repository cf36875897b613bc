// Package blob declares the object-store contract (C1): durable storage for
// the source tarballs and derived artifacts an ingestion run produces,
// keyed by {provider}/{owner}/{name}/{commit_sha}/{artifact_kind}.
package blob

import (
	"context"
	"errors"
)

// ErrNotFound indicates no object exists at the requested key.
var ErrNotFound = errors.New("blob: not found")

// Object is a single stored blob: its content and content type.
type Object struct {
	Content     []byte
	ContentType string
}

// Store is the outbound object-store capability: put(key, bytes,
// content_type), get(key) → bytes, list(prefix), delete(prefix).
// Writes are atomic per object.
type Store interface {
	Put(ctx context.Context, key string, obj Object) error
	Get(ctx context.Context, key string) (Object, error)
	List(ctx context.Context, prefix string) ([]string, error)
	Delete(ctx context.Context, prefix string) error
}
