// Package handler provides the ingestion coordinator's (C11) stage
// handlers, registered against ingestion.Stage since this module's pipeline
// is a fixed five-stage chain rather than an open-ended operation set.
package handler

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/codesense-dev/codesense/domain/ingestion"
)

// ErrNoHandler indicates no handler is registered for the stage.
var ErrNoHandler = errors.New("no handler registered")

// Handler executes one ingestion stage's work and, on success, is
// responsible for enqueuing the next stage's task (or finishing the run,
// for the final stage).
type Handler interface {
	Execute(ctx context.Context, payload map[string]any) error
}

// Registry maps ingestion stages to their handlers.
type Registry struct {
	handlers map[ingestion.Stage]Handler
	mu       sync.RWMutex
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[ingestion.Stage]Handler)}
}

// Register adds a handler for a stage, overwriting any previous registration.
func (r *Registry) Register(stage ingestion.Stage, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[stage] = h
}

// Handler returns the handler for a stage, or ErrNoHandler.
func (r *Registry) Handler(stage ingestion.Stage) (Handler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[stage]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoHandler, stage)
	}
	return h, nil
}

// ExtractInt64 extracts an int64 value from the payload.
func ExtractInt64(payload map[string]any, key string) (int64, error) {
	val, ok := payload[key]
	if !ok {
		return 0, fmt.Errorf("missing required field: %s", key)
	}
	switch v := val.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case float64:
		return int64(v), nil
	default:
		return 0, fmt.Errorf("invalid type for %s: %T", key, val)
	}
}

// ExtractString extracts a string value from the payload.
func ExtractString(payload map[string]any, key string) (string, error) {
	val, ok := payload[key]
	if !ok {
		return "", fmt.Errorf("missing required field: %s", key)
	}
	s, ok := val.(string)
	if !ok {
		return "", fmt.Errorf("invalid type for %s: expected string, got %T", key, val)
	}
	return s, nil
}

// ShortSHA returns the first 8 characters of a SHA for log messages.
func ShortSHA(sha string) string {
	if len(sha) >= 8 {
		return sha[:8]
	}
	return sha
}
