package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a key is missing from storage.
var ErrNotFound = errors.New("storage: record not found")

// Store is the durable key/value store holding policy configuration and
// quota state. Keys are flat strings; namespacing is the caller's concern.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	// GetMany returns the values present for keys. Missing keys are omitted
	// from the result rather than reported as errors.
	GetMany(ctx context.Context, keys []string) (map[string]string, error)
	Set(ctx context.Context, key, value string) error
	// Apply commits every write in the batch atomically.
	Apply(ctx context.Context, batch Batch) error
	Close() error
}
