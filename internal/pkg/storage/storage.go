package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNotFound indicates the key does not exist or has expired.
var ErrNotFound = errors.New("storage: key not found")

// Storage is a durable string-keyed blob store.
type Storage interface {
	io.Closer

	// Get returns the value stored under key or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value under key. A positive ttl expires the key afterwards.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete removes the keys. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error
}
