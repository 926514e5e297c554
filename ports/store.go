package ports

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Store.Get when a key is absent or expired.
var ErrNotFound = errors.New("key not found")

// Store is a TTL key-value store shared by the challenge registry and the
// session revocation list. The in-memory adapter serves a single instance;
// the Redis adapter is the extension point for multi-instance deployments.
type Store interface {
	// Set stores a value under key, evicted after ttl.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Get returns the value for key, or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// GetDel atomically returns the value for key and removes it, or
	// returns ErrNotFound. Of any number of concurrent callers for the
	// same key, exactly one receives the value.
	GetDel(ctx context.Context, key string) (string, error)
}
