// Package cache implements the two-tier catalog cache: a durable Store shared
// across requests and a bounded request Scope, tied together by Layer.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a key does not exist or has expired.
var ErrNotFound = errors.New("cache: key not found")

// Store is a durable key-value store with per-entry TTL.
// All operations are safe for concurrent use.
type Store interface {
	// Get returns ErrNotFound for missing or expired keys.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value for ttl. A ttl <= 0 means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete is not an error for missing keys.
	Delete(ctx context.Context, key string) error
	// Keys lists the live keys starting with prefix.
	Keys(ctx context.Context, prefix string) ([]string, error)
	// Clear removes every entry owned by the store.
	Clear(ctx context.Context) error
	Close() error
}
