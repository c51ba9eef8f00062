package store

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// KV is the key-value abstraction every driver implements. All persisted
// state (clients, codes, refresh tokens, revocation markers, rate counters)
// lives behind this interface so the service can run against Redis or fall
// back to an in-process map with the same semantics.
type KV interface {
	// Get returns the value for key, or ErrNotFound on a miss.
	Get(ctx context.Context, key string) (string, error)

	// SetWithTTL stores value under key. A ttl of zero means no expiry.
	SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error

	// IncrWithTTL atomically increments the counter at key and returns the
	// new value. The ttl is armed only when the increment creates the key,
	// so a counting window expires relative to its first event.
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)

	// GetDel atomically fetches and deletes the value at key. Returns
	// ErrNotFound when the key does not exist. This is the primitive behind
	// one-time authorization codes.
	GetDel(ctx context.Context, key string) (string, error)

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases any underlying resources.
	Close() error
}
