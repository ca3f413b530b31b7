// Package provider defines the cache backend contract used by the caching
// middleware, along with in-memory, SQLite and Redis implementations.
package provider

import (
	"context"
	"time"
)

// CacheProvider is the storage backend for cached responses.
// It stores and retrieves []byte values; the middleware treats the values
// as opaque. Expiry is owned entirely by the provider: entries are stored
// with a TTL and must not be returned after it has passed.
//
// Implementations must be thread-safe!
type CacheProvider interface {
	// Get returns the stored value for the given key, if it exists.
	// It also returns a boolean indicating whether retrieval was successful.
	// If the entry has expired, the boolean must be false.
	// (In this case, the provider should also purge the entry.)
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Put stores the given value under the given key for the given TTL.
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Purge removes the entry for the given key.
	Purge(ctx context.Context, key string) error
	// Namespace returns a stable prefix distinguishing this provider
	// instance from independently configured ones. Cache keys produced
	// against this provider start with the namespace, so two providers
	// with different namespaces never collide.
	Namespace() string
	// Connect establishes the backend connection. It must be called once
	// before first use; calling it on an always-available backend (such as
	// the in-memory provider) is a no-op.
	Connect(ctx context.Context) error
	// Close releases the backend connection.
	Close() error
}
