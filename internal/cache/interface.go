package cache

import (
	"context"
	"time"
)

// Cache defines the primitive operations for a key-value cache.
// T is the type of value stored in the cache (e.g. a response struct).
//
// Callers treat the cache as best-effort: introspection falls back to
// direct verification when Get or Set fail, and Delete failures on the
// revocation and rotation paths are logged without failing the request.
// An entry whose Delete failed stays readable until its TTL runs out.
type Cache[T any] interface {
	// Get retrieves a single value from cache.
	// Returns ErrCacheMiss if the key does not exist or has expired.
	Get(ctx context.Context, key string) (T, error)

	// Set stores a single value in cache with TTL
	Set(ctx context.Context, key string, value T, ttl time.Duration) error

	// Delete removes a key from cache
	Delete(ctx context.Context, key string) error

	// Close closes the cache connection
	Close() error

	// Health checks if the cache is healthy
	Health(ctx context.Context) error
}
