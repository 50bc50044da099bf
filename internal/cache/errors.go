package cache

import "errors"

var (
	// ErrCacheMiss is returned when the key has no live entry.
	ErrCacheMiss = errors.New("cache: key not found")

	// ErrCacheUnavailable is returned when the backend cannot be reached.
	ErrCacheUnavailable = errors.New("cache: backend unavailable")

	// ErrInvalidValue is returned when a stored value fails to decode.
	ErrInvalidValue = errors.New("cache: invalid value")
)
