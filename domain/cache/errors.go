package cache

import "errors"

// Domain errors for plan cache operations.
var (
	// ErrInvalidKey is returned when a key is empty.
	ErrInvalidKey = errors.New("invalid cache key")

	// ErrCacheFull is returned when the store is at capacity.
	ErrCacheFull = errors.New("cache is full")

	// ErrConnectionFailed is returned when the cache backend is unreachable.
	ErrConnectionFailed = errors.New("cache connection failed")

	// ErrOperationTimeout is returned when a cache operation times out.
	ErrOperationTimeout = errors.New("cache operation timeout")

	// ErrCorruptEntry is returned when a stored plan cannot be decoded.
	ErrCorruptEntry = errors.New("corrupt cache entry")
)
