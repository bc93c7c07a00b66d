package store

import "context"

// KV is a minimal byte-oriented key-value backend.
type KV interface {
	// Get returns the value for key, or ErrKeyNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// BatchKV is implemented by backends that can write several keys atomically.
type BatchKV interface {
	KV

	// SetMany stores all entries or none of them.
	SetMany(ctx context.Context, entries map[string][]byte) error
}
