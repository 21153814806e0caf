package rjq

import (
	"context"
	"time"
)

// Store is the contract the queue requires from the backing store.
// It decouples the engine from the concrete backend (Redis in production,
// an in-memory fake in tests) and is the only shared mutable state between
// producers and workers.
type Store interface {
	// Set writes value under key with the given TTL. ttl <= 0 means no expiry.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Get reads the value under key. Returns ErrNotFound when the key is
	// absent or has expired.
	Get(ctx context.Context, key string) (string, error)

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Push appends value to the tail of the named list.
	Push(ctx context.Context, list, value string) error

	// BlockingPop removes and returns the head of the named list, waiting
	// up to wait for a value to arrive. Returns ErrNotFound when the wait
	// elapses with the list still empty. Concurrent poppers each receive a
	// given value at most once.
	BlockingPop(ctx context.Context, list string, wait time.Duration) (string, error)

	// DropPrefix removes every key and list whose name starts with prefix.
	DropPrefix(ctx context.Context, prefix string) error

	// Ping verifies the store is reachable.
	Ping(ctx context.Context) error

	// Close releases the store's resources.
	Close() error
}
