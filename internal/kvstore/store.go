// Package kvstore wraps github.com/redis/go-redis/v9 behind the narrow
// key/value and secondary-index contract §6 describes. The split between an
// interface, a Redis-backed implementation, and an in-memory fake follows
// the teacher's store.go/memory.go pair (eval-engine/internal/store); the
// Redis-specific operations themselves (scan_iter, hset, FT.CREATE/DROPINDEX)
// are grounded in original_source/redis_utils.py.
package kvstore

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a key lookup misses.
var ErrNotFound = errors.New("kvstore: not found")

// Store is the KV surface every stage depends on: cursors, watermarks, and
// the serving stage's event hashes all live behind this one interface.
type Store interface {
	// Get returns the string value at key, or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)

	// Set writes key unconditionally.
	Set(ctx context.Context, key, value string) error

	// Delete removes key; missing keys are not an error (§4.1 idempotent teardown).
	Delete(ctx context.Context, key string) error

	// Exists reports whether key is present.
	Exists(ctx context.Context, key string) (bool, error)

	// HSet writes every field in fields into the hash at key.
	HSet(ctx context.Context, key string, fields map[string]string) error

	// HGetAll reads every field of the hash at key. A missing key yields an
	// empty, non-nil map and no error (mirrors redis-py's HGETALL).
	HGetAll(ctx context.Context, key string) (map[string]string, error)

	// ScanKeys returns every key matching pattern (a glob as accepted by
	// Redis's SCAN MATCH), iterating rather than blocking the server the way
	// KEYS would (§4.4's scan_iter usage).
	ScanKeys(ctx context.Context, pattern string) ([]string, error)

	// DeleteMatching deletes every key matching pattern and reports how many
	// were removed — the RESTART teardown primitive (§4.1).
	DeleteMatching(ctx context.Context, pattern string) (int, error)

	Index
}
