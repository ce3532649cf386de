// Package cache provides pluggable storage backends for registry lookup
// results.
//
// The scanner itself keeps lookup results only for the lifetime of one
// scan; persistence across scans is this package's concern and is entirely
// optional. Backends:
//
//   - FileCache: entries under a local directory, the CLI default
//   - MemoryCache: process-local, used in tests and for serve mode
//   - RedisCache: shared cache for multi-instance deployments
//   - MongoCache: shared cache where a document store is already available
//   - NullCache: caching disabled
//
// All backends store opaque bytes under string keys with a per-entry TTL.
// A TTL of zero means the entry never expires.
package cache

import (
	"context"
	"time"
)

// Cache is the backend interface. Implementations must be safe for
// concurrent use: the existence classifier writes from multiple workers.
type Cache interface {
	// Get retrieves a value. The second return is false on a miss;
	// expired entries are misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores a value with the given TTL (0 = no expiration).
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes a value; deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases backend resources.
	Close() error
}
