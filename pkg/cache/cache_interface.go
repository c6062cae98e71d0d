package cache

import (
	"context"
	"time"
)

// Cache is the contract for the cache layer. Implementations: Redis for
// production, an in-memory map for tests. The consolidation pass uses it to
// memoize flattened equivalence closures per seed set.
type Cache interface {
	// Get fetches and unmarshals into dest.
	// found = false means cache miss; dest is left untouched.
	Get(ctx context.Context, key string, dest interface{}) (bool, error)

	// Set stores a value with a TTL.
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	// Delete removes keys from the cache.
	Delete(ctx context.Context, keys ...string) error

	// DeletePattern removes all keys matching a glob pattern.
	DeletePattern(ctx context.Context, pattern string) error

	// Ping verifies the connection.
	Ping(ctx context.Context) error
}
