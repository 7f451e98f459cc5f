// Package cache provides the byte-level cache used to keep feed downloads
// and derived map models between runs.
//
// Four backends implement [Cache]:
//
//   - [NullCache]: never stores anything
//   - [FileCache]: JSON entry files under a directory, for the CLI
//   - [RedisCache]: a shared Redis instance, for the API server
//   - [MongoCache]: a MongoDB collection with a TTL index
//
// [Open] picks a backend from [Options]. Keys come from a [Keyer], so the
// same inputs always map to the same entry regardless of backend.
package cache

import (
	"context"
	"time"
)

// Default time-to-live values.
const (
	// TTLFeed bounds how long a downloaded feed is reused. The upstream data
	// changes when operators edit routes, which is rare but not rare enough
	// to cache for days.
	TTLFeed = 10 * time.Minute

	// TTLMap bounds how long a derived map model is reused. Map keys already
	// include the feed hash, so a longer TTL only costs storage.
	TTLMap = 24 * time.Hour
)

// Cache stores opaque byte values by key.
//
// Get reports a miss with ok == false and a nil error. A TTL of zero passed
// to Set means the entry does not expire. Implementations are safe for
// concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Clearer is implemented by caches that can drop every entry they own.
type Clearer interface {
	Clear(ctx context.Context) error
}

// NullCache misses on every Get and drops every Set. It backs the "none"
// backend and --no-cache.
type NullCache struct{}

// NewNullCache returns a NullCache.
func NewNullCache() Cache { return NullCache{} }

func (NullCache) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, nil
}

func (NullCache) Set(context.Context, string, []byte, time.Duration) error {
	return nil
}

func (NullCache) Delete(context.Context, string) error { return nil }

func (NullCache) Close() error { return nil }
