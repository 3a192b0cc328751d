// Package cache provides the host-side result cache for nodeflow.
//
// The execution engine keeps its own per-node cache inside engine.ExecState;
// this package caches whole evaluation results across processes, keyed by
// the canonical hash of the evaluated document. Three backends implement
// [Cache]:
//
//   - [NullCache]: stores nothing (used by --no-cache)
//   - [FileCache]: one JSON file per key under a directory (the CLI default)
//   - [RedisCache]: a shared Redis instance
//
// Keys are produced by a [Keyer] so every backend lays out its namespace the
// same way:
//
//	k := cache.NewDefaultKeyer()
//	key := k.ResultKey(docHash, []string{"sum.out"}, cache.ResultKeyOpts{Catalog: fp})
//	data, hit, err := c.Get(ctx, key)
package cache

import (
	"context"
	"time"
)

// Default TTLs per entry kind.
const (
	TTLResult   = 7 * 24 * time.Hour
	TTLDocument = 30 * 24 * time.Hour
)

// Cache stores opaque byte values by key.
//
// Get reports a miss as (nil, false, nil); an error means the backend itself
// failed. A zero ttl stores the value without expiry.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}
