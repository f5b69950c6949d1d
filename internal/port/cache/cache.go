// Package cache defines the port interface for caching.
package cache

import (
	"context"
	"strings"
	"time"
)

// Cache is the port interface for key-value caching.
// A miss is reported as ok == false with a nil error.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Key joins parts into a dot-separated cache key, e.g. "tenant.subdomain.acme".
// Dots keep keys valid for NATS KV buckets.
func Key(parts ...string) string {
	return strings.Join(parts, ".")
}
