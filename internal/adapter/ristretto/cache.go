// Package ristretto implements the cache port with an in-process
// dgraph-io/ristretto cache, the L1 in front of NATS KV.
package ristretto

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

// avgEntryBytes sizes the admission counters. Cached values are tenant IDs
// and small idempotent responses.
const avgEntryBytes = 64

// Cache is a size-bounded L1 cache. Values are copied on the way in and out
// so callers cannot mutate cached bytes.
type Cache struct {
	rc        *ristretto.Cache[string, []byte]
	closeOnce sync.Once
}

// New creates a cache holding at most maxBytes of keys plus values.
func New(maxBytes int64) (*Cache, error) {
	if maxBytes <= 0 {
		return nil, errors.New("ristretto: max size must be positive")
	}
	rc, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: max(10*maxBytes/avgEntryBytes, 1000),
		MaxCost:     maxBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &Cache{rc: rc}, nil
}

func (c *Cache) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := c.rc.Get(key)
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

// Set stores value for ttl; a zero ttl never expires. The write is flushed
// before Set returns so a following Get observes it.
func (c *Cache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	v := append([]byte(nil), value...)
	c.rc.SetWithTTL(key, v, int64(len(key)+len(v)), ttl)
	c.rc.Wait()
	return nil
}

func (c *Cache) Delete(_ context.Context, key string) error {
	c.rc.Del(key)
	return nil
}

// Close releases the cache's goroutines. It may be called more than once.
func (c *Cache) Close() {
	c.closeOnce.Do(c.rc.Close)
}
