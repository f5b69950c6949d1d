// Package tiered layers the in-process L1 cache over the shared L2 cache.
package tiered

import (
	"context"
	"log/slog"
	"time"

	"github.com/Strob0t/PromptDesk/internal/port/cache"
)

// Cache reads through L1 then L2 and writes to both.
//
// L2 errors on Get and Set are logged and swallowed, so a NATS outage
// degrades lookups to the database. L2 errors on Delete are returned.
type Cache struct {
	local    cache.Cache
	shared   cache.Cache // nil when running without NATS
	backfill time.Duration
}

// New returns a tiered cache. Entries copied from shared into local on a hit
// live for backfill. shared may be nil.
func New(local, shared cache.Cache, backfill time.Duration) *Cache {
	return &Cache{local: local, shared: shared, backfill: backfill}
}

func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if v, ok, err := c.local.Get(ctx, key); err != nil || ok {
		return v, ok, err
	}
	if c.shared == nil {
		return nil, false, nil
	}

	v, ok, err := c.shared.Get(ctx, key)
	if err != nil {
		slog.WarnContext(ctx, "shared cache unavailable, falling through", "key", key, "error", err)
		return nil, false, nil
	}
	if !ok {
		return nil, false, nil
	}
	if err := c.local.Set(ctx, key, v, c.backfill); err != nil {
		slog.DebugContext(ctx, "local backfill failed", "key", key, "error", err)
	}
	return v, true, nil
}

func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.local.Set(ctx, key, value, ttl); err != nil {
		return err
	}
	if c.shared != nil {
		if err := c.shared.Set(ctx, key, value, ttl); err != nil {
			slog.WarnContext(ctx, "shared cache write failed", "key", key, "error", err)
		}
	}
	return nil
}

// Delete clears shared before local so a concurrent Get cannot refill local
// from the entry being removed.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if c.shared != nil {
		if err := c.shared.Delete(ctx, key); err != nil {
			_ = c.local.Delete(ctx, key)
			return err
		}
	}
	return c.local.Delete(ctx, key)
}
