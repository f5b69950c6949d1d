// Package natskv implements the cache port on a NATS JetStream KV bucket,
// the L2 cache shared by every PromptDesk instance on the cluster.
package natskv

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

// headerLen is the size of the expiry stamp prepended to every stored value.
const headerLen = 8

// Cache stores values in a KV bucket. The bucket TTL bounds every entry; a
// shorter per-entry TTL passed to Set is enforced on read.
type Cache struct {
	kv  jetstream.KeyValue
	now func() time.Time
}

// New wraps kv.
func New(kv jetstream.KeyValue) *Cache {
	return &Cache{kv: kv, now: time.Now}
}

// Get returns the value for key. Missing, deleted and expired keys are misses.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := checkKey(key); err != nil {
		return nil, false, err
	}
	entry, err := c.kv.Get(ctx, key)
	switch {
	case errors.Is(err, jetstream.ErrKeyNotFound), errors.Is(err, jetstream.ErrKeyDeleted):
		return nil, false, nil
	case err != nil:
		return nil, false, fmt.Errorf("natskv get %s: %w", key, err)
	}

	value, expires, ok := decode(entry.Value())
	if !ok {
		// Written by something other than this adapter; treat as absent.
		return nil, false, nil
	}
	if !expires.IsZero() && !c.now().Before(expires) {
		return nil, false, nil
	}
	return value, true, nil
}

// Set stores value under key. A zero ttl leaves expiry to the bucket.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := checkKey(key); err != nil {
		return err
	}
	var expires time.Time
	if ttl > 0 {
		expires = c.now().Add(ttl)
	}
	if _, err := c.kv.Put(ctx, key, encode(value, expires)); err != nil {
		return fmt.Errorf("natskv put %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	err := c.kv.Delete(ctx, key)
	if err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
		return fmt.Errorf("natskv delete %s: %w", key, err)
	}
	return nil
}

func encode(value []byte, expires time.Time) []byte {
	buf := make([]byte, headerLen+len(value))
	if !expires.IsZero() {
		binary.BigEndian.PutUint64(buf, uint64(expires.UnixNano()))
	}
	copy(buf[headerLen:], value)
	return buf
}

func decode(raw []byte) (value []byte, expires time.Time, ok bool) {
	if len(raw) < headerLen {
		return nil, time.Time{}, false
	}
	if stamp := binary.BigEndian.Uint64(raw); stamp != 0 {
		expires = time.Unix(0, int64(stamp))
	}
	return raw[headerLen:], expires, true
}

// ErrInvalidKey is returned for keys NATS KV would reject.
var ErrInvalidKey = errors.New("natskv: invalid key")

// checkKey applies the NATS KV key rules: non-empty, no leading or trailing
// dot, and only letters, digits and "-/_=." in between.
func checkKey(key string) error {
	if key == "" || key[0] == '.' || key[len(key)-1] == '.' {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '/', r == '_', r == '=', r == '.':
		default:
			return fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
	}
	return nil
}
