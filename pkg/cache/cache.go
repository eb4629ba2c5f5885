// Package cache provides an optional Redis-backed result cache keyed by the
// scanned text and the selected checks. Identical requests within the TTL
// reuse the stored envelope instead of rescanning.
package cache

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/redis/go-redis/v9"
)

// Cache wraps a Redis client. A nil Cache is a valid no-op: every lookup
// misses and every store is discarded.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects to the given Redis address. An empty address disables
// caching and returns a nil Cache.
func New(addr string, ttl time.Duration) *Cache {
	if addr == "" {
		return nil
	}
	return &Cache{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		ttl:    ttl,
	}
}

// Ping verifies the connection. Callers treat failure as "run without cache".
func (c *Cache) Ping(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.client.Ping(ctx).Err()
}

// Key derives a stable cache key from the text and request settings.
// Check order does not matter; the selection is sorted before hashing.
func Key(text string, checks []string, maskURLs bool) string {
	sorted := make([]string, len(checks))
	copy(sorted, checks)
	sort.Strings(sorted)

	h := xxhash.New()
	h.WriteString(text)
	h.WriteString("\x00")
	h.WriteString(strings.Join(sorted, ","))
	if maskURLs {
		h.WriteString("\x00mask")
	}
	return fmt.Sprintf("glyphtrace:scan:%016x", h.Sum64())
}

// Get returns the stored envelope for the key, or false on a miss.
// Redis errors count as misses so a broken cache never fails a scan.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	val, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return val, true
}

// Set stores the envelope under the key for the configured TTL.
func (c *Cache) Set(ctx context.Context, key string, envelope []byte) {
	if c == nil {
		return
	}
	// Best effort: a failed store just means the next request rescans.
	c.client.Set(ctx, key, envelope, c.ttl)
}

// Close releases the underlying connection pool.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}
