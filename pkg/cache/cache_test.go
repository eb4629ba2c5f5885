package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := New(mr.Addr(), time.Minute)
	require.NotNil(t, c)
	t.Cleanup(func() { c.Close() })
	return c, mr
}

func TestNilCacheIsNoOp(t *testing.T) {
	var c *Cache
	ctx := context.Background()

	require.NoError(t, c.Ping(ctx))
	_, ok := c.Get(ctx, "anything")
	assert.False(t, ok)
	c.Set(ctx, "anything", []byte("{}"))
	require.NoError(t, c.Close())

	assert.Nil(t, New("", time.Minute))
}

func TestRoundTrip(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	key := Key("some text", []string{"unicode_bidi"}, true)
	envelope := []byte(`{"ok":true}`)

	_, ok := c.Get(ctx, key)
	assert.False(t, ok, "cold cache should miss")

	c.Set(ctx, key, envelope)
	got, ok := c.Get(ctx, key)
	require.True(t, ok)
	assert.Equal(t, envelope, got)
}

func TestEntriesExpire(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	key := Key("expiring", []string{"payload_base64"}, false)
	c.Set(ctx, key, []byte(`{}`))

	mr.FastForward(2 * time.Minute)
	_, ok := c.Get(ctx, key)
	assert.False(t, ok, "entry should expire after the TTL")
}

func TestKeyIsOrderInsensitive(t *testing.T) {
	a := Key("text", []string{"unicode_bidi", "payload_base64"}, true)
	b := Key("text", []string{"payload_base64", "unicode_bidi"}, true)
	assert.Equal(t, a, b)
}

func TestKeyDistinguishesInputs(t *testing.T) {
	base := Key("text", []string{"unicode_bidi"}, true)

	assert.NotEqual(t, base, Key("other", []string{"unicode_bidi"}, true))
	assert.NotEqual(t, base, Key("text", []string{"unicode_norm"}, true))
	assert.NotEqual(t, base, Key("text", []string{"unicode_bidi"}, false))
}

func TestBrokenCacheMisses(t *testing.T) {
	mr := miniredis.RunT(t)
	c := New(mr.Addr(), time.Minute)
	require.NotNil(t, c)
	defer c.Close()

	mr.Close()
	_, ok := c.Get(context.Background(), "key")
	assert.False(t, ok, "redis errors must read as misses")
}
