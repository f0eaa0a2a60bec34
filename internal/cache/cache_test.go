package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilClientBehavesLikeMiss(t *testing.T) {
	var c *Client
	ctx := context.Background()

	assert.NoError(t, c.Ping(ctx))
	assert.NoError(t, c.SetJSON(ctx, "k", map[string]int{"a": 1}, time.Minute))

	var dst map[string]int
	assert.False(t, c.GetJSON(ctx, "k", &dst))
	assert.Nil(t, dst)
	assert.NoError(t, c.Delete(ctx, "k"))
	assert.NoError(t, c.Close())
}

func TestUnreachableServerBehavesLikeMiss(t *testing.T) {
	c := New("127.0.0.1:1", "", 0)
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	assert.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	data, err := c.Get(ctx, "k")
	assert.NoError(t, err)
	assert.Nil(t, data)
	assert.Error(t, c.Ping(ctx))
}

func TestCounter(t *testing.T) {
	mr := miniredis.RunT(t)
	c := New(mr.Addr(), "", 0)
	defer c.Close()
	ctx := context.Background()

	n, ok := c.Counter(ctx, "gen")
	assert.True(t, ok)
	assert.Zero(t, n)

	require.NoError(t, c.Incr(ctx, "gen"))
	require.NoError(t, c.Incr(ctx, "gen"))
	n, ok = c.Counter(ctx, "gen")
	assert.True(t, ok)
	assert.Equal(t, int64(2), n)

	require.NoError(t, c.Set(ctx, "word", []byte("abc"), time.Minute))
	_, ok = c.Counter(ctx, "word")
	assert.False(t, ok)

	mr.Close()
	_, ok = c.Counter(ctx, "gen")
	assert.False(t, ok)
}

func TestCounter_NilClient(t *testing.T) {
	var c *Client
	_, ok := c.Counter(context.Background(), "gen")
	assert.False(t, ok)
	assert.NoError(t, c.Incr(context.Background(), "gen"))
}
