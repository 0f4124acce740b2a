package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabledCache(t *testing.T) {
	ctx := context.Background()
	c, err := Connect(ctx, "", "test:")
	require.NoError(t, err)
	assert.False(t, c.Enabled())

	require.NoError(t, c.Set(ctx, "k", map[string]int{"a": 1}, time.Minute))

	var out map[string]int
	assert.ErrorIs(t, c.Get(ctx, "k", &out), ErrMiss)
	assert.NoError(t, c.Close())
}

func TestNilCacheIsDisabled(t *testing.T) {
	var c *Cache
	assert.False(t, c.Enabled())
	assert.ErrorIs(t, c.Get(context.Background(), "k", new(string)), ErrMiss)
}

func TestConnect_BadURL(t *testing.T) {
	_, err := Connect(context.Background(), "not-a-redis-url", "test:")
	assert.Error(t, err)
}
