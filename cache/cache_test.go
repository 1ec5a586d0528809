package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	c := NewMemoryCache()
	c.now = func() time.Time { return now }

	v, err := c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, v)

	require.NoError(t, c.Set(ctx, StatementKey("4_A"), []byte(`{"titleRaw":"x"}`), 0))
	v, err = c.Get(ctx, "statement:4_A")
	require.NoError(t, err)
	assert.Equal(t, `{"titleRaw":"x"}`, v)

	require.NoError(t, c.Set(ctx, "short", "v", time.Minute))
	ok, err := c.Exists(ctx, "short")
	require.NoError(t, err)
	assert.True(t, ok)

	now = now.Add(time.Minute)
	ok, err = c.Exists(ctx, "short")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Delete(ctx, "statement:4_A"))
	v, err = c.Get(ctx, "statement:4_A")
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "statement:1_B", StatementKey("1_B"))
	assert.Equal(t, "userquestions:u1", UserQuestionsKey("u1"))
}

var (
	_ Cache = (*RedisCache)(nil)
	_ Cache = (*MemoryCache)(nil)
)
