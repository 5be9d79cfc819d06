package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRUSetGet(t *testing.T) {
	c := NewLRU(8, time.Minute)
	c.Set("k", "v")
	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v", got)
}

func TestLRUMiss(t *testing.T) {
	c := NewLRU(8, time.Minute)
	_, ok := c.Get("absent")
	assert.False(t, ok)
}

func TestLRUInvalidate(t *testing.T) {
	c := NewLRU(8, time.Minute)
	c.Set("k", 1)
	c.Invalidate("k")
	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestLRUEviction(t *testing.T) {
	c := NewLRU(2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)
	_, ok := c.Get("a")
	assert.False(t, ok, "oldest entry should be evicted")
	_, ok = c.Get("c")
	assert.True(t, ok)
}

func TestLRUTTLExpiry(t *testing.T) {
	c := NewLRU(8, 10*time.Millisecond)
	c.Set("k", "v")
	time.Sleep(25 * time.Millisecond)
	_, ok := c.Get("k")
	assert.False(t, ok, "entry past its TTL should not be returned")
}

func TestLRUDefaults(t *testing.T) {
	c := NewLRU(0, 0)
	c.Set("k", "v")
	_, ok := c.Get("k")
	assert.True(t, ok)
}
