package cache

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	defaultMaxSize = 256
	defaultTTL     = 5 * time.Minute
)

// Cache is the key-value interface consumed by tool executors.
//
// The runtime never reaches for a package-level cache; a handle is
// constructed once and passed into each component that needs it.
type Cache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
	Invalidate(key string)
}

type entry struct {
	value    any
	storedAt time.Time
}

// LRUCache is an in-memory LRU cache with per-entry TTL expiry.
type LRUCache struct {
	mu    sync.Mutex
	inner *lru.Cache[string, entry]
	ttl   time.Duration
}

// NewLRU creates an LRUCache. Non-positive size or ttl fall back to defaults.
func NewLRU(size int, ttl time.Duration) *LRUCache {
	if size <= 0 {
		size = defaultMaxSize
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	// lru.New only errors on non-positive size which is guarded above.
	inner, _ := lru.New[string, entry](size)
	return &LRUCache{inner: inner, ttl: ttl}
}

// Get returns the cached value for key if present and not expired.
func (c *LRUCache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.inner.Get(key)
	if !ok {
		return nil, false
	}
	if time.Since(e.storedAt) >= c.ttl {
		// Expired: evict so the LRU bookkeeping stays clean.
		c.inner.Remove(key)
		return nil, false
	}
	return e.value, true
}

// Set stores value under key.
func (c *LRUCache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inner.Add(key, entry{value: value, storedAt: time.Now()})
}

// Invalidate removes key from the cache.
func (c *LRUCache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inner.Remove(key)
}

var _ Cache = (*LRUCache)(nil)
