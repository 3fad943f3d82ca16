package utils

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

type cacheItem[V any] struct {
	Data      V
	ExpiresAt time.Time
}

// TTLCache is a size-bounded LRU whose entries also expire after a TTL.
type TTLCache[V any] struct {
	lruCache *lru.Cache[string, cacheItem[V]]
	ttl      time.Duration
	now      func() time.Time
	// mu makes GetOrCreate atomic; the lru itself is already safe.
	mu sync.Mutex
}

func NewTTLCache[V any](size int, ttl time.Duration) (*TTLCache[V], error) {
	l, err := lru.New[string, cacheItem[V]](size)
	if err != nil {
		return nil, err
	}
	return &TTLCache[V]{lruCache: l, ttl: ttl, now: time.Now}, nil
}

func (c *TTLCache[V]) Set(key string, data V) {
	c.lruCache.Add(key, cacheItem[V]{
		Data:      data,
		ExpiresAt: c.now().Add(c.ttl),
	})
}

// Get returns the cached value, dropping it first if it has expired.
func (c *TTLCache[V]) Get(key string) (V, bool) {
	var zero V
	val, ok := c.lruCache.Get(key)
	if !ok {
		return zero, false
	}
	if c.now().After(val.ExpiresAt) {
		c.lruCache.Remove(key)
		return zero, false
	}
	return val.Data, true
}

func (c *TTLCache[V]) Delete(key string) {
	c.lruCache.Remove(key)
}

func (c *TTLCache[V]) Purge() {
	c.lruCache.Purge()
}

// GetOrCreate returns the live value for key, calling create when there is
// none, and restarts the key's TTL. Concurrent callers share one value.
func (c *TTLCache[V]) GetOrCreate(key string, create func() V) V {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	val, ok := c.lruCache.Get(key)
	if !ok || now.After(val.ExpiresAt) {
		val.Data = create()
	}
	c.lruCache.Add(key, cacheItem[V]{Data: val.Data, ExpiresAt: now.Add(c.ttl)})
	return val.Data
}
