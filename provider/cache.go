package provider

import (
	"container/list"
	"sync"
	"time"
)

type cacheEntry[V any] struct {
	key       string
	value     V
	createdAt time.Time
	element   *list.Element
}

// CacheStats represents cache performance metrics
type CacheStats struct {
	Size        int           `json:"size"`
	MaxSize     int           `json:"max_size"`
	Hits        int64         `json:"hits"`
	Misses      int64         `json:"misses"`
	Evictions   int64         `json:"evictions"`
	TTLExpiries int64         `json:"ttl_expiries"`
	HitRatio    float64       `json:"hit_ratio"`
	TTL         time.Duration `json:"ttl"`
}

// Cache is an in-memory LRU cache whose entries expire after a TTL
type Cache[V any] struct {
	entries     map[string]*cacheEntry[V]
	accessOrder *list.List // most recent at front
	maxSize     int
	ttl         time.Duration
	mu          sync.Mutex

	hits        int64
	misses      int64
	evictions   int64
	ttlExpiries int64
}

// NewCache creates a cache holding at most maxSize entries. A ttl of 0 never expires.
func NewCache[V any](maxSize int, ttl time.Duration) *Cache[V] {
	if maxSize <= 0 {
		maxSize = 1
	}
	return &Cache[V]{
		entries:     make(map[string]*cacheEntry[V]),
		accessOrder: list.New(),
		maxSize:     maxSize,
		ttl:         ttl,
	}
}

// Get returns the value cached under key
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	entry, exists := c.entries[key]
	if !exists {
		c.misses++
		return zero, false
	}

	if c.ttl > 0 && time.Since(entry.createdAt) > c.ttl {
		c.deleteEntryUnsafe(entry)
		c.ttlExpiries++
		c.misses++
		return zero, false
	}

	c.accessOrder.MoveToFront(entry.element)
	c.hits++
	return entry.value, true
}

// Set stores value under key, evicting the least recently used entry when full
func (c *Cache[V]) Set(key string, value V) {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, exists := c.entries[key]; exists {
		existing.value = value
		existing.createdAt = now
		c.accessOrder.MoveToFront(existing.element)
		return
	}

	if len(c.entries) >= c.maxSize {
		c.evictLRUUnsafe()
	}

	entry := &cacheEntry[V]{key: key, value: value, createdAt: now}
	entry.element = c.accessOrder.PushFront(entry)
	c.entries[key] = entry
}

// Delete removes key from the cache
func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, exists := c.entries[key]; exists {
		c.deleteEntryUnsafe(entry)
	}
}

// Clear removes all entries
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*cacheEntry[V])
	c.accessOrder = list.New()
}

// Size returns the current number of cached entries
func (c *Cache[V]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

// Stats returns cache statistics
func (c *Cache[V]) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	hitRatio := 0.0
	if total := c.hits + c.misses; total > 0 {
		hitRatio = float64(c.hits) / float64(total)
	}

	return CacheStats{
		Size:        len(c.entries),
		MaxSize:     c.maxSize,
		Hits:        c.hits,
		Misses:      c.misses,
		Evictions:   c.evictions,
		TTLExpiries: c.ttlExpiries,
		HitRatio:    hitRatio,
		TTL:         c.ttl,
	}
}

// Cleanup removes expired entries
func (c *Cache[V]) Cleanup() {
	if c.ttl <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for _, entry := range c.entries {
		if now.Sub(entry.createdAt) > c.ttl {
			c.deleteEntryUnsafe(entry)
			c.ttlExpiries++
		}
	}
}

// evictLRUUnsafe must be called with the lock held
func (c *Cache[V]) evictLRUUnsafe() {
	back := c.accessOrder.Back()
	if back == nil {
		return
	}
	c.deleteEntryUnsafe(back.Value.(*cacheEntry[V]))
	c.evictions++
}

func (c *Cache[V]) deleteEntryUnsafe(entry *cacheEntry[V]) {
	delete(c.entries, entry.key)
	if entry.element != nil {
		c.accessOrder.Remove(entry.element)
	}
}
