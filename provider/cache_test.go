package provider

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCache_GetSet(t *testing.T) {
	cache := NewCache[string](10, time.Minute)

	_, ok := cache.Get("CZK")
	assert.False(t, ok)

	cache.Set("CZK", "methods-czk")
	value, ok := cache.Get("CZK")
	assert.True(t, ok)
	assert.Equal(t, "methods-czk", value)

	cache.Set("CZK", "methods-czk-v2")
	value, _ = cache.Get("CZK")
	assert.Equal(t, "methods-czk-v2", value)
	assert.Equal(t, 1, cache.Size())

	stats := cache.Stats()
	assert.Equal(t, int64(2), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.InDelta(t, 2.0/3.0, stats.HitRatio, 0.001)
}

func TestCache_EvictsLeastRecentlyUsed(t *testing.T) {
	cache := NewCache[int](2, 0)

	cache.Set("a", 1)
	cache.Set("b", 2)
	cache.Get("a")
	cache.Set("c", 3)

	_, ok := cache.Get("b")
	assert.False(t, ok, "b was least recently used")
	_, ok = cache.Get("a")
	assert.True(t, ok)
	_, ok = cache.Get("c")
	assert.True(t, ok)
	assert.Equal(t, int64(1), cache.Stats().Evictions)
}

func TestCache_TTL(t *testing.T) {
	cache := NewCache[int](10, 20*time.Millisecond)

	cache.Set("a", 1)
	cache.Set("b", 2)
	time.Sleep(40 * time.Millisecond)

	_, ok := cache.Get("a")
	assert.False(t, ok)

	cache.Cleanup()
	assert.Equal(t, 0, cache.Size())
	assert.Equal(t, int64(2), cache.Stats().TTLExpiries)
}

func TestCache_DeleteAndClear(t *testing.T) {
	cache := NewCache[int](10, time.Minute)
	cache.Set("a", 1)
	cache.Set("b", 2)

	cache.Delete("a")
	cache.Delete("missing")
	assert.Equal(t, 1, cache.Size())

	cache.Clear()
	assert.Equal(t, 0, cache.Size())

	cache.Set("c", 3)
	assert.Equal(t, 1, cache.Size())
}

func TestCache_Concurrent(t *testing.T) {
	cache := NewCache[int](50, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("key-%d", i%10)
			cache.Set(key, i)
			cache.Get(key)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 10, cache.Size())
}
