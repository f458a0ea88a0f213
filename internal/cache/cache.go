// SPDX-License-Identifier: MIT

// Package cache provides the resolve cache in front of the shortener store:
// an in-memory TTL cache, a Redis-backed cache and a no-op cache.
package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ManuGH/ecosystem/internal/metrics"
)

// Cache provides thread-safe caching with expiration support.
type Cache interface {
	// Get retrieves a value from the cache. Returns false if not found or expired.
	Get(ctx context.Context, key string) (string, bool)
	// Set stores a value in the cache with the specified TTL.
	Set(ctx context.Context, key, value string, ttl time.Duration)
	// Delete removes a value from the cache.
	Delete(ctx context.Context, key string)
	// Clear removes all values from the cache.
	Clear(ctx context.Context)
	// Stats returns cache statistics.
	Stats() CacheStats
	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error
	// Close releases background resources.
	Close() error
}

// CacheStats holds cache performance metrics.
type CacheStats struct {
	Hits        int64 // Number of successful Get operations
	Misses      int64 // Number of failed Get operations (not found or expired)
	Sets        int64 // Number of Set operations
	Evictions   int64 // Number of expired entries cleaned up
	CurrentSize int   // Current number of cached entries
}

type counters struct {
	hits      atomic.Int64
	misses    atomic.Int64
	sets      atomic.Int64
	evictions atomic.Int64
}

func (c *counters) lookup(backend string, hit bool) {
	if hit {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	metrics.RecordCacheLookup(backend, hit)
}

func (c *counters) snapshot(size int) CacheStats {
	return CacheStats{
		Hits:        c.hits.Load(),
		Misses:      c.misses.Load(),
		Sets:        c.sets.Load(),
		Evictions:   c.evictions.Load(),
		CurrentSize: size,
	}
}

// entry represents a cached value with expiration time.
type entry struct {
	value      string
	expiration time.Time
}

func (e *entry) isExpired(now time.Time) bool {
	return now.After(e.expiration)
}

// memoryCache is an in-memory implementation of Cache.
type memoryCache struct {
	mu      sync.RWMutex
	entries map[string]*entry
	stats   counters
	janitor *janitor
}

// NewMemoryCache creates a new in-memory cache with automatic cleanup.
// The cleanupInterval determines how often expired entries are removed.
func NewMemoryCache(cleanupInterval time.Duration) Cache {
	c := &memoryCache{
		entries: make(map[string]*entry),
	}

	if cleanupInterval > 0 {
		c.janitor = &janitor{
			interval: cleanupInterval,
			stop:     make(chan struct{}),
			done:     make(chan struct{}),
		}
		go c.janitor.run(c)
	}

	return c
}

func (c *memoryCache) Get(_ context.Context, key string) (string, bool) {
	c.mu.RLock()
	e, found := c.entries[key]
	c.mu.RUnlock()

	if !found || e.isExpired(time.Now()) {
		c.stats.lookup("memory", false)
		return "", false
	}
	c.stats.lookup("memory", true)
	return e.value, true
}

func (c *memoryCache) Set(_ context.Context, key, value string, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = &entry{
		value:      value,
		expiration: time.Now().Add(ttl),
	}
	c.stats.sets.Add(1)
}

func (c *memoryCache) Delete(_ context.Context, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

func (c *memoryCache) Clear(context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry)
}

func (c *memoryCache) Stats() CacheStats {
	c.mu.RLock()
	size := len(c.entries)
	c.mu.RUnlock()
	return c.stats.snapshot(size)
}

func (c *memoryCache) Ping(context.Context) error { return nil }

// deleteExpired removes all expired entries and returns how many were removed.
func (c *memoryCache) deleteExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	count := 0
	for key, e := range c.entries {
		if e.isExpired(now) {
			delete(c.entries, key)
			count++
		}
	}

	c.stats.evictions.Add(int64(count))
	return count
}

// Close stops the background cleanup goroutine. It is safe to call twice.
func (c *memoryCache) Close() error {
	if c.janitor != nil {
		c.janitor.once.Do(func() {
			close(c.janitor.stop)
			<-c.janitor.done
		})
	}
	return nil
}

// janitor performs periodic cleanup of expired entries.
type janitor struct {
	interval time.Duration
	stop     chan struct{}
	done     chan struct{}
	once     sync.Once
}

func (j *janitor) run(c *memoryCache) {
	defer close(j.done)
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.deleteExpired()
		case <-j.stop:
			return
		}
	}
}

// noOpCache is a cache that does nothing (used when caching is disabled).
type noOpCache struct{}

// NewNoOpCache creates a cache that doesn't cache anything.
func NewNoOpCache() Cache {
	return noOpCache{}
}

func (noOpCache) Get(context.Context, string) (string, bool)         { return "", false }
func (noOpCache) Set(context.Context, string, string, time.Duration) {}
func (noOpCache) Delete(context.Context, string)                     {}
func (noOpCache) Clear(context.Context)                              {}
func (noOpCache) Stats() CacheStats                                  { return CacheStats{} }
func (noOpCache) Ping(context.Context) error                         { return nil }
func (noOpCache) Close() error                                       { return nil }
