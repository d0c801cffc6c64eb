package services

import (
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

type cacheEntry struct {
	value  interface{}
	expiry time.Time // zero means no expiration
}

// CacheService is a process-local TTL cache. It is an injected dependency,
// not a package-level singleton, so tests and callers control its lifecycle.
type CacheService struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	group   singleflight.Group
}

func NewCacheService() *CacheService {
	return &CacheService{entries: make(map[string]cacheEntry)}
}

// Set stores a value under key. A zero or negative ttl means no expiration.
func (c *CacheService) Set(key string, value interface{}, ttl time.Duration) {
	entry := cacheEntry{value: value}
	if ttl > 0 {
		entry.expiry = time.Now().Add(ttl)
	}
	c.mu.Lock()
	c.entries[key] = entry
	c.mu.Unlock()
}

// Get returns the cached value for key, if present and not expired.
func (c *CacheService) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if !entry.expiry.IsZero() && time.Now().After(entry.expiry) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false
	}
	return entry.value, true
}

// Has reports whether key is cached and not expired.
func (c *CacheService) Has(key string) bool {
	_, ok := c.Get(key)
	return ok
}

// Delete removes a single key.
func (c *CacheService) Delete(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Clear drops every entry.
func (c *CacheService) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]cacheEntry)
	c.mu.Unlock()
}

// GetOrSet returns the cached value for key, computing and caching it on a
// miss. Concurrent callers for the same key share one compute call, so the
// work behind a key runs at most once per expiry window.
func (c *CacheService) GetOrSet(key string, ttl time.Duration, compute func() (interface{}, error)) (interface{}, error) {
	if value, ok := c.Get(key); ok {
		return value, nil
	}

	value, err, _ := c.group.Do(key, func() (interface{}, error) {
		// Another caller may have filled the entry while we waited.
		if value, ok := c.Get(key); ok {
			return value, nil
		}
		value, err := compute()
		if err != nil {
			return nil, err
		}
		c.Set(key, value, ttl)
		return value, nil
	})
	return value, err
}
