package analytics

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

const (
	DefaultCacheTTL  = time.Hour
	DefaultCacheSize = 100
)

type cacheItem struct {
	value       interface{}
	createdAt   time.Time
	expiresAt   time.Time
	lastAccess  time.Time
	accessCount int
}

// Cache memoizes analytics results for a bounded time. It is safe for
// concurrent use.
type Cache struct {
	clock   Clock
	ttl     time.Duration
	maxSize int

	mu    sync.Mutex
	items map[string]*cacheItem
}

// NewCache creates a cache. Non-positive ttl or size fall back to the defaults.
func NewCache(clock Clock, ttl time.Duration, maxSize int) *Cache {
	if clock == nil {
		clock = SystemClock{}
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if maxSize <= 0 {
		maxSize = DefaultCacheSize
	}
	return &Cache{
		clock:   clock,
		ttl:     ttl,
		maxSize: maxSize,
		items:   make(map[string]*cacheItem),
	}
}

// Key derives a stable cache key from a name and optional parameters.
func Key(name string, params interface{}) string {
	if params == nil {
		return name
	}
	data, err := json.Marshal(params)
	if err != nil {
		data = []byte(fmt.Sprintf("%v", params))
	}
	sum := sha256.Sum256(data)
	return name + "_" + hex.EncodeToString(sum[:8])
}

// Get returns the cached value for key, if present and fresh.
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, ok := c.items[key]
	if !ok {
		return nil, false
	}
	now := c.clock.Now()
	if now.After(item.expiresAt) {
		delete(c.items, key)
		return nil, false
	}
	item.lastAccess = now
	item.accessCount++
	return item.value, true
}

// Set stores value under key, evicting the oldest entry when full.
func (c *Cache) Set(key string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.items[key]; !exists && len(c.items) >= c.maxSize {
		c.evictOldestLocked()
	}
	now := c.clock.Now()
	c.items[key] = &cacheItem{
		value:      value,
		createdAt:  now,
		expiresAt:  now.Add(c.ttl),
		lastAccess: now,
	}
}

// Delete removes key from the cache.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.items = make(map[string]*cacheItem)
	c.mu.Unlock()
}

// CleanupExpired removes stale entries and returns how many were dropped.
func (c *Cache) CleanupExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	removed := 0
	for k, item := range c.items {
		if now.After(item.expiresAt) {
			delete(c.items, k)
			removed++
		}
	}
	return removed
}

// Len returns the number of entries, fresh or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *Cache) evictOldestLocked() {
	var oldestKey string
	var oldest time.Time
	for k, item := range c.items {
		if oldestKey == "" || item.createdAt.Before(oldest) {
			oldestKey, oldest = k, item.createdAt
		}
	}
	if oldestKey != "" {
		delete(c.items, oldestKey)
	}
}
