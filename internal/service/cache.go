package service

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"
)

// TTLCache is an in-memory cache with absolute expiry. Expired entries are
// evicted lazily on lookup, never by a background sweep. When the cache is
// full the oldest insertion is dropped.
type TTLCache[V any] struct {
	mu      sync.RWMutex
	entries map[string]*ttlEntry[V]
	order   []string
	maxSize int
	ttl     time.Duration
	now     func() time.Time
}

type ttlEntry[V any] struct {
	value      V
	insertedAt time.Time
}

// NewTTLCache creates a cache holding at most maxSize entries for ttl each.
func NewTTLCache[V any](maxSize int, ttl time.Duration) *TTLCache[V] {
	if maxSize <= 0 {
		maxSize = 256
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &TTLCache[V]{
		entries: make(map[string]*ttlEntry[V]),
		order:   make([]string, 0, maxSize),
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
	}
}

func (c *TTLCache[V]) Get(key string) (V, bool) {
	var zero V

	c.mu.RLock()
	entry, exists := c.entries[key]
	c.mu.RUnlock()

	if !exists {
		return zero, false
	}

	if c.now().Sub(entry.insertedAt) > c.ttl {
		c.mu.Lock()
		delete(c.entries, key)
		c.removeFromOrder(key)
		c.mu.Unlock()
		return zero, false
	}

	return entry.value, true
}

func (c *TTLCache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; exists {
		c.entries[key] = &ttlEntry[V]{value: value, insertedAt: c.now()}
		return
	}

	if len(c.entries) >= c.maxSize {
		c.evictOldest()
	}

	c.entries[key] = &ttlEntry[V]{value: value, insertedAt: c.now()}
	c.order = append(c.order, key)
}

// Invalidate drops every entry. Called after knowledge writes so stale
// search results never outlive the data they ranked.
func (c *TTLCache[V]) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*ttlEntry[V])
	c.order = c.order[:0]
}

func (c *TTLCache[V]) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *TTLCache[V]) evictOldest() {
	if len(c.order) == 0 {
		return
	}
	oldest := c.order[0]
	c.order = c.order[1:]
	delete(c.entries, oldest)
}

func (c *TTLCache[V]) removeFromOrder(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

// normalizeQuery canonicalizes text for cache keys: lowercased, with runs of
// whitespace collapsed. The raw text is still what gets embedded.
func normalizeQuery(query string) string {
	return strings.ToLower(strings.Join(strings.Fields(query), " "))
}

func searchCacheKey(query, category string) string {
	hash := sha256.Sum256([]byte(normalizeQuery(query) + "\x00" + category))
	return hex.EncodeToString(hash[:16])
}

func responseCacheKey(query, callerID string) string {
	hash := sha256.Sum256([]byte(normalizeQuery(query) + "\x00" + callerID))
	return hex.EncodeToString(hash[:16])
}
