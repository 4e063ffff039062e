package services

import (
	"container/list"
	"sync"
	"time"

	"github.com/codyseavey/versewise/internal/metrics"
	"github.com/codyseavey/versewise/internal/models"
)

const (
	// DefaultMemoryCacheTTL is how long a transient entry stays valid
	DefaultMemoryCacheTTL = time.Hour
	// DefaultMemoryCacheCapacity is the transient entry-count ceiling
	DefaultMemoryCacheCapacity = 1000
)

// Clock supplies the current time; tests substitute a fake.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock is the wall clock.
var SystemClock Clock = systemClock{}

type memoryItem struct {
	key        string
	entry      models.CacheEntry
	insertedAt time.Time
}

// MemoryTranslationCache is the transient, in-process tier. Entries expire
// TTL after insertion and the oldest-inserted entry is evicted once capacity
// is exceeded. Safe for concurrent use.
type MemoryTranslationCache struct {
	mu       sync.Mutex
	clock    Clock
	ttl      time.Duration
	capacity int
	order    *list.List // front = oldest insertion
	items    map[string]*list.Element
}

// NewMemoryTranslationCache creates the transient tier. Non-positive ttl or
// capacity fall back to the defaults.
func NewMemoryTranslationCache(clock Clock, ttl time.Duration, capacity int) *MemoryTranslationCache {
	if clock == nil {
		clock = SystemClock
	}
	if ttl <= 0 {
		ttl = DefaultMemoryCacheTTL
	}
	if capacity <= 0 {
		capacity = DefaultMemoryCacheCapacity
	}
	return &MemoryTranslationCache{
		clock:    clock,
		ttl:      ttl,
		capacity: capacity,
		order:    list.New(),
		items:    make(map[string]*list.Element),
	}
}

// Get returns a live entry. Expired entries are removed on the way out.
func (c *MemoryTranslationCache) Get(key models.CacheKey) (models.CacheEntry, bool) {
	k := cacheKeyString(key)

	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[k]
	if !ok {
		return models.CacheEntry{}, false
	}

	item := elem.Value.(*memoryItem)
	if c.clock.Now().Sub(item.insertedAt) >= c.ttl {
		c.removeElement(elem)
		metrics.TranslationCacheEvictions.WithLabelValues("expired").Inc()
		return models.CacheEntry{}, false
	}

	// hits refresh the entry timestamp; insertedAt still anchors the TTL
	item.entry.Timestamp = c.clock.Now()
	return item.entry, true
}

// Set inserts or replaces an entry. Replacing counts as a fresh insertion.
func (c *MemoryTranslationCache) Set(entry models.CacheEntry) {
	k := cacheKeyString(entry.Key)
	now := c.clock.Now()
	if entry.Timestamp.IsZero() {
		entry.Timestamp = now
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[k]; ok {
		item := elem.Value.(*memoryItem)
		item.entry = entry
		item.insertedAt = now
		c.order.MoveToBack(elem)
		return
	}

	c.items[k] = c.order.PushBack(&memoryItem{key: k, entry: entry, insertedAt: now})

	for c.order.Len() > c.capacity {
		c.removeElement(c.order.Front())
		metrics.TranslationCacheEvictions.WithLabelValues("capacity").Inc()
	}
	metrics.TranslationCacheEntries.WithLabelValues("memory").Set(float64(c.order.Len()))
}

// Delete removes key if present.
func (c *MemoryTranslationCache) Delete(key models.CacheKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.items[cacheKeyString(key)]; ok {
		c.removeElement(elem)
	}
}

// PurgeExpired removes every expired entry and returns how many were removed.
func (c *MemoryTranslationCache) PurgeExpired() int {
	now := c.clock.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for elem := c.order.Front(); elem != nil; {
		next := elem.Next()
		if now.Sub(elem.Value.(*memoryItem).insertedAt) >= c.ttl {
			c.removeElement(elem)
			removed++
		}
		elem = next
	}
	if removed > 0 {
		metrics.TranslationCacheEvictions.WithLabelValues("expired").Add(float64(removed))
	}
	metrics.TranslationCacheEntries.WithLabelValues("memory").Set(float64(c.order.Len()))
	return removed
}

// Clear drops every entry.
func (c *MemoryTranslationCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order.Init()
	c.items = make(map[string]*list.Element)
	metrics.TranslationCacheEntries.WithLabelValues("memory").Set(0)
}

// Len returns the number of held entries, including not yet purged expired ones.
func (c *MemoryTranslationCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// removeElement must be called with mu held.
func (c *MemoryTranslationCache) removeElement(elem *list.Element) {
	item := c.order.Remove(elem).(*memoryItem)
	delete(c.items, item.key)
}
