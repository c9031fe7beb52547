package sanity

import (
	"sync"
	"sync/atomic"
	"time"
)

// ResponseCache caches raw query results with LRU eviction and TTL. The size
// budget is counted in bytes of cached result.
type ResponseCache struct {
	entries     map[string]*cacheEntry
	mutex       sync.Mutex
	maxSize     int64
	currentSize int64
	ttl         time.Duration
	now         func() time.Time
	// LRU list with sentinel head and tail
	head *cacheEntry
	tail *cacheEntry

	hits      int64
	misses    int64
	evictions int64
}

type cacheEntry struct {
	key       string
	value     []byte
	createdAt time.Time
	size      int64
	prev      *cacheEntry
	next      *cacheEntry
}

// NewResponseCache creates a cache holding at most maxSize bytes, each entry
// living for ttl.
func NewResponseCache(maxSize int64, ttl time.Duration) *ResponseCache {
	c := &ResponseCache{
		entries: make(map[string]*cacheEntry),
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
		head:    &cacheEntry{},
		tail:    &cacheEntry{},
	}
	c.head.next = c.tail
	c.tail.prev = c.head
	return c
}

// Get retrieves a value from the cache
func (c *ResponseCache) Get(key string) ([]byte, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	entry, exists := c.entries[key]
	if !exists {
		atomic.AddInt64(&c.misses, 1)
		return nil, false
	}

	if c.now().Sub(entry.createdAt) > c.ttl {
		c.remove(entry)
		atomic.AddInt64(&c.misses, 1)
		return nil, false
	}

	c.moveToFront(entry)
	atomic.AddInt64(&c.hits, 1)
	return entry.value, true
}

// Set stores a value in the cache. Values larger than the whole cache are
// not stored.
func (c *ResponseCache) Set(key string, value []byte) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	size := int64(len(value))
	if size > c.maxSize {
		return
	}

	if existing, ok := c.entries[key]; ok {
		c.remove(existing)
	}

	for c.currentSize+size > c.maxSize && c.tail.prev != c.head {
		c.remove(c.tail.prev)
		atomic.AddInt64(&c.evictions, 1)
	}

	entry := &cacheEntry{
		key:       key,
		value:     value,
		createdAt: c.now(),
		size:      size,
	}
	c.entries[key] = entry
	c.currentSize += size
	c.addToFront(entry)
}

// Clear drops every entry.
func (c *ResponseCache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.entries = make(map[string]*cacheEntry)
	c.currentSize = 0
	c.head.next = c.tail
	c.tail.prev = c.head
}

// Len returns the number of cached entries.
func (c *ResponseCache) Len() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return len(c.entries)
}

// Size returns the cached bytes.
func (c *ResponseCache) Size() int64 {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.currentSize
}

// Hits returns the number of cache hits
func (c *ResponseCache) Hits() int64 { return atomic.LoadInt64(&c.hits) }

// Misses returns the number of cache misses
func (c *ResponseCache) Misses() int64 { return atomic.LoadInt64(&c.misses) }

// Evictions returns the number of LRU evictions
func (c *ResponseCache) Evictions() int64 { return atomic.LoadInt64(&c.evictions) }

func (c *ResponseCache) remove(entry *cacheEntry) {
	entry.prev.next = entry.next
	entry.next.prev = entry.prev
	delete(c.entries, entry.key)
	c.currentSize -= entry.size
}

func (c *ResponseCache) addToFront(entry *cacheEntry) {
	entry.prev = c.head
	entry.next = c.head.next
	c.head.next.prev = entry
	c.head.next = entry
}

func (c *ResponseCache) moveToFront(entry *cacheEntry) {
	entry.prev.next = entry.next
	entry.next.prev = entry.prev
	c.addToFront(entry)
}
