// Package cache provides the shared page cache used by the page resolver.
package cache

import (
	"container/list"
	"sync"

	"github.com/KilimcininKorOglu/revtree/internal/storage"
)

// DefaultCapacity is the number of pages kept when no capacity is given.
const DefaultCapacity = 4096

// PageCache is a thread-safe LRU cache of decoded pages keyed by reference.
// Pages are immutable, so an evicted page is simply loaded again on the next
// miss.
type PageCache struct {
	capacity int
	entries  map[storage.PageRef]*list.Element
	lru      *list.List // front is most recently used
	mu       sync.Mutex

	hits      uint64
	misses    uint64
	evictions uint64
}

// cacheEntry is the value stored in the LRU list.
type cacheEntry struct {
	ref  storage.PageRef
	page storage.Page
}

// Stats holds cache counters.
type Stats struct {
	Capacity  int
	Size      int
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// HitRatio returns hits / (hits + misses), or 0 before the first lookup.
func (s Stats) HitRatio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// New creates a cache holding at most capacity pages.
func New(capacity int) *PageCache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &PageCache{
		capacity: capacity,
		entries:  make(map[storage.PageRef]*list.Element),
		lru:      list.New(),
	}
}

// Get returns the cached page for ref and marks it as recently used.
func (c *PageCache) Get(ref storage.PageRef) (storage.Page, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[ref]
	if !ok {
		c.misses++
		return nil, false
	}

	c.hits++
	c.lru.MoveToFront(elem)
	return elem.Value.(*cacheEntry).page, true
}

// Put inserts a page, evicting the least recently used page when full.
func (c *PageCache) Put(ref storage.PageRef, page storage.Page) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[ref]; ok {
		elem.Value.(*cacheEntry).page = page
		c.lru.MoveToFront(elem)
		return
	}

	for len(c.entries) >= c.capacity {
		c.evictLocked()
	}

	c.entries[ref] = c.lru.PushFront(&cacheEntry{ref: ref, page: page})
}

// evictLocked removes the least recently used page. Caller holds c.mu.
func (c *PageCache) evictLocked() {
	elem := c.lru.Back()
	if elem == nil {
		return
	}
	c.lru.Remove(elem)
	delete(c.entries, elem.Value.(*cacheEntry).ref)
	c.evictions++
}

// Remove drops a page from the cache.
func (c *PageCache) Remove(ref storage.PageRef) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[ref]; ok {
		c.lru.Remove(elem)
		delete(c.entries, ref)
	}
}

// Contains reports whether ref is cached without touching recency or stats.
func (c *PageCache) Contains(ref storage.PageRef) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[ref]
	return ok
}

// Len returns the number of cached pages.
func (c *PageCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Keys returns the cached references from most to least recently used.
func (c *PageCache) Keys() []storage.PageRef {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]storage.PageRef, 0, c.lru.Len())
	for elem := c.lru.Front(); elem != nil; elem = elem.Next() {
		keys = append(keys, elem.Value.(*cacheEntry).ref)
	}
	return keys
}

// Stats returns a snapshot of the cache counters.
func (c *PageCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Capacity:  c.capacity,
		Size:      len(c.entries),
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
	}
}

// Clear drops every page and resets the counters.
func (c *PageCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[storage.PageRef]*list.Element)
	c.lru.Init()
	c.hits = 0
	c.misses = 0
	c.evictions = 0
}
