package cache

import (
	"container/list"
	"sync"
	"time"
)

// EvictReason tells an eviction hook why an entry left the cache.
type EvictReason int

const (
	EvictExpired EvictReason = iota
	EvictCapacity
	EvictDeleted
	EvictReplaced
)

func (r EvictReason) String() string {
	switch r {
	case EvictExpired:
		return "expired"
	case EvictCapacity:
		return "capacity"
	case EvictDeleted:
		return "deleted"
	case EvictReplaced:
		return "replaced"
	default:
		return "unknown"
	}
}

// EvictFunc is called after an entry has been removed. It runs outside the
// cache lock, so it may call back into the cache.
type EvictFunc[T any] func(key string, value T, reason EvictReason)

// LRUCache is an LRU cache with TTL and size-based eviction.
// A read refreshes both the recency and the expiry of an entry.
type LRUCache[T any] struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	items   map[string]*list.Element
	lru     *list.List
	onEvict EvictFunc[T]
	now     func() time.Time
}

type cacheItem[T any] struct {
	key       string
	data      T
	expiresAt time.Time
}

type evicted[T any] struct {
	key    string
	data   T
	reason EvictReason
}

// Option configures an LRUCache.
type Option[T any] func(*LRUCache[T])

// WithEvictFunc registers a hook that sees every removed entry.
func WithEvictFunc[T any](fn EvictFunc[T]) Option[T] {
	return func(c *LRUCache[T]) {
		c.onEvict = fn
	}
}

// WithClock overrides time.Now, mostly for tests.
func WithClock[T any](now func() time.Time) Option[T] {
	return func(c *LRUCache[T]) {
		c.now = now
	}
}

// NewLRUCache creates a new LRU cache with TTL. A non-positive ttl means
// entries never expire.
func NewLRUCache[T any](maxSize int, ttl time.Duration, opts ...Option[T]) *LRUCache[T] {
	if maxSize <= 0 {
		maxSize = 1
	}
	c := &LRUCache[T]{
		maxSize: maxSize,
		ttl:     ttl,
		items:   make(map[string]*list.Element),
		lru:     list.New(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get retrieves a value from the cache
func (c *LRUCache[T]) Get(key string) (T, bool) {
	var zero T

	c.mu.Lock()
	elem, exists := c.items[key]
	if !exists {
		c.mu.Unlock()
		return zero, false
	}

	item := elem.Value.(*cacheItem[T])
	now := c.now()
	if c.expired(item, now) {
		c.removeElement(elem)
		c.mu.Unlock()
		c.notify([]evicted[T]{{key: item.key, data: item.data, reason: EvictExpired}})
		return zero, false
	}

	item.expiresAt = c.deadline(now)
	c.lru.MoveToFront(elem)
	c.mu.Unlock()
	return item.data, true
}

// Set stores a value in the cache
func (c *LRUCache[T]) Set(key string, data T) {
	var gone []evicted[T]

	c.mu.Lock()
	item := &cacheItem[T]{
		key:       key,
		data:      data,
		expiresAt: c.deadline(c.now()),
	}

	if elem, exists := c.items[key]; exists {
		old := elem.Value.(*cacheItem[T])
		gone = append(gone, evicted[T]{key: key, data: old.data, reason: EvictReplaced})
		elem.Value = item
		c.lru.MoveToFront(elem)
	} else {
		c.items[key] = c.lru.PushFront(item)
		for c.lru.Len() > c.maxSize {
			oldest := c.lru.Back()
			old := oldest.Value.(*cacheItem[T])
			c.removeElement(oldest)
			gone = append(gone, evicted[T]{key: old.key, data: old.data, reason: EvictCapacity})
		}
	}
	c.mu.Unlock()

	c.notify(gone)
}

// Delete removes a key from the cache
func (c *LRUCache[T]) Delete(key string) {
	c.mu.Lock()
	elem, exists := c.items[key]
	if !exists {
		c.mu.Unlock()
		return
	}
	item := elem.Value.(*cacheItem[T])
	c.removeElement(elem)
	c.mu.Unlock()

	c.notify([]evicted[T]{{key: key, data: item.data, reason: EvictDeleted}})
}

// Purge removes every entry, reporting each as deleted.
func (c *LRUCache[T]) Purge() {
	c.mu.Lock()
	gone := make([]evicted[T], 0, c.lru.Len())
	for elem := c.lru.Front(); elem != nil; elem = elem.Next() {
		item := elem.Value.(*cacheItem[T])
		gone = append(gone, evicted[T]{key: item.key, data: item.data, reason: EvictDeleted})
	}
	c.items = make(map[string]*list.Element)
	c.lru.Init()
	c.mu.Unlock()

	c.notify(gone)
}

func (c *LRUCache[T]) removeElement(elem *list.Element) {
	item := elem.Value.(*cacheItem[T])
	delete(c.items, item.key)
	c.lru.Remove(elem)
}

// CleanExpired removes all expired entries and returns count of removed items
func (c *LRUCache[T]) CleanExpired() int {
	c.mu.Lock()
	now := c.now()
	var gone []evicted[T]
	for elem := c.lru.Front(); elem != nil; {
		next := elem.Next()
		item := elem.Value.(*cacheItem[T])
		if c.expired(item, now) {
			c.removeElement(elem)
			gone = append(gone, evicted[T]{key: item.key, data: item.data, reason: EvictExpired})
		}
		elem = next
	}
	c.mu.Unlock()

	c.notify(gone)
	return len(gone)
}

// Size returns the current number of items in the cache
func (c *LRUCache[T]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *LRUCache[T]) expired(item *cacheItem[T], now time.Time) bool {
	return c.ttl > 0 && now.After(item.expiresAt)
}

func (c *LRUCache[T]) deadline(now time.Time) time.Time {
	if c.ttl <= 0 {
		return time.Time{}
	}
	return now.Add(c.ttl)
}

func (c *LRUCache[T]) notify(gone []evicted[T]) {
	if c.onEvict == nil {
		return
	}
	for _, e := range gone {
		c.onEvict(e.key, e.data, e.reason)
	}
}
