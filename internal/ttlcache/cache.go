package ttlcache

import (
	"reflect"
	"sync"
	"time"
)

type entry[V any] struct {
	storedAt time.Time
	value    V
	ttl      time.Duration
}

// Cache is a concurrency-safe expiring map.
type Cache[K comparable, V any] struct {
	mu         sync.RWMutex
	entries    map[K]entry[V]
	defaultTTL time.Duration
	now        func() time.Time
	isEmpty    func(V) bool
}

// Option configures a Cache.
type Option[K comparable, V any] func(*Cache[K, V])

// WithClock overrides the time source.
func WithClock[K comparable, V any](now func() time.Time) Option[K, V] {
	return func(c *Cache[K, V]) {
		if now != nil {
			c.now = now
		}
	}
}

// WithEmptyFunc overrides how Get decides a value is empty.
func WithEmptyFunc[K comparable, V any](fn func(V) bool) Option[K, V] {
	return func(c *Cache[K, V]) {
		if fn != nil {
			c.isEmpty = fn
		}
	}
}

// New creates a cache whose entries live for defaultTTL unless overridden.
func New[K comparable, V any](defaultTTL time.Duration, opts ...Option[K, V]) *Cache[K, V] {
	c := &Cache[K, V]{
		entries:    make(map[K]entry[V]),
		defaultTTL: defaultTTL,
		now:        time.Now,
		isEmpty:    isZeroOrEmpty[V],
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the value stored under key. Missing or expired entries report
// false, as do empty values when requireNonEmpty is set.
func (c *Cache[K, V]) Get(key K, requireNonEmpty bool) (V, bool) {
	var zero V
	c.mu.RLock()
	item, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return zero, false
	}
	if c.now().Sub(item.storedAt) >= item.ttl {
		c.mu.Lock()
		if current, still := c.entries[key]; still && current.storedAt.Equal(item.storedAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return zero, false
	}
	if requireNonEmpty && c.isEmpty(item.value) {
		return zero, false
	}
	return item.value, true
}

// Set stores value with the default TTL.
func (c *Cache[K, V]) Set(key K, value V) {
	c.SetWithTTL(key, value, c.defaultTTL)
}

// SetWithTTL stores value with an explicit TTL. A non-positive ttl falls back
// to the default.
func (c *Cache[K, V]) SetWithTTL(key K, value V, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	c.mu.Lock()
	c.entries[key] = entry[V]{storedAt: c.now(), value: value, ttl: ttl}
	c.mu.Unlock()
}

// Delete removes key and reports whether it was present.
func (c *Cache[K, V]) Delete(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	delete(c.entries, key)
	return ok
}

// DeleteFunc removes every entry whose key matches and returns the count.
func (c *Cache[K, V]) DeleteFunc(match func(K) bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for key := range c.entries {
		if match(key) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Clear drops every entry.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	clear(c.entries)
	c.mu.Unlock()
}

// Len reports the number of stored entries, expired ones included.
func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func isZeroOrEmpty[V any](value V) bool {
	rv := reflect.ValueOf(&value).Elem()
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.String, reflect.Array, reflect.Chan:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	default:
		return rv.IsZero()
	}
}
