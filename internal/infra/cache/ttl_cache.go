package cache

import (
	"strings"
	"sync"
	"time"
)

// DefaultTTL is how long a cached schedule view stays valid without writes.
const DefaultTTL = 60 * time.Second

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// TTLCache is a read-through cache with per-entry expiry and synchronous
// invalidation. A mutex-guarded map gives strong visibility within the
// process: once Invalidate returns, no caller can observe the dropped entry.
// An entry is never served at or past its expiry, regardless of invalidation
// activity elsewhere.
type TTLCache[V any] struct {
	mu      sync.Mutex
	entries map[string]entry[V]
	gen     uint64
	ttl     time.Duration
	now     func() time.Time
}

func New[V any](ttl time.Duration) *TTLCache[V] {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &TTLCache[V]{
		entries: make(map[string]entry[V]),
		ttl:     ttl,
		now:     time.Now,
	}
}

// ReadThrough returns the cached value for key if present and unexpired;
// otherwise it calls load, stores the result with a fresh expiry, and
// returns it. The lock is not held during load, so concurrent misses may
// load twice; the last store wins, which is harmless for immutable values.
// A store is discarded when any invalidation happened while the loader ran:
// the loaded value may predate the write that invalidated, and caching it
// would resurrect data the invalidation just dropped. The caller still gets
// the loaded value; the next read simply loads again.
func (c *TTLCache[V]) ReadThrough(key string, load func() (V, error)) (V, error) {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok && c.now().Before(e.expiresAt) {
		c.mu.Unlock()
		return e.value, nil
	}
	startGen := c.gen
	c.mu.Unlock()

	value, err := load()
	if err != nil {
		var zero V
		return zero, err
	}

	c.mu.Lock()
	if c.gen == startGen {
		c.entries[key] = entry[V]{value: value, expiresAt: c.now().Add(c.ttl)}
	}
	c.mu.Unlock()
	return value, nil
}

// Invalidate drops the entry for key, if any, and marks in-flight loads stale.
func (c *TTLCache[V]) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.gen++
	c.mu.Unlock()
}

// InvalidatePrefix drops every entry whose key starts with prefix.
func (c *TTLCache[V]) InvalidatePrefix(prefix string) {
	c.mu.Lock()
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
		}
	}
	c.gen++
	c.mu.Unlock()
}

// Purge drops all entries.
func (c *TTLCache[V]) Purge() {
	c.mu.Lock()
	c.entries = make(map[string]entry[V])
	c.gen++
	c.mu.Unlock()
}

// Len reports the number of entries currently stored, expired or not.
func (c *TTLCache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
