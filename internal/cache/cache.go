package cache

import (
	"context"
	"sync"
	"time"
)

// sweepEvery bounds how many writes may pass between full expiry sweeps.
const sweepEvery = 128

// Cache is a process-local TTL map. Expired entries are evicted on read, by a
// sweep every sweepEvery writes, and by Run when a janitor is started.
type Cache[V any] struct {
	mu     sync.RWMutex
	ttl    time.Duration
	now    func() time.Time
	m      map[string]entry[V]
	writes int
}

type entry[V any] struct {
	val V
	exp time.Time
}

func New[V any](ttl time.Duration) *Cache[V] {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}

	return &Cache[V]{
		ttl: ttl,
		now: time.Now,
		m:   make(map[string]entry[V]),
	}
}

func (c *Cache[V]) Get(key string) (V, bool) {
	now := c.now()
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if !ok {
		var zero V
		return zero, false
	}

	if now.After(e.exp) {
		c.mu.Lock()
		// another writer may have refreshed it in between
		if cur, ok := c.m[key]; ok && now.After(cur.exp) {
			delete(c.m, key)
		}
		c.mu.Unlock()
		var zero V
		return zero, false
	}

	return e.val, true
}

func (c *Cache[V]) Set(key string, val V) {
	now := c.now()
	c.mu.Lock()
	c.m[key] = entry[V]{val: val, exp: now.Add(c.ttl)}
	c.writes++
	if c.writes >= sweepEvery {
		c.writes = 0
		c.sweepLocked(now)
	}
	c.mu.Unlock()
}

// Sweep drops every expired entry and reports how many were removed.
func (c *Cache[V]) Sweep() int {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sweepLocked(now)
}

func (c *Cache[V]) sweepLocked(now time.Time) int {
	removed := 0
	for k, e := range c.m {
		if now.After(e.exp) {
			delete(c.m, k)
			removed++
		}
	}
	return removed
}

// Run sweeps once per TTL until ctx is done.
func (c *Cache[V]) Run(ctx context.Context) {
	t := time.NewTicker(c.ttl)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			c.Sweep()
		}
	}
}

func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	delete(c.m, key)
	c.mu.Unlock()
}

func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}
