package cache

import (
	"sync"
	"time"
)

// Cache is a small in-process map whose entries expire at an absolute time.
type Cache struct {
	mu  sync.RWMutex
	now func() time.Time
	m   map[string]entry
}

type entry struct {
	val any
	exp time.Time
}

func New() *Cache {
	return &Cache{
		now: time.Now,
		m:   make(map[string]entry),
	}
}

func (c *Cache) Get(key string) (any, bool) {
	now := c.now()
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if now.After(e.exp) {
		c.mu.Lock()
		delete(c.m, key)
		c.mu.Unlock()
		return nil, false
	}

	return e.val, true
}

// SetUntil stores val until exp. Entries with exp in the past are ignored.
func (c *Cache) SetUntil(key string, val any, exp time.Time) {
	if !exp.After(c.now()) {
		return
	}
	c.mu.Lock()
	c.m[key] = entry{val: val, exp: exp}
	c.mu.Unlock()
}

// SetIfAbsent stores val until exp unless a live entry exists. It reports
// whether the value was stored.
func (c *Cache) SetIfAbsent(key string, val any, exp time.Time) bool {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.m[key]; ok && !now.After(e.exp) {
		return false
	}
	if !exp.After(now) {
		// already expired; nothing to remember but the caller was first
		return true
	}
	c.m[key] = entry{val: val, exp: exp}
	return true
}

func (c *Cache) Delete(key string) {
	c.mu.Lock()
	delete(c.m, key)
	c.mu.Unlock()
}

// Sweep drops expired entries and returns how many were removed.
func (c *Cache) Sweep() int {
	now := c.now()
	removed := 0

	c.mu.Lock()
	for k, e := range c.m {
		if now.After(e.exp) {
			delete(c.m, k)
			removed++
		}
	}
	c.mu.Unlock()

	return removed
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}
