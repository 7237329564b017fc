package cache

import (
	"testing"
	"time"
)

func newTestCache(now *time.Time) *Cache {
	c := New()
	c.now = func() time.Time { return *now }
	return c
}

func TestCache_EntryExpires(t *testing.T) {
	now := time.Now()
	c := newTestCache(&now)

	c.SetUntil("k", true, now.Add(time.Minute))

	if _, ok := c.Get("k"); !ok {
		t.Fatalf("expected entry before expiry")
	}

	now = now.Add(2 * time.Minute)
	if _, ok := c.Get("k"); ok {
		t.Fatalf("expected entry to be gone after expiry")
	}
}

func TestCache_SetIfAbsent(t *testing.T) {
	now := time.Now()
	c := newTestCache(&now)

	if !c.SetIfAbsent("jti", true, now.Add(time.Minute)) {
		t.Fatalf("first SetIfAbsent should store")
	}
	if c.SetIfAbsent("jti", true, now.Add(time.Minute)) {
		t.Fatalf("second SetIfAbsent should refuse")
	}

	now = now.Add(2 * time.Minute)
	if !c.SetIfAbsent("jti", true, now.Add(time.Minute)) {
		t.Fatalf("SetIfAbsent should store again once the old entry expired")
	}
}

func TestCache_Sweep(t *testing.T) {
	now := time.Now()
	c := newTestCache(&now)

	c.SetUntil("a", 1, now.Add(time.Second))
	c.SetUntil("b", 2, now.Add(time.Hour))

	now = now.Add(time.Minute)

	if n := c.Sweep(); n != 1 {
		t.Fatalf("expected 1 swept entry, got %d", n)
	}
	if c.Len() != 1 {
		t.Fatalf("expected 1 remaining entry, got %d", c.Len())
	}
}
