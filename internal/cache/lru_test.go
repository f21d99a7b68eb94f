package cache

import (
	"io"
	"testing"
	"time"

	applog "platinum/internal/log"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) Now() time.Time          { return f.t }
func (f *fakeClock) Advance(d time.Duration) { f.t = f.t.Add(d) }

func TestLRUCache_Expiry(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC)}
	c := NewLRUCache[string](10, time.Minute).WithClock(clock.Now)

	c.Set("a", "1")
	if v, ok := c.Get("a"); !ok || v != "1" {
		t.Fatalf("Get(a) = %q, %v", v, ok)
	}

	clock.Advance(2 * time.Minute)
	if _, ok := c.Get("a"); ok {
		t.Fatal("expected entry to expire")
	}
	if c.Size() != 0 {
		t.Fatalf("expired entry should be removed on read, size = %d", c.Size())
	}
}

func TestLRUCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRUCache[int](2, time.Hour)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a")
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("a should still be cached")
	}
	if _, ok := c.Get("c"); !ok {
		t.Error("c should be cached")
	}
}

func TestLRUCache_NoTTL(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	c := NewLRUCache[int](4, 0).WithClock(clock.Now)
	c.Set("k", 1)
	clock.Advance(24 * 365 * time.Hour)
	if _, ok := c.Get("k"); !ok {
		t.Fatal("entry without TTL should not expire")
	}
}

func TestLRUCache_DeletePrefixAndPurge(t *testing.T) {
	c := NewLRUCache[int](10, time.Hour)
	c.Set("MetasClone:1", 1)
	c.Set("clone_platinum_s:1", 2)
	c.Set("MetasClone:2", 3)

	if n := c.DeletePrefix("MetasClone:"); n != 2 {
		t.Fatalf("DeletePrefix removed %d, want 2", n)
	}
	if c.Size() != 1 {
		t.Fatalf("size = %d, want 1", c.Size())
	}

	c.Purge()
	if c.Size() != 0 {
		t.Fatalf("size after purge = %d", c.Size())
	}
	c.Set("x", 1)
	if v, ok := c.Get("x"); !ok || v != 1 {
		t.Fatal("cache unusable after purge")
	}
}

func TestManager_Sweep(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	short := NewLRUCache[int](10, time.Second).WithClock(clock.Now)
	long := NewLRUCache[int](10, time.Hour).WithClock(clock.Now)
	short.Set("a", 1)
	short.Set("b", 2)
	long.Set("c", 3)

	m := NewManager(applog.New(applog.Config{Output: io.Discard}))
	m.Register("short", short)
	m.Register("long", long)

	clock.Advance(time.Minute)
	if n := m.Sweep(); n != 2 {
		t.Fatalf("Sweep() = %d, want 2", n)
	}
	if long.Size() != 1 {
		t.Fatal("unexpired entry was removed")
	}

	m.StartCleanup(time.Hour)
	m.Stop()
	m.Stop()
}
