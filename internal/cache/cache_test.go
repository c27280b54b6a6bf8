// Leadflow - Behavioral Analytics Ingestion and Funnel Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/leadflow

package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func TestCacheBasicOperations(t *testing.T) {
	c := New(1*time.Minute, WithName("test"))

	c.Set("key1", "value1")
	value, exists := c.Get("key1")
	if !exists {
		t.Error("Expected key1 to exist")
	}
	if value != "value1" {
		t.Errorf("Expected value1, got %v", value)
	}

	_, exists = c.Get("key2")
	if exists {
		t.Error("Expected key2 to not exist")
	}
}

func TestCacheExpiration(t *testing.T) {
	clock := newFakeClock()
	c := New(time.Minute, WithClock(clock.Now))

	c.Set("key1", "value1")
	if _, exists := c.Get("key1"); !exists {
		t.Fatal("Expected key1 to exist immediately after set")
	}

	clock.Advance(61 * time.Second)

	if _, exists := c.Get("key1"); exists {
		t.Error("Expected key1 to be expired")
	}
	if c.Len() != 0 {
		t.Errorf("Expected expired entry to be removed, len = %d", c.Len())
	}
}

func TestCacheZeroTTLDisablesCaching(t *testing.T) {
	c := New(0)
	c.Set("key1", "value1")

	if _, exists := c.Get("key1"); exists {
		t.Error("Expected Set to be a no-op with zero TTL")
	}
}

func TestCacheDelete(t *testing.T) {
	c := New(1 * time.Minute)

	c.Set("key1", "value1")
	c.Delete("key1")

	if _, exists := c.Get("key1"); exists {
		t.Error("Expected key1 to be deleted")
	}
}

func TestCacheClear(t *testing.T) {
	c := New(1 * time.Minute)

	c.Set("key1", "value1")
	c.Set("key2", "value2")
	c.Set("key3", "value3")

	c.Clear()

	for _, key := range []string{"key1", "key2", "key3"} {
		if _, exists := c.Get(key); exists {
			t.Errorf("Expected %s to be cleared", key)
		}
	}

	stats := c.GetStats()
	if stats.TotalKeys != 0 {
		t.Errorf("Expected 0 keys after clear, got %d", stats.TotalKeys)
	}
	if stats.Evictions != 3 {
		t.Errorf("Expected 3 evictions, got %d", stats.Evictions)
	}
}

func TestCacheStats(t *testing.T) {
	c := New(1 * time.Minute)

	c.Set("key1", "value1")
	c.Get("key1") // hit
	c.Get("key1") // hit
	c.Get("key2") // miss

	stats := c.GetStats()
	if stats.Hits != 2 {
		t.Errorf("Expected 2 hits, got %d", stats.Hits)
	}
	if stats.Misses != 1 {
		t.Errorf("Expected 1 miss, got %d", stats.Misses)
	}

	hitRate := c.HitRate()
	expected := 2.0 / 3.0 * 100.0
	if hitRate < expected-0.01 || hitRate > expected+0.01 {
		t.Errorf("Expected hit rate %.2f, got %.2f", expected, hitRate)
	}
}

func TestCacheHitRateEmpty(t *testing.T) {
	c := New(time.Minute)
	if got := c.HitRate(); got != 0 {
		t.Errorf("Expected 0 hit rate, got %f", got)
	}
}

func TestCacheCleanup(t *testing.T) {
	clock := newFakeClock()
	c := New(time.Minute, WithClock(clock.Now))

	c.Set("old", 1)
	clock.Advance(30 * time.Second)
	c.SetWithTTL("new", 2, 5*time.Minute)
	clock.Advance(45 * time.Second)

	c.cleanup()

	if c.Len() != 1 {
		t.Fatalf("Expected 1 entry after cleanup, got %d", c.Len())
	}
	if _, ok := c.Get("new"); !ok {
		t.Error("Expected unexpired entry to survive cleanup")
	}
	if !c.GetStats().LastCleanup.Equal(clock.Now()) {
		t.Error("Expected LastCleanup to be updated")
	}
}

func TestCacheCloseIdempotent(t *testing.T) {
	c := New(time.Minute, WithCleanupInterval(time.Hour))
	c.Close()
	c.Close()
}

func TestCacheConcurrentAccess(t *testing.T) {
	c := New(time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := fmt.Sprintf("key-%d", j%10)
				c.Set(key, n)
				c.Get(key)
				if j%25 == 0 {
					c.Clear()
				}
			}
		}(i)
	}
	wg.Wait()
}

func TestGenerateKey(t *testing.T) {
	type params struct {
		From string
		To   string
	}

	a := GenerateKey("booking", params{From: "2026-01-01", To: "2026-02-01"})
	b := GenerateKey("booking", params{From: "2026-01-01", To: "2026-02-01"})
	c := GenerateKey("booking", params{From: "2026-01-02", To: "2026-02-01"})
	d := GenerateKey("interactive", params{From: "2026-01-01", To: "2026-02-01"})

	if a != b {
		t.Error("Expected identical params to produce identical keys")
	}
	if a == c {
		t.Error("Expected different params to produce different keys")
	}
	if a == d {
		t.Error("Expected different methods to produce different keys")
	}
}

func TestNoopCacher(t *testing.T) {
	var c Cacher = Noop{}
	c.Set("k", "v")
	if _, ok := c.Get("k"); ok {
		t.Error("Expected Noop to never hit")
	}
	c.Clear()
}
