// VaxSignal - Vaccine Adverse Event Signal Detection
// Copyright 2026 OpenVigil contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openvigil/vaxsignal

package cache

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func newTestCache(maxEntries int) *Cache {
	return New(Options{DefaultTTL: time.Minute, MaxEntries: maxEntries})
}

func TestGetMissThenHit(t *testing.T) {
	c := newTestCache(10)

	if _, ok := c.Get("k"); ok {
		t.Fatal("hit on empty cache")
	}

	c.Set("k", 42, time.Minute)
	v, ok := c.Get("k")
	if !ok {
		t.Fatal("miss after Set")
	}
	if v.(int) != 42 {
		t.Errorf("value = %v, want 42", v)
	}
}

func TestExpiredEntriesEvictLazily(t *testing.T) {
	c := newTestCache(10)
	c.Set("short", "v", 10*time.Millisecond)

	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get("short"); ok {
		t.Error("expired entry still served")
	}
	if c.Len() != 0 {
		t.Errorf("entry count = %d after expiry, want 0", c.Len())
	}

	stats := c.GetStats()
	if stats.EvictedExpired != 1 {
		t.Errorf("EvictedExpired = %d, want 1", stats.EvictedExpired)
	}
}

func TestOverflowEvictsNearestExpiryFirst(t *testing.T) {
	c := newTestCache(3)

	c.Set("soon", 1, 1*time.Minute)
	c.Set("later", 2, 10*time.Minute)
	c.Set("latest", 3, 20*time.Minute)
	// Fourth insert overflows; "soon" is nearest to expiry and must go.
	c.Set("new", 4, 5*time.Minute)

	if _, ok := c.Get("soon"); ok {
		t.Error("nearest-expiry entry survived overflow")
	}
	for _, key := range []string{"later", "latest", "new"} {
		if _, ok := c.Get(key); !ok {
			t.Errorf("entry %q evicted, want kept", key)
		}
	}
	if c.GetStats().EvictedOverflow != 1 {
		t.Errorf("EvictedOverflow = %d, want 1", c.GetStats().EvictedOverflow)
	}
}

func TestGetOrSetIdempotent(t *testing.T) {
	c := newTestCache(10)

	var calls atomic.Int64
	compute := func() (interface{}, error) {
		calls.Add(1)
		return "result", nil
	}

	v1, cached1, err := c.GetOrSet("k", compute, time.Minute)
	if err != nil || cached1 {
		t.Fatalf("first call: v=%v cached=%v err=%v", v1, cached1, err)
	}
	v2, cached2, err := c.GetOrSet("k", compute, time.Minute)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if !cached2 {
		t.Error("second call not served from cache")
	}
	if v1 != v2 {
		t.Errorf("values differ: %v vs %v", v1, v2)
	}
	if calls.Load() != 1 {
		t.Errorf("compute ran %d times, want 1", calls.Load())
	}
}

func TestGetOrSetSingleFlight(t *testing.T) {
	c := newTestCache(10)

	var calls atomic.Int64
	gate := make(chan struct{})
	compute := func() (interface{}, error) {
		calls.Add(1)
		<-gate
		return "shared", nil
	}

	const waiters = 16
	var wg sync.WaitGroup
	results := make([]interface{}, waiters)
	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, _, err := c.GetOrSet("hot", compute, time.Minute)
			if err != nil {
				t.Errorf("waiter %d: %v", i, err)
				return
			}
			results[i] = v
		}(i)
	}

	time.Sleep(20 * time.Millisecond) // let the waiters pile up
	close(gate)
	wg.Wait()

	if calls.Load() != 1 {
		t.Errorf("compute ran %d times for one key, want 1", calls.Load())
	}
	for i, v := range results {
		if v != "shared" {
			t.Errorf("waiter %d got %v, want shared result", i, v)
		}
	}
}

func TestGetOrSetErrorsPropagateUncached(t *testing.T) {
	c := newTestCache(10)

	wantErr := errors.New("compute failed")
	_, _, err := c.GetOrSet("k", func() (interface{}, error) {
		return nil, wantErr
	}, time.Minute)
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}
	if c.Len() != 0 {
		t.Error("failed compute left a cache entry behind")
	}

	// A later compute for the same key must run.
	v, cached, err := c.GetOrSet("k", func() (interface{}, error) {
		return "ok", nil
	}, time.Minute)
	if err != nil || cached || v != "ok" {
		t.Errorf("retry: v=%v cached=%v err=%v", v, cached, err)
	}
}

func TestDisabledCachePassesThrough(t *testing.T) {
	c := New(Options{DefaultTTL: time.Minute, MaxEntries: 10, Disabled: true})

	c.Set("k", 1, time.Minute)
	if _, ok := c.Get("k"); ok {
		t.Error("disabled cache served a value")
	}

	var calls int
	for i := 0; i < 2; i++ {
		if _, _, err := c.GetOrSet("k", func() (interface{}, error) {
			calls++
			return i, nil
		}, time.Minute); err != nil {
			t.Fatal(err)
		}
	}
	if calls != 2 {
		t.Errorf("compute ran %d times with cache disabled, want 2", calls)
	}
}

func TestClearAndDelete(t *testing.T) {
	c := newTestCache(10)
	c.Set("a", 1, time.Minute)
	c.Set("b", 2, time.Minute)

	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Error("deleted entry still present")
	}
	if _, ok := c.Get("b"); !ok {
		t.Error("unrelated entry lost on Delete")
	}

	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len = %d after Clear, want 0", c.Len())
	}
}

func TestPruneEvictsExpired(t *testing.T) {
	c := newTestCache(10)
	c.Set("short", 1, 5*time.Millisecond)
	c.Set("long", 2, time.Minute)

	time.Sleep(15 * time.Millisecond)
	c.Prune()

	if c.Len() != 1 {
		t.Errorf("Len = %d after Prune, want 1", c.Len())
	}
}
