package cache

import (
	"sync"
	"testing"
	"time"
)

func TestCache_GetPutInvalidate(t *testing.T) {
	c := New[[]int](0)
	k := Key{DatasetVersion: "v1", ParamsFingerprint: "p1"}

	if _, ok := c.Get(k); ok {
		t.Fatal("hit on empty cache")
	}
	c.Put(k, []int{1, 2})
	c.Put(Key{DatasetVersion: "v1", ParamsFingerprint: "p2"}, []int{3})

	got, ok := c.Get(k)
	if !ok || len(got) != 2 {
		t.Fatalf("Get = %v, %v", got, ok)
	}
	if _, ok := c.Get(Key{DatasetVersion: "v2", ParamsFingerprint: "p1"}); ok {
		t.Error("hit for a different dataset version")
	}

	if n := c.Invalidate(); n != 2 {
		t.Errorf("Invalidate dropped %d, want 2", n)
	}
	if c.Len() != 0 {
		t.Errorf("Len after invalidate = %d", c.Len())
	}
	s := c.Stats()
	if s.Hits != 1 || s.Misses != 2 || s.Invalidations != 1 {
		t.Errorf("stats = %+v", s)
	}
}

func TestCache_TTL(t *testing.T) {
	c := New[string](time.Minute)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	k := Key{DatasetVersion: "v", ParamsFingerprint: "p"}
	c.Put(k, "x")
	now = now.Add(30 * time.Second)
	if _, ok := c.Get(k); !ok {
		t.Fatal("entry expired early")
	}
	now = now.Add(31 * time.Second)
	if _, ok := c.Get(k); ok {
		t.Fatal("entry survived TTL")
	}
	if c.Len() != 0 {
		t.Error("expired entry not dropped")
	}
}

func TestCache_Concurrent(t *testing.T) {
	c := New[int](0)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			k := Key{DatasetVersion: "v", ParamsFingerprint: string(rune('a' + i))}
			c.Put(k, i)
			if v, ok := c.Get(k); !ok || v != i {
				t.Errorf("Get(%v) = %d, %v", k, v, ok)
			}
		}(i)
	}
	wg.Wait()
	if c.Len() != 16 {
		t.Errorf("Len = %d, want 16", c.Len())
	}
}
