package cache

import (
	"errors"
	"testing"
	"time"
)

func TestLRUCacheEviction(t *testing.T) {
	c := NewLRUCache[string](3, time.Hour)

	c.Set("key1", "value1")
	c.Set("key2", "value2")
	c.Set("key3", "value3")
	c.Get("key1") // key2 becomes least recently used
	c.Set("key4", "value4")

	if _, found := c.Get("key2"); found {
		t.Error("key2 should have been evicted")
	}
	for _, k := range []string{"key1", "key3", "key4"} {
		if _, found := c.Get(k); !found {
			t.Errorf("%s should still exist", k)
		}
	}
	if c.Size() != 3 {
		t.Errorf("Size() = %d, want 3", c.Size())
	}
}

func TestLRUCacheTTL(t *testing.T) {
	c := NewLRUCache[int](10, time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set("a", 1)
	c.Set("b", 2)
	now = now.Add(30 * time.Second)
	c.Set("b", 3) // refreshes expiry

	now = now.Add(45 * time.Second)
	if _, ok := c.Get("a"); ok {
		t.Error("a should have expired")
	}
	if v, ok := c.Get("b"); !ok || v != 3 {
		t.Errorf("b = %d, %v", v, ok)
	}

	now = now.Add(time.Hour)
	if n := c.CleanExpired(); n != 1 {
		t.Errorf("CleanExpired() = %d, want 1", n)
	}
	if c.Size() != 0 {
		t.Errorf("Size() = %d after cleanup", c.Size())
	}
}

func TestGetOrCompute(t *testing.T) {
	c := NewLRUCache[int](2, time.Hour)
	calls := 0
	fn := func() (int, error) { calls++; return 42, nil }

	for i := 0; i < 3; i++ {
		v, err := c.GetOrCompute("k", fn)
		if err != nil || v != 42 {
			t.Fatalf("GetOrCompute = %d, %v", v, err)
		}
	}
	if calls != 1 {
		t.Errorf("fn called %d times, want 1", calls)
	}

	if _, err := c.GetOrCompute("bad", func() (int, error) { return 0, errors.New("boom") }); err == nil {
		t.Error("expected error")
	}
	if _, ok := c.Get("bad"); ok {
		t.Error("errors must not be cached")
	}

	st := c.Stats()
	if st.Hits != 2 || st.Size != 1 {
		t.Errorf("Stats() = %+v", st)
	}
}

func TestManager(t *testing.T) {
	c := NewLRUCache[int](10, time.Millisecond)
	now := time.Now()
	c.now = func() time.Time { return now }
	c.Set("x", 1)
	now = now.Add(time.Second)

	m := NewManager()
	m.Register(c)
	if n := m.CleanNow(); n != 1 {
		t.Errorf("CleanNow() = %d, want 1", n)
	}

	m.StartCleanup(time.Hour)
	m.Stop()
	m.Stop()
}

func TestManagerStopWithoutStart(t *testing.T) {
	NewManager().Stop()
}
