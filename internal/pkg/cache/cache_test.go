package cache

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestLRUGetSetDelete(t *testing.T) {
	c := New[string]("test_basic", 2, time.Minute)

	if _, ok := c.Get("a"); ok {
		t.Fatalf("empty cache should miss")
	}
	c.Set("a", "1")
	if v, ok := c.Get("a"); !ok || v != "1" {
		t.Fatalf("expected hit, got %q %v", v, ok)
	}

	c.Set("b", "2")
	c.Set("c", "3")
	if _, ok := c.Get("a"); ok {
		t.Fatalf("oldest entry should be evicted beyond size")
	}

	c.Delete("b")
	if _, ok := c.Get("b"); ok {
		t.Fatalf("deleted entry should miss")
	}

	c.Purge()
	if c.Len() != 0 {
		t.Fatalf("purge should empty the cache")
	}
}

func TestLRUExpires(t *testing.T) {
	c := New[int]("test_ttl", 4, 20*time.Millisecond)
	c.Set("k", 1)
	time.Sleep(60 * time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Fatalf("entry should expire after ttl")
	}
}

func TestLRUMetrics(t *testing.T) {
	c := New[int]("test_metrics", 4, time.Minute)
	c.Set("k", 1)
	c.Get("k")
	c.Get("missing")

	if got := testutil.ToFloat64(hitsTotal.WithLabelValues("test_metrics")); got != 1 {
		t.Fatalf("hits = %v, want 1", got)
	}
	if got := testutil.ToFloat64(missesTotal.WithLabelValues("test_metrics")); got != 1 {
		t.Fatalf("misses = %v, want 1", got)
	}
}
