// Package cache wraps hashicorp/golang-lru/v2/expirable with hit/miss metrics.
package cache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	hitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notesphere_cache_hits_total",
		Help: "Total number of in-memory cache hits.",
	}, []string{"cache"})
	missesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notesphere_cache_misses_total",
		Help: "Total number of in-memory cache misses.",
	}, []string{"cache"})
)

// LRU is a size-bounded cache whose entries expire ttl after being added.
// Each API instance keeps its own copy.
type LRU[V any] struct {
	name   string
	cache  *expirable.LRU[string, V]
	hits   prometheus.Counter
	misses prometheus.Counter
}

// New creates an LRU labelled name in the metrics
func New[V any](name string, size int, ttl time.Duration) *LRU[V] {
	if size <= 0 {
		size = 64
	}
	return &LRU[V]{
		name:   name,
		cache:  expirable.NewLRU[string, V](size, nil, ttl),
		hits:   hitsTotal.WithLabelValues(name),
		misses: missesTotal.WithLabelValues(name),
	}
}

// Get returns the cached value for key
func (c *LRU[V]) Get(key string) (V, bool) {
	val, ok := c.cache.Get(key)
	if ok {
		c.hits.Inc()
	} else {
		c.misses.Inc()
	}
	return val, ok
}

// Set stores value under key
func (c *LRU[V]) Set(key string, value V) {
	c.cache.Add(key, value)
}

// Delete evicts key
func (c *LRU[V]) Delete(key string) {
	c.cache.Remove(key)
}

// Purge evicts everything
func (c *LRU[V]) Purge() {
	c.cache.Purge()
}

// Len returns the number of live entries
func (c *LRU[V]) Len() int {
	return c.cache.Len()
}
