// Package cache implements the concurrent, sliding-expiration memoisation
// cache described in the specification: a map from expression text to a
// resolved value, with lock-free get/add-if-absent/remove and a
// background expiration tick driven by an external collaborator.
package cache

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// entry is a cache entry: ownership belongs to the Cache, which
// creates it on first successful resolution and destroys it on
// expiration or pressure-driven eviction.
type entry[V any] struct {
	value    V
	touched  atomic.Bool
	lastSeen atomic.Int64 // UnixNano
}

// Cache is a concurrent map[string]V with sliding expiration and
// memory-pressure eviction. The zero value is not usable; use New.
type Cache[V any] struct {
	m                           sync.Map
	slidingExpiration           time.Duration
	highPressureThreshold       int
	highPressureClearPercentage int
	now                         func() time.Time
}

// New constructs a Cache. highPressureThreshold and
// highPressureClearPercentage are percentages (0..100).
func New[V any](slidingExpiration time.Duration, highPressureThreshold, highPressureClearPercentage int) *Cache[V] {
	return &Cache[V]{
		slidingExpiration:           slidingExpiration,
		highPressureThreshold:       highPressureThreshold,
		highPressureClearPercentage: highPressureClearPercentage,
		now:                         time.Now,
	}
}

// LookupOrResolve probes the cache for key; on a hit it marks the
// entry touched, records the time it was last seen, and returns its
// value. On a miss it calls resolve and,
// if successful, installs the result. Two concurrent misses on the
// same key may both call resolve, but only one of the resulting
// entries survives, per the map's add-if-absent contract - callers
// always get back the value of whichever entry survived.
func (c *Cache[V]) LookupOrResolve(key string, resolve func() (V, error)) (V, error) {
	if v, ok := c.m.Load(key); ok {
		e := v.(*entry[V])
		e.touched.Store(true)
		e.lastSeen.Store(c.now().UnixNano())
		return e.value, nil
	}

	v, err := resolve()
	if err != nil {
		var zero V
		return zero, err
	}

	e := &entry[V]{value: v}
	e.touched.Store(true)
	e.lastSeen.Store(c.now().UnixNano())

	actual, _ := c.m.LoadOrStore(key, e)
	return actual.(*entry[V]).value, nil
}

// ExpirationTick scans the cache once: entries touched since the
// previous tick have their flag cleared and survive; entries not
// touched since the previous tick, and last seen (installed or hit)
// more than the sliding expiration ago, are removed. If
// memoryPressurePercent is at or above the configured
// threshold, the least-recently-seen highPressureClearPercentage of
// the surviving entries are additionally evicted.
func (c *Cache[V]) ExpirationTick(memoryPressurePercent int) {
	now := c.now()
	type survivor struct {
		key      string
		lastSeen int64
	}
	var survivors []survivor

	c.m.Range(func(k, v any) bool {
		key := k.(string)
		e := v.(*entry[V])
		lastSeen := e.lastSeen.Load()
		if e.touched.Swap(false) {
			survivors = append(survivors, survivor{key: key, lastSeen: lastSeen})
			return true
		}
		if now.Sub(time.Unix(0, lastSeen)) > c.slidingExpiration {
			c.m.Delete(key)
			return true
		}
		survivors = append(survivors, survivor{key: key, lastSeen: lastSeen})
		return true
	})

	if memoryPressurePercent < c.highPressureThreshold {
		return
	}

	sort.Slice(survivors, func(i, j int) bool { return survivors[i].lastSeen < survivors[j].lastSeen })
	n := len(survivors) * c.highPressureClearPercentage / 100
	for i := 0; i < n && i < len(survivors); i++ {
		c.m.Delete(survivors[i].key)
	}
}

// Clear removes all entries, used on reconfiguration.
func (c *Cache[V]) Clear() {
	c.m.Range(func(k, _ any) bool {
		c.m.Delete(k)
		return true
	})
}

// Len reports the current entry count, for observability/tests.
func (c *Cache[V]) Len() int {
	n := 0
	c.m.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
