// Package cache provides named TTL result caches with hit accounting. Under
// memory pressure the guard trims the least-hit entries until a cache is back
// under its size target.
package cache

import (
	"sort"
	"sync"
	"time"

	"inferd/pkg/types"
)

// defaultTargetMB bounds a cache's estimated size before aggressive cleanup
// starts trimming.
const defaultTargetMB = 512

type entry struct {
	value   any
	sizeMB  float64
	expires time.Time
	hits    uint64
}

// Cache is a TTL key/value store. All methods are safe for concurrent use.
type Cache struct {
	mu       sync.Mutex
	name     string
	targetMB float64
	entries  map[string]*entry
	hits     uint64
	misses   uint64
}

// New returns an empty cache. name labels stats and metrics; targetMB <= 0
// selects the default size target.
func New(name string, targetMB float64) *Cache {
	if targetMB <= 0 {
		targetMB = defaultTargetMB
	}
	return &Cache{
		name:     name,
		targetMB: targetMB,
		entries:  make(map[string]*entry),
	}
}

// Name returns the cache's label.
func (c *Cache) Name() string { return c.name }

// Set stores value under key for ttl. An existing entry is replaced and its
// hit count reset.
func (c *Cache) Set(key string, value any, ttl time.Duration) {
	c.mu.Lock()
	c.entries[key] = &entry{
		value:   value,
		sizeMB:  estimateMB(value),
		expires: now().Add(ttl),
	}
	c.mu.Unlock()
}

// Get returns the live value under key. Expired entries are purged on access
// and count as misses.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		c.misses++
		missesTotal.WithLabelValues(c.name).Inc()
		return nil, false
	}
	if now().After(e.expires) {
		delete(c.entries, key)
		c.misses++
		missesTotal.WithLabelValues(c.name).Inc()
		return nil, false
	}
	e.hits++
	c.hits++
	hitsTotal.WithLabelValues(c.name).Inc()
	return e.value, true
}

// Sweep removes every expired entry and returns how many were removed.
func (c *Cache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sweepLocked()
}

func (c *Cache) sweepLocked() int {
	t := now()
	removed := 0
	for k, e := range c.entries {
		if t.After(e.expires) {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

// Cleanup removes expired entries; when aggressive and the estimated size
// exceeds the target it also drops the least-hit quarter of what remains.
// Returns the total number of entries removed.
func (c *Cache) Cleanup(aggressive bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := c.sweepLocked()
	if !aggressive || len(c.entries) == 0 {
		return removed
	}

	var totalMB float64
	for _, e := range c.entries {
		totalMB += e.sizeMB
	}
	if totalMB <= c.targetMB {
		return removed
	}

	type ranked struct {
		key  string
		hits uint64
	}
	byHits := make([]ranked, 0, len(c.entries))
	for k, e := range c.entries {
		byHits = append(byHits, ranked{key: k, hits: e.hits})
	}
	sort.Slice(byHits, func(i, j int) bool { return byHits[i].hits < byHits[j].hits })

	drop := len(byHits) / 4
	if drop < 1 {
		drop = 1
	}
	for _, r := range byHits[:drop] {
		delete(c.entries, r.key)
		removed++
	}
	return removed
}

// Purge drops every entry. Hit/miss totals survive.
func (c *Cache) Purge() {
	c.mu.Lock()
	c.entries = make(map[string]*entry)
	c.mu.Unlock()
}

// Len returns the number of entries, expired included.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns a point-in-time view for the status API.
func (c *Cache) Stats() types.CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return types.CacheStats{
		Name:    c.name,
		Entries: len(c.entries),
		Hits:    c.hits,
		Misses:  c.misses,
	}
}

// estimateMB sizes a value for the cleanup budget. Byte-backed values are
// measured; everything else gets a flat nominal estimate.
func estimateMB(v any) float64 {
	const mb = 1 << 20
	switch x := v.(type) {
	case string:
		return float64(len(x)) / mb
	case []byte:
		return float64(len(x)) / mb
	case [][]float32:
		n := 0
		for _, row := range x {
			n += len(row) * 4
		}
		return float64(n) / mb
	default:
		return 0.01
	}
}

// now is a hook for deterministic time in tests.
var now = time.Now
