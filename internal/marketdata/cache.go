package marketdata

import (
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// QuoteCache is time-boxed memoization keyed by instrument, shared by all
// data sources. Concurrent requesters for the same stale key share a single
// in-flight fetch; a stampede of duplicate provider calls would blow the
// daily quota budget.
type QuoteCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	group   singleflight.Group
	now     func() time.Time
}

type cacheEntry struct {
	value     any
	fetchedAt time.Time
}

func NewQuoteCache() *QuoteCache {
	return &QuoteCache{
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

// Lookup returns the cached value if it is fresher than ttl.
func (c *QuoteCache) Lookup(key string, ttl time.Duration) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(entry.fetchedAt) > ttl {
		return nil, false
	}
	return entry.value, true
}

// Store writes a value with a fresh timestamp.
func (c *QuoteCache) Store(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{value: value, fetchedAt: c.now()}
}

// LookupStale returns the cached value regardless of age, with its fetch
// time, for callers that can tolerate staleness beyond the TTL.
func (c *QuoteCache) LookupStale(key string) (any, time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[key]
	return entry.value, entry.fetchedAt, ok
}

// FetchedAt reports when the key was last written.
func (c *QuoteCache) FetchedAt(key string) (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[key]
	return entry.fetchedAt, ok
}

// GetOrFetch returns the cached value inside ttl, otherwise runs fetch and
// caches its result. Concurrent callers on the same key are collapsed into
// one fetch; late arrivals get the settled value.
func (c *QuoteCache) GetOrFetch(key string, ttl time.Duration, fetch func() (any, error)) (any, error) {
	if v, ok := c.Lookup(key, ttl); ok {
		return v, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		// A fetch may have settled while we queued behind the flight.
		if v, ok := c.Lookup(key, ttl); ok {
			return v, nil
		}
		v, err := fetch()
		if err != nil {
			return nil, err
		}
		c.Store(key, v)
		return v, nil
	})
	return v, err
}

// Clear drops all cached entries.
func (c *QuoteCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}
