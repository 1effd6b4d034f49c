package facts

import (
	"context"
	"sync"
	"time"
)

// CachedCollector reuses the cached snapshot while it is fresh and only
// runs the hardware methods once it has expired.
type CachedCollector struct {
	*Collector
	cache *Cache

	mu        sync.RWMutex
	threshold time.Duration
}

// NewCachedCollector wraps c with cache. A non-positive threshold selects
// DefaultFreshnessThreshold.
func NewCachedCollector(c *Collector, cache *Cache, threshold time.Duration) *CachedCollector {
	if threshold <= 0 {
		threshold = DefaultFreshnessThreshold
	}
	return &CachedCollector{Collector: c, cache: cache, threshold: threshold}
}

// Cache returns the backing cache file.
func (c *CachedCollector) Cache() *Cache { return c.cache }

// Threshold returns the maximum age of a reusable snapshot.
func (c *CachedCollector) Threshold() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.threshold
}

// SetThreshold changes the maximum age of a reusable snapshot.
func (c *CachedCollector) SetThreshold(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.threshold = d
}

// Collect returns the cached snapshot if it is still fresh. Otherwise it
// collects anew; the caller persists the result with SaveToCache.
func (c *CachedCollector) Collect(ctx context.Context) *Collection {
	coll, _ := c.Lookup(ctx)
	return coll
}

// Lookup is Collect that also reports whether the cache served the result.
func (c *CachedCollector) Lookup(ctx context.Context) (*Collection, bool) {
	cached, ok := c.cache.Load()
	fresh := NewCollection(nil, c.now())

	if ok && IsFresh(cached, fresh.CollectionTime, c.Threshold()) {
		c.logger.Debug("using cached facts",
			"path", c.cache.Path(),
			"age", cached.Age(fresh.CollectionTime).Round(time.Second))
		return cached, true
	}

	fresh.Facts = c.GetAll(ctx)
	return fresh, false
}

// SaveToCache writes a copy of coll stamped with the time of caching and
// returns that copy. coll itself is unchanged.
func (c *CachedCollector) SaveToCache(coll *Collection) (*Collection, error) {
	saved := coll.Restamp(c.now())
	return saved, c.cache.Save(saved)
}

// Refresh ignores the cache, collects, saves, and returns the new snapshot.
func (c *CachedCollector) Refresh(ctx context.Context) (*Collection, error) {
	coll := c.Collector.Collect(ctx).Restamp(c.now())
	if err := c.cache.Save(coll); err != nil {
		return coll, err
	}
	return coll, nil
}
