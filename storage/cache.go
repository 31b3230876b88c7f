package storage

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"total-comp/models"
	"total-comp/utils"
)

// Cache memoizes one dataset for the life of the process. The first Get loads
// it; later calls reuse the same table until Refresh or Invalidate. Concurrent
// loads share a single call to the underlying Loader.
type Cache struct {
	name   string
	loader Loader
	logger *utils.Logger

	mu       sync.RWMutex
	table    *models.Table
	loadedAt time.Time

	group singleflight.Group
}

// NewCache wraps loader. name labels logs and metrics.
func NewCache(name string, loader Loader, logger *utils.Logger) *Cache {
	return &Cache{name: name, loader: loader, logger: logger}
}

// Name returns the dataset label of the cache.
func (c *Cache) Name() string { return c.name }

// Get returns the cached table, loading it on first use.
func (c *Cache) Get(ctx context.Context) (*models.Table, error) {
	c.mu.RLock()
	t := c.table
	c.mu.RUnlock()

	if t != nil {
		recordCacheRequest(c.name, true)
		return t, nil
	}
	recordCacheRequest(c.name, false)
	return c.load(ctx, false)
}

// Refresh reloads the dataset. On failure the previously cached table is kept.
func (c *Cache) Refresh(ctx context.Context) (*models.Table, error) {
	c.logger.Info("[cache] Refreshing %s", c.name)
	return c.load(ctx, true)
}

// Invalidate drops the cached table; the next Get loads again.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.table = nil
	c.loadedAt = time.Time{}
	c.mu.Unlock()
	c.logger.Info("[cache] Invalidated %s", c.name)
}

// LoadedAt reports when the cached table was loaded; zero if nothing is cached.
func (c *Cache) LoadedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loadedAt
}

// load calls the loader once per concurrent wave of callers. Unless force is
// set, a table cached by an earlier wave is returned as is.
func (c *Cache) load(ctx context.Context, force bool) (*models.Table, error) {
	key := c.name
	if force {
		key += "/refresh"
	}
	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		if !force {
			c.mu.RLock()
			t := c.table
			c.mu.RUnlock()
			if t != nil {
				return t, nil
			}
		}

		start := time.Now()
		t, err := c.loader.Load(ctx)
		if err != nil {
			recordCacheLoad(c.name, err, 0)
			return nil, err
		}

		c.mu.Lock()
		c.table = t
		c.loadedAt = time.Now()
		c.mu.Unlock()

		recordCacheLoad(c.name, nil, t.Len())
		c.logger.Info("[cache] Loaded %s: %d rows in %v", c.name, t.Len(), time.Since(start).Round(time.Millisecond))
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.Table), nil
}
