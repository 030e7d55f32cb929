package directory

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/metrics"
)

// Cached keeps recently resolved employees in an LRU cache. Misses are not
// cached so that newly enrolled employees resolve without a restart.
type Cached struct {
	source Directory
	cache  *lru.Cache[string, database.Employee]
}

// NewCached wraps source with a cache holding up to size employees.
func NewCached(source Directory, size int) (*Cached, error) {
	cache, err := lru.New[string, database.Employee](size)
	if err != nil {
		return nil, fmt.Errorf("creating directory cache: %w", err)
	}
	return &Cached{source: source, cache: cache}, nil
}

// Lookup returns the cached employee or resolves it from the source.
func (c *Cached) Lookup(ctx context.Context, id string) (database.Employee, bool, error) {
	if e, ok := c.cache.Get(id); ok {
		metrics.DirectoryCacheHits.Inc()
		return e, true, nil
	}
	metrics.DirectoryCacheMisses.Inc()

	e, found, err := c.source.Lookup(ctx, id)
	if err != nil || !found {
		return e, found, err
	}
	c.cache.Add(id, e)
	return e, true, nil
}

// Invalidate drops id from the cache.
func (c *Cached) Invalidate(id string) {
	c.cache.Remove(id)
}

// Len returns the number of cached employees.
func (c *Cached) Len() int {
	return c.cache.Len()
}
