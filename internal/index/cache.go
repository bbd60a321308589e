package index

import (
	"crypto/sha256"
	"fmt"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/mojitote/docsearch/pkg/metrics"
)

// queryCache memoizes search results in-process. Every index mutation purges
// it wholesale, so a cached entry is always consistent with the current
// index state. Concurrent identical queries collapse into one computation
// via singleflight.
type queryCache struct {
	entries *lru.Cache[string, []SearchResult]
	group   singleflight.Group
	metrics *metrics.Metrics
	hits    atomic.Int64
	misses  atomic.Int64
}

// newQueryCache returns nil when size is non-positive; a nil cache computes
// every query directly.
func newQueryCache(size int, m *metrics.Metrics) *queryCache {
	if size <= 0 {
		return nil
	}
	entries, _ := lru.New[string, []SearchResult](size)
	return &queryCache{
		entries: entries,
		metrics: m,
	}
}

// getOrCompute returns the cached results for key, or runs compute exactly
// once for concurrent callers. Inserting into the cache is the compute
// closure's job (via add), so callers can do it under their own locking.
func (c *queryCache) getOrCompute(key string, compute func() []SearchResult) ([]SearchResult, bool) {
	if c == nil {
		return compute(), false
	}
	if results, ok := c.entries.Get(key); ok {
		c.hit()
		return results, true
	}
	val, _, shared := c.group.Do(key, func() (any, error) {
		if results, ok := c.entries.Get(key); ok {
			return results, nil
		}
		return compute(), nil
	})
	if shared {
		c.hit()
	} else {
		c.miss()
	}
	return val.([]SearchResult), shared
}

func (c *queryCache) add(key string, results []SearchResult) {
	if c == nil {
		return
	}
	c.entries.Add(key, results)
}

func (c *queryCache) purge() {
	if c == nil {
		return
	}
	c.entries.Purge()
}

func (c *queryCache) stats() (hits, misses int64) {
	if c == nil {
		return 0, 0
	}
	return c.hits.Load(), c.misses.Load()
}

func (c *queryCache) hit() {
	c.hits.Add(1)
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.Inc()
	}
}

func (c *queryCache) miss() {
	c.misses.Add(1)
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.Inc()
	}
}

func cacheKey(query string, limit int) string {
	raw := fmt.Sprintf("%s\x00limit=%d", query, limit)
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%x", hash[:16])
}
