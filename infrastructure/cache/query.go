package cache

import (
	"strconv"
	"time"

	"github.com/codesense-dev/codesense/domain/query"
)

const (
	defaultQueryCacheSize = 1000
	defaultQueryCacheTTL  = 1 * time.Hour
)

// QueryCache memoizes full hybrid query answers keyed by
// (query text, repo id, commit sha): identical questions asked against an
// unchanged commit skip retrieval and generation entirely.
type QueryCache struct {
	cache *TTLCache[query.HybridQueryResult]
}

// NewQueryCache creates a QueryCache. ttl of 0 uses the default of 1h.
func NewQueryCache(size int, ttl time.Duration) *QueryCache {
	if size <= 0 {
		size = defaultQueryCacheSize
	}
	if ttl <= 0 {
		ttl = defaultQueryCacheTTL
	}
	return &QueryCache{cache: NewTTLCache[query.HybridQueryResult](size, ttl)}
}

// Get returns the cached result for the given question against a
// (repoID, commitSHA) partition, if present.
func (c *QueryCache) Get(queryText string, repoID int64, commitSHA string) (query.HybridQueryResult, bool) {
	return c.cache.Get(queryCacheKey(queryText, repoID, commitSHA))
}

// Set stores result under the given question and partition.
func (c *QueryCache) Set(queryText string, repoID int64, commitSHA string, result query.HybridQueryResult) {
	c.cache.Set(queryCacheKey(queryText, repoID, commitSHA), result)
}

func queryCacheKey(queryText string, repoID int64, commitSHA string) string {
	return HashKey(queryText, strconv.FormatInt(repoID, 10), commitSHA)
}
