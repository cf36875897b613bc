package cache

import "time"

const (
	defaultEmbeddingCacheSize = 10000
	defaultEmbeddingCacheTTL  = 24 * time.Hour
)

// EmbeddingCache memoizes embedding vectors by the SHA256 of their source
// text, so re-ingesting an unchanged chunk across commits skips the
// provider round-trip entirely.
type EmbeddingCache struct {
	cache *TTLCache[[]float32]
}

// NewEmbeddingCache creates an EmbeddingCache. ttl of 0 uses the default
// of 24h.
func NewEmbeddingCache(size int, ttl time.Duration) *EmbeddingCache {
	if size <= 0 {
		size = defaultEmbeddingCacheSize
	}
	if ttl <= 0 {
		ttl = defaultEmbeddingCacheTTL
	}
	return &EmbeddingCache{cache: NewTTLCache[[]float32](size, ttl)}
}

// Get returns the cached vector for text, if present.
func (c *EmbeddingCache) Get(text string) ([]float32, bool) {
	return c.cache.Get(HashKey(text))
}

// Set stores vector as the embedding for text.
func (c *EmbeddingCache) Set(text string, vector []float32) {
	c.cache.Set(HashKey(text), vector)
}
