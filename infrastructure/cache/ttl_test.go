package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/codesense-dev/codesense/domain/query"
)

func TestTTLCache_SetGetRoundTrip(t *testing.T) {
	c := NewTTLCache[string](10, time.Minute)
	c.Set("a", "hello")

	got, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "hello", got)
}

func TestTTLCache_MissReturnsFalse(t *testing.T) {
	c := NewTTLCache[string](10, time.Minute)
	_, ok := c.Get("missing")
	assert.False(t, ok)
}

func TestTTLCache_EntryExpiresAfterTTL(t *testing.T) {
	c := NewTTLCache[string](10, 10*time.Millisecond)
	c.Set("a", "hello")

	time.Sleep(30 * time.Millisecond)

	_, ok := c.Get("a")
	assert.False(t, ok)
}

func TestHashKey_DeterministicAndDelimited(t *testing.T) {
	a := HashKey("foo", "bar")
	b := HashKey("foo", "bar")
	assert.Equal(t, a, b)

	c := HashKey("foo:bar")
	assert.NotEqual(t, a, c, "joined parts must not collide with a pre-delimited single part")
}

func TestEmbeddingCache_SetGetRoundTrip(t *testing.T) {
	c := NewEmbeddingCache(0, 0)
	vec := []float32{0.1, 0.2, 0.3}
	c.Set("func main() {}", vec)

	got, ok := c.Get("func main() {}")
	assert.True(t, ok)
	assert.Equal(t, vec, got)

	_, ok = c.Get("func other() {}")
	assert.False(t, ok)
}

func TestQueryCache_PartitionsByRepoAndCommit(t *testing.T) {
	c := NewQueryCache(0, 0)
	result := query.HybridQueryResult{Query: "what does main do", LLMAnswer: "it runs the program"}
	c.Set("what does main do", 1, "deadbeef", result)

	got, ok := c.Get("what does main do", 1, "deadbeef")
	assert.True(t, ok)
	assert.Equal(t, result, got)

	_, ok = c.Get("what does main do", 1, "other-sha")
	assert.False(t, ok)
	_, ok = c.Get("what does main do", 2, "deadbeef")
	assert.False(t, ok)
}
