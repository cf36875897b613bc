// Package cache provides expiring LRU caches for the embedding and
// query-result lookups the ingestion and query services perform repeatedly
// against the same text, backed by golang-lru/v2's expirable cache rather
// than a hand-rolled map+mutex.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

// TTLCache is a fixed-capacity, time-expiring key/value cache. A miss
// (whether from eviction, expiry, or never having been set) is never an
// error — callers always fall through to recomputing the value.
type TTLCache[V any] struct {
	lru *lru.LRU[string, V]
}

// NewTTLCache creates a cache holding up to size entries, each expiring ttl
// after being set.
func NewTTLCache[V any](size int, ttl time.Duration) *TTLCache[V] {
	return &TTLCache[V]{lru: lru.NewLRU[string, V](size, nil, ttl)}
}

// Get returns the cached value for key and whether it was present and
// unexpired.
func (c *TTLCache[V]) Get(key string) (V, bool) {
	return c.lru.Get(key)
}

// Set stores value under key, resetting its expiry.
func (c *TTLCache[V]) Set(key string, value V) {
	c.lru.Add(key, value)
}

// Len returns the number of live entries.
func (c *TTLCache[V]) Len() int {
	return c.lru.Len()
}

// HashKey derives a fixed-length cache key from one or more parts. A single
// part is hashed as is (SHA256 of its bytes); with several parts each one is
// written length-prefixed before hashing, so callers don't need to worry
// about delimiter collisions between parts (e.g. a repo id and a commit sha
// that happen to contain the literal ':').
func HashKey(parts ...string) string {
	h := sha256.New()
	if len(parts) == 1 {
		h.Write([]byte(parts[0]))
		return hex.EncodeToString(h.Sum(nil))
	}
	for _, p := range parts {
		h.Write([]byte(strconv.Itoa(len(p)) + ":"))
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))
}
