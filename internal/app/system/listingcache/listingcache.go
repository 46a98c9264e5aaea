// Package listingcache caches rendered community listing responses.
//
// Join/leave, community creation, and reconciliation all call Invalidate so
// the general listing view and the touched community's own view are never
// served stale after a successful mutation.
package listingcache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/threadhive/threadhive/internal/app/system/metrics"
)

// ListingKey is the cache key for the general, unfiltered community listing
// (first page, no search). Other pages and searches bypass the cache.
const ListingKey = "communities:list"

// CommunityKey returns the cache key for one community's detail view.
func CommunityKey(publicID string) string {
	return "communities:view:" + publicID
}

// Cache is an expirable LRU keyed by listing key.
type Cache struct {
	lru *expirable.LRU[string, []byte]
}

// New creates a cache holding at most size entries, each for at most ttl.
func New(size int, ttl time.Duration) *Cache {
	return &Cache{lru: expirable.NewLRU[string, []byte](size, nil, ttl)}
}

// Get returns the cached body for key, if fresh.
func (c *Cache) Get(key string) ([]byte, bool) {
	body, ok := c.lru.Get(key)
	if ok {
		metrics.ListingCacheHits.Inc()
	} else {
		metrics.ListingCacheMisses.Inc()
	}
	return body, ok
}

// Set stores body under key.
func (c *Cache) Set(key string, body []byte) {
	c.lru.Add(key, body)
}

// Invalidate drops the given keys.
func (c *Cache) Invalidate(keys ...string) {
	for _, k := range keys {
		c.lru.Remove(k)
	}
	metrics.ListingCacheInvalidations.Inc()
}

// InvalidateCommunity drops the general listing and the community's own view.
// This is the minimum every successful membership mutation must invalidate.
func (c *Cache) InvalidateCommunity(publicID string) {
	c.Invalidate(ListingKey, CommunityKey(publicID))
}
