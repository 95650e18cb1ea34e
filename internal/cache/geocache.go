// Package cache keeps recent geocoding answers in memory so repeated
// searches do not hit the AI collaborator or Nominatim again.
package cache

import (
	"strings"
	"time"

	"github.com/OCAP2/geotime/pkg/core"
	gocache "github.com/patrickmn/go-cache"
)

// GeoCache maps normalised search queries to coordinates with a TTL.
type GeoCache struct {
	store *gocache.Cache
}

// NewGeoCache creates a cache whose entries expire after ttl.
// Expired entries are purged every 2*ttl.
func NewGeoCache(ttl time.Duration) *GeoCache {
	return &GeoCache{
		store: gocache.New(ttl, 2*ttl),
	}
}

// Key normalises a query: trimmed, lower case, single spaced.
func Key(query string) string {
	return strings.Join(strings.Fields(strings.ToLower(query)), " ")
}

// Get returns the cached point for query.
func (c *GeoCache) Get(query string) (core.GeoPoint, bool) {
	v, ok := c.store.Get(Key(query))
	if !ok {
		return core.GeoPoint{}, false
	}
	p, ok := v.(core.GeoPoint)
	return p, ok
}

// Set caches a point. Non-finite points are not stored.
func (c *GeoCache) Set(query string, p core.GeoPoint) {
	if !p.Valid() {
		return
	}
	c.store.Set(Key(query), p, gocache.DefaultExpiration)
}

// Delete drops a cached query
func (c *GeoCache) Delete(query string) {
	c.store.Delete(Key(query))
}

// Clear removes all entries
func (c *GeoCache) Clear() {
	c.store.Flush()
}

// ItemCount returns the number of cached queries, expired ones included
// until the next purge.
func (c *GeoCache) ItemCount() int {
	return c.store.ItemCount()
}
