package geocode

import (
	"context"
	"sync"
	"time"

	"github.com/example/taxi-dispatch/internal/models"
)

// Cached wraps a Geocoder with a process-lifetime cache keyed by the exact
// address string, so repeated lookups within and across assignment runs hit
// the upstream API once.
type Cached struct {
	inner Geocoder
	ttl   time.Duration

	mu    sync.RWMutex
	store map[string]cacheEntry
}

type cacheEntry struct {
	c  models.Coord
	ts time.Time
}

// NewCached wraps inner with a TTL cache. A zero ttl means entries never
// expire.
func NewCached(inner Geocoder, ttl time.Duration) *Cached {
	return &Cached{inner: inner, ttl: ttl, store: make(map[string]cacheEntry)}
}

func (c *Cached) Geocode(ctx context.Context, address string) (models.Coord, error) {
	c.mu.RLock()
	e, ok := c.store[address]
	c.mu.RUnlock()
	if ok && (c.ttl == 0 || time.Since(e.ts) <= c.ttl) {
		return e.c, nil
	}
	coord, err := c.inner.Geocode(ctx, address)
	if err != nil {
		return models.Coord{}, err
	}
	c.mu.Lock()
	c.store[address] = cacheEntry{c: coord, ts: time.Now()}
	c.mu.Unlock()
	return coord, nil
}
