package simplemenu

import (
	"context"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultCacheTTL is how long a zone listing snapshot stays valid.
const DefaultCacheTTL = 5 * time.Minute

// FetchFunc fetches fresh listings of every zone.
type FetchFunc func(ctx context.Context) (map[Zone]ZoneListing, error)

// Cache is a single read-through cache slot holding the listings of all
// zones. Any mutation anywhere clears the whole slot.
type Cache struct {
	fetch FetchFunc
	ttl   time.Duration
	now   func() time.Time

	mu         sync.Mutex
	entry      *Snapshot
	generation uint64
	group      singleflight.Group
}

// NewCache creates a cache around fetch.
func NewCache(fetch FetchFunc, ttl time.Duration, now func() time.Time) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if now == nil {
		now = time.Now
	}
	return &Cache{fetch: fetch, ttl: ttl, now: now}
}

// Get returns the cached snapshot while it is younger than the TTL and
// fetches a fresh one otherwise. Concurrent misses of the same generation
// share one fetch, so a miss after Invalidate never joins an older fetch.
// The shared fetch is detached from the caller's cancellation; each caller
// still stops waiting when its own ctx is done. Errors are not cached.
func (c *Cache) Get(ctx context.Context) (*Snapshot, error) {
	c.mu.Lock()
	if c.entry != nil && c.now().Sub(c.entry.FetchedAt) < c.ttl {
		snap := c.entry
		c.mu.Unlock()
		return snap, nil
	}
	gen := c.generation
	c.mu.Unlock()

	fetchCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(strconv.FormatUint(gen, 10), func() (interface{}, error) {
		listings, err := c.fetch(fetchCtx)
		if err != nil {
			return nil, err
		}
		snap := &Snapshot{Listings: listings, FetchedAt: c.now()}

		c.mu.Lock()
		// An invalidation during the fetch makes this snapshot stale.
		if c.generation == gen {
			c.entry = snap
		}
		c.mu.Unlock()
		return snap, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Snapshot), nil
	}
}

// Invalidate clears the cached snapshot unconditionally.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.entry = nil
	c.generation++
	c.mu.Unlock()
}
