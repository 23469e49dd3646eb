// Package cache holds the bounded repository stats cache
package cache

import (
	"sync"
	"sync/atomic"
	"time"

	perr "tokeisrv/internal/platform/errors"
	"tokeisrv/internal/services/badges/domain"

	"github.com/hashicorp/golang-lru/v2/simplelru"
	"github.com/jonboulle/clockwork"
)

// State classifies a lookup
type State int

// States
const (
	Absent State = iota
	Fresh
	Stale
)

// String names the state for logs and headers
func (s State) String() string {
	switch s {
	case Fresh:
		return "fresh"
	case Stale:
		return "stale"
	default:
		return "absent"
	}
}

// Lookup is the result of Get and Peek, Record is zero when State is Absent
type Lookup struct {
	State  State
	Record domain.StatsRecord
}

// Stats is a point in time view for the meta endpoints
type Stats struct {
	Size      int           `json:"size"`
	Capacity  int           `json:"capacity"`
	TTL       time.Duration `json:"ttl_ns"`
	Hits      uint64        `json:"hits"`
	Misses    uint64        `json:"misses"`
	Stale     uint64        `json:"stale"`
	Evictions uint64        `json:"evictions"`
}

// Cache is an LRU with lazy TTL expiry
// a stale entry stays resident until replaced or evicted so its commit id can be revalidated
type Cache struct {
	mu       sync.Mutex
	lru      *simplelru.LRU[domain.CacheKey, domain.StatsRecord]
	capacity int
	ttl      time.Duration
	clock    clockwork.Clock

	hits, misses, stale, evictions atomic.Uint64
}

// Option tunes a Cache
type Option func(*Cache)

// WithClock swaps the time source, tests use a fake clock
func WithClock(c clockwork.Clock) Option {
	return func(cc *Cache) {
		if c != nil {
			cc.clock = c
		}
	}
}

// New builds a cache holding at most maxEntries records, each fresh for ttl
func New(maxEntries int, ttl time.Duration, opts ...Option) (*Cache, error) {
	if maxEntries <= 0 {
		return nil, perr.Validationf("cache size must be positive, got %d", maxEntries)
	}
	if ttl <= 0 {
		return nil, perr.Validationf("cache ttl must be positive, got %s", ttl)
	}
	c := &Cache{capacity: maxEntries, ttl: ttl, clock: clockwork.NewRealClock()}
	for _, o := range opts {
		o(c)
	}
	lru, err := simplelru.NewLRU(maxEntries, func(domain.CacheKey, domain.StatsRecord) {
		c.evictions.Add(1)
	})
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnknown, "lru init")
	}
	c.lru = lru
	return c, nil
}

// Get classifies the entry for key
// only a Fresh result refreshes recency, a Stale one is a replacement candidate
func (c *Cache) Get(key domain.CacheKey) Lookup {
	c.mu.Lock()
	defer c.mu.Unlock()

	lk := c.peekLocked(key)
	switch lk.State {
	case Fresh:
		c.lru.Get(key)
		c.hits.Add(1)
	case Stale:
		c.stale.Add(1)
	default:
		c.misses.Add(1)
	}
	return lk
}

// Peek classifies the entry without touching recency or counters
func (c *Cache) Peek(key domain.CacheKey) Lookup {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.peekLocked(key)
}

func (c *Cache) peekLocked(key domain.CacheKey) Lookup {
	rec, ok := c.lru.Peek(key)
	if !ok {
		return Lookup{}
	}
	if c.fresh(rec) {
		return Lookup{State: Fresh, Record: rec}
	}
	return Lookup{State: Stale, Record: rec}
}

// fresh holds while insertedAt + ttl >= now
func (c *Cache) fresh(rec domain.StatsRecord) bool {
	return !c.clock.Now().After(rec.InsertedAt.Add(c.ttl))
}

// Put replaces the record for key and marks it most recently used
// a record older than the resident one is dropped so readers never go back in time
// it reports whether rec was stored
func (c *Cache) Put(key domain.CacheKey, rec domain.StatsRecord) (bool, error) {
	if key == "" || rec.CommitID == "" {
		return false, perr.WithOp(perr.Internalf("refusing record without key or commit"), "cache.put")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if cur, ok := c.lru.Peek(key); ok && rec.InsertedAt.Before(cur.InsertedAt) {
		return false, nil
	}
	c.lru.Add(key, rec)
	if n := c.lru.Len(); n > c.capacity {
		// unreachable while simplelru honours its size; fail this request and shed the oldest
		c.lru.RemoveOldest()
		return true, perr.WithOp(perr.Internalf("cache holds %d entries over capacity %d", n, c.capacity), "cache.put")
	}
	return true, nil
}

// Size is the number of resident records, stale ones included
func (c *Cache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Capacity is the configured maximum
func (c *Cache) Capacity() int { return c.capacity }

// TTL is the configured freshness window
func (c *Cache) TTL() time.Duration { return c.ttl }

// Now is the cache clock, records should be stamped with it
func (c *Cache) Now() time.Time { return c.clock.Now() }

// Stats snapshots sizes and counters
func (c *Cache) Stats() Stats {
	return Stats{
		Size:      c.Size(),
		Capacity:  c.capacity,
		TTL:       c.ttl,
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Stale:     c.stale.Load(),
		Evictions: c.evictions.Load(),
	}
}
