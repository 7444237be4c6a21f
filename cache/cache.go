// Package cache implements the two inner tiers of the data plane's cache:
// a session-scoped memory tier (LRU, github.com/bluele/gcache) in front of a
// persistent key–value tier. Entries carry their write timestamp; freshness
// is always decided on the read side against a caller-supplied TTL.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/bluele/gcache"

	"github.com/tartu-transit/buscore/kvstore"
	"github.com/tartu-transit/buscore/metrics"
)

const (
	// StopsTTL bounds how long a stops-by-radius response stays fresh.
	StopsTTL = 2 * time.Minute
	// RouteTTL applies to legacy route-geometry entries, which are
	// effectively immutable within a dataset release.
	RouteTTL = 365 * 24 * time.Hour

	// StopsKeyPrefix and RouteKeyPrefix name the two transient key classes.
	StopsKeyPrefix = "stops_"
	RouteKeyPrefix = "route_"

	// stopsLRUCap bounds the number of persisted stops-class entries.
	stopsLRUCap = 10

	memTierSize = 64
)

// entry is the stored form: the payload plus its write time in unix
// milliseconds.
type entry struct {
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
}

type Cache struct {
	store kvstore.Store
	mem   gcache.Cache
	now   func() time.Time
	m     *metrics.Collector
}

// New builds a cache over the given persistent store. mc may be nil.
func New(store kvstore.Store, mc *metrics.Collector) *Cache {
	return &Cache{
		store: store,
		mem:   gcache.New(memTierSize).LRU().Build(),
		now:   time.Now,
		m:     mc,
	}
}

// SetClock overrides the cache's clock. Tests only.
func (c *Cache) SetClock(now func() time.Time) { c.now = now }

// BucketKey computes the canonical storage key for location-indexed data.
// Coordinates are rounded to a 0.01° grid (~1.1 km) so nearby queries share
// entries.
func BucketKey(lat, lon float64, radius int) string {
	return fmt.Sprintf("%s%.2f_%.2f_%d", StopsKeyPrefix, lat, lon, radius)
}

// Get returns the entry's payload when its age is below ttl. Parse errors
// and absent keys are plain misses.
func (c *Cache) Get(key string, ttl time.Duration) (json.RawMessage, bool) {
	nowMS := c.now().UnixMilli()

	if v, err := c.mem.Get(key); err == nil {
		if e, ok := v.(entry); ok && nowMS-e.Timestamp < ttl.Milliseconds() {
			c.m.CacheHit("mem")
			return e.Data, true
		}
	}

	raw, ok := c.store.Get(key)
	if !ok {
		c.m.CacheMiss()
		return nil, false
	}
	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		c.m.CacheMiss()
		return nil, false
	}
	if nowMS-e.Timestamp >= ttl.Milliseconds() {
		c.m.CacheMiss()
		return nil, false
	}
	_ = c.mem.Set(key, e)
	c.m.CacheHit("disk")
	return e.Data, true
}

// GetStale bypasses the TTL and returns whatever is stored under key.
// Freshness becomes the caller's problem; this backs the network-failure
// fallback path.
func (c *Cache) GetStale(key string) (json.RawMessage, bool) {
	if v, err := c.mem.Get(key); err == nil {
		if e, ok := v.(entry); ok {
			return e.Data, true
		}
	}
	raw, ok := c.store.Get(key)
	if !ok {
		return nil, false
	}
	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, false
	}
	return e.Data, true
}

// Set serializes v with the current timestamp. On a quota failure it evicts
// expired entries and retries once; a second failure is swallowed, because a
// missing cache must never break the operation that produced the data.
func (c *Cache) Set(key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("cache: marshal %s: %v", key, err)
		return
	}
	e := entry{Data: data, Timestamp: c.now().UnixMilli()}
	_ = c.mem.Set(key, e)

	raw, err := json.Marshal(e)
	if err != nil {
		log.Printf("cache: marshal entry %s: %v", key, err)
		return
	}
	if err := c.store.Set(key, raw); err != nil {
		if !errors.Is(err, kvstore.ErrQuotaExceeded) {
			log.Printf("cache: write %s: %v", key, err)
			return
		}
		c.EvictExpired()
		if err := c.store.Set(key, raw); err != nil {
			log.Printf("cache: write %s after eviction: %v", key, err)
			return
		}
	}

	if strings.HasPrefix(key, StopsKeyPrefix) && c.countStopsKeys() > stopsLRUCap {
		c.EvictExpired()
	}
}

func (c *Cache) countStopsKeys() int {
	n := 0
	for _, key := range c.store.Keys() {
		if strings.HasPrefix(key, StopsKeyPrefix) {
			n++
		}
	}
	return n
}

// Delete removes key from both tiers.
func (c *Cache) Delete(key string) {
	c.mem.Remove(key)
	c.store.Delete(key)
}

// EvictExpired walks the stops-class keys, drops entries older than their
// TTL and, if survivors still exceed the LRU cap, drops oldest-first until
// at most the cap remain.
func (c *Cache) EvictExpired() {
	nowMS := c.now().UnixMilli()

	type aged struct {
		key string
		ts  int64
	}
	var survivors []aged
	for _, key := range c.store.Keys() {
		if !strings.HasPrefix(key, StopsKeyPrefix) {
			continue
		}
		raw, ok := c.store.Get(key)
		if !ok {
			continue
		}
		var e entry
		if err := json.Unmarshal(raw, &e); err != nil {
			c.Delete(key)
			continue
		}
		if nowMS-e.Timestamp >= StopsTTL.Milliseconds() {
			c.Delete(key)
			continue
		}
		survivors = append(survivors, aged{key: key, ts: e.Timestamp})
	}

	if len(survivors) <= stopsLRUCap {
		return
	}
	sort.Slice(survivors, func(i, j int) bool { return survivors[i].ts < survivors[j].ts })
	for _, s := range survivors[:len(survivors)-stopsLRUCap] {
		c.Delete(s.key)
	}
}

// DropTransient removes every stops_ and route_ entry. Run on every start:
// transient data has no cross-session value here.
func (c *Cache) DropTransient() {
	for _, key := range c.store.Keys() {
		if strings.HasPrefix(key, StopsKeyPrefix) || strings.HasPrefix(key, RouteKeyPrefix) {
			c.Delete(key)
		}
	}
	c.mem.Purge()
}
