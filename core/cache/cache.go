// Package cache is a keyed read-through cache for remote collections.
package cache

import (
	"context"
	"net/url"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Key identifies one cached payload: a resource name plus the query parameters used to fetch it.
type Key struct {
	Resource string
	Params   url.Values
}

// NewKey builds a Key from alternating name/value pairs, e.g. NewKey("seminaristes", "page", "1").
func NewKey(resource string, kv ...string) Key {
	params := make(url.Values, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		params.Add(kv[i], kv[i+1])
	}
	return Key{Resource: resource, Params: params}
}

// String is canonical: url.Values.Encode sorts by parameter name.
func (k Key) String() string {
	if len(k.Params) == 0 {
		return k.Resource
	}
	return k.Resource + "?" + k.Params.Encode()
}

// FetchFunc loads the payload of a key on a cache miss.
type FetchFunc func(ctx context.Context) (interface{}, error)

type entry struct {
	value     interface{}
	storedAt  time.Time
	stale     bool
	resource  string
	keyString string
}

// Stats counts cache activity since creation.
type Stats struct {
	Hits    int
	Misses  int
	Fetches int
}

// Cache serves entries until they are invalidated, marked stale or expire.
// Concurrent misses on the same key share a single fetch.
// A fetch that started before an invalidation of its resource never populates the cache.
type Cache struct {
	ttl     time.Duration
	nowFunc func() time.Time

	mu          sync.RWMutex
	entries     map[string]*entry
	generations map[string]uint64 // per resource
	stats       Stats

	group singleflight.Group
}

// Option configures a Cache.
type Option func(*Cache)

// WithTTL makes entries expire after ttl. ttl <= 0 means no expiry.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) { c.ttl = ttl }
}

// WithClock overrides time.Now; for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.nowFunc = now }
}

func New(opts ...Option) *Cache {
	c := &Cache{
		nowFunc:     time.Now,
		entries:     make(map[string]*entry),
		generations: make(map[string]uint64),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cache) fresh(e *entry) bool {
	if e.stale {
		return false
	}
	return c.ttl <= 0 || c.nowFunc().Sub(e.storedAt) < c.ttl
}

// Peek returns the cached value of key without fetching.
func (c *Cache) Peek(key Key) (interface{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key.String()]
	if !ok || !c.fresh(e) {
		return nil, false
	}
	return e.value, true
}

// Get returns the cached value of key, or calls fetch and caches its result.
// A caller whose ctx is done gets ctx.Err(); the shared fetch keeps running for the others.
func (c *Cache) Get(ctx context.Context, key Key, fetch FetchFunc) (interface{}, error) {
	ks := key.String()

	c.mu.Lock()
	if e, ok := c.entries[ks]; ok && c.fresh(e) {
		c.stats.Hits++
		c.mu.Unlock()
		return e.value, nil
	}
	c.stats.Misses++
	gen := c.generations[key.Resource]
	c.generations[key.Resource] = gen // register the resource for InvalidateAll
	c.mu.Unlock()

	// the generation is part of the flight key: callers arriving after an invalidation
	// never join a fetch that started before it.
	flightKey := strconv.FormatUint(gen, 10) + "|" + ks
	ch := c.group.DoChan(flightKey, func() (interface{}, error) {
		c.mu.Lock()
		c.stats.Fetches++
		c.mu.Unlock()

		// detached from the first caller: its cancellation must not fail the other waiters
		val, err := fetch(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		if c.generations[key.Resource] == gen {
			c.entries[ks] = &entry{
				value:     val,
				storedAt:  c.nowFunc(),
				resource:  key.Resource,
				keyString: ks,
			}
		}
		c.mu.Unlock()
		return val, nil
	})

	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Invalidate drops every entry of resource. The next Get of any of its keys fetches again.
func (c *Cache) Invalidate(resource string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generations[resource]++
	for ks, e := range c.entries {
		if e.resource == resource {
			delete(c.entries, ks)
		}
	}
}

// InvalidateKey drops a single entry.
func (c *Cache) InvalidateKey(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generations[key.Resource]++
	delete(c.entries, key.String())
}

// InvalidateAll drops everything.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	resources := make(map[string]bool, len(c.generations))
	for res := range c.generations {
		resources[res] = true
	}
	for _, e := range c.entries {
		resources[e.resource] = true
	}
	for res := range resources {
		c.generations[res]++
	}
	c.entries = make(map[string]*entry)
}

// MarkStale keeps the entries of resource (Peek ignores them) but forces a refetch on the next Get.
func (c *Cache) MarkStale(resource string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.entries {
		if e.resource == resource {
			e.stale = true
		}
	}
}

// Len is the number of stored entries, fresh or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats
}

// Fetch is a typed Get. A cached value of another type is treated as a miss.
func Fetch[T any](ctx context.Context, c *Cache, key Key, fetch func(ctx context.Context) (T, error)) (T, error) {
	v, err := c.Get(ctx, key, func(ctx context.Context) (interface{}, error) {
		return fetch(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	if t, ok := v.(T); ok {
		return t, nil
	}
	c.InvalidateKey(key)
	return fetch(ctx)
}
