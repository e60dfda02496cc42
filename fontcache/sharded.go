package fontcache

import (
	"hash/fnv"
	"sync"
	"sync/atomic"
)

// shardCount is the number of shards per layer, reducing lock contention
// across concurrent callers. Must be a power of two for the bitmask shard
// selection below.
const shardCount = 16
const shardMask = shardCount - 1

// Hasher computes a shard-selection hash for a key.
type Hasher[K any] func(K) uint64

// StringHasher computes the FNV-1a hash of a string key.
func StringHasher(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}

// shardedCache is a bounded, concurrent, at-most-once-initializing LRU cache,
// sharded to spread lock contention. One instance backs each of the three
// cache layers (face, shape, glyph mask).
type shardedCache[K comparable, V any] struct {
	shards   [shardCount]*shard[K, V]
	hasher   Hasher[K]
	capacity int // per-shard

	hits, misses, evictions atomic.Uint64

	// onEvict, if set, runs for each evicted (key, value) pair after the
	// owning shard's lock has been released, so deallocation (e.g.
	// releasing an mmap) never happens while holding the map lock.
	onEvict func(K, V)
}

type shard[K comparable, V any] struct {
	mu      sync.RWMutex
	entries map[K]*entry[K, V]
	lru     *lruList[K]
}

type entry[K comparable, V any] struct {
	value V
	node  *lruNode[K]
}

func newShardedCache[K comparable, V any](capacity int, hasher Hasher[K]) *shardedCache[K, V] {
	if capacity <= 0 {
		capacity = 256
	}
	c := &shardedCache[K, V]{hasher: hasher, capacity: capacity}
	for i := range c.shards {
		c.shards[i] = &shard[K, V]{
			entries: make(map[K]*entry[K, V]),
			lru:     newLRUList[K](),
		}
	}
	return c
}

func (c *shardedCache[K, V]) shardFor(key K) *shard[K, V] {
	return c.shards[c.hasher(key)&shardMask]
}

// Get returns the cached value for key, moving it to the front of its
// shard's LRU list on hit.
func (c *shardedCache[K, V]) Get(key K) (V, bool) {
	sh := c.shardFor(key)

	sh.mu.RLock()
	_, ok := sh.entries[key]
	sh.mu.RUnlock()
	if !ok {
		c.misses.Add(1)
		var zero V
		return zero, false
	}

	sh.mu.Lock()
	e, ok := sh.entries[key]
	if !ok {
		sh.mu.Unlock()
		c.misses.Add(1)
		var zero V
		return zero, false
	}
	sh.lru.MoveToFront(e.node)
	v := e.value
	sh.mu.Unlock()

	c.hits.Add(1)
	return v, true
}

// GetOrCreate returns the cached value for key, or calls create exactly
// once under the shard lock (preventing duplicate concurrent computation)
// and caches its result if create succeeds.
func (c *shardedCache[K, V]) GetOrCreate(key K, create func() (V, error)) (V, error) {
	sh := c.shardFor(key)

	sh.mu.RLock()
	_, ok := sh.entries[key]
	sh.mu.RUnlock()
	if ok {
		sh.mu.Lock()
		if e, ok := sh.entries[key]; ok {
			sh.lru.MoveToFront(e.node)
			v := e.value
			sh.mu.Unlock()
			c.hits.Add(1)
			return v, nil
		}
		sh.mu.Unlock()
	}

	sh.mu.Lock()
	if e, ok := sh.entries[key]; ok {
		sh.lru.MoveToFront(e.node)
		v := e.value
		sh.mu.Unlock()
		c.hits.Add(1)
		return v, nil
	}
	c.misses.Add(1)

	v, err := create()
	if err != nil {
		sh.mu.Unlock()
		var zero V
		return zero, err
	}

	var evicted []struct {
		k K
		v V
	}
	for sh.lru.Len() >= c.capacity {
		oldest, ok := sh.lru.RemoveOldest()
		if !ok {
			break
		}
		if old, ok := sh.entries[oldest]; ok {
			evicted = append(evicted, struct {
				k K
				v V
			}{oldest, old.value})
			delete(sh.entries, oldest)
		}
		c.evictions.Add(1)
	}
	node := sh.lru.PushFront(key)
	sh.entries[key] = &entry[K, V]{value: v, node: node}
	sh.mu.Unlock()

	if c.onEvict != nil {
		for _, ev := range evicted {
			c.onEvict(ev.k, ev.v)
		}
	}
	return v, nil
}

// Clear empties every shard and resets the hit/miss/eviction counters,
// running onEvict for each dropped entry after all shard locks are released.
func (c *shardedCache[K, V]) Clear() {
	c.hits.Store(0)
	c.misses.Store(0)
	c.evictions.Store(0)
	var evicted []struct {
		k K
		v V
	}
	for _, sh := range c.shards {
		sh.mu.Lock()
		for k, e := range sh.entries {
			evicted = append(evicted, struct {
				k K
				v V
			}{k, e.value})
		}
		sh.entries = make(map[K]*entry[K, V])
		sh.lru.Clear()
		sh.mu.Unlock()
	}
	if c.onEvict != nil {
		for _, ev := range evicted {
			c.onEvict(ev.k, ev.v)
		}
	}
}

// Len returns the total number of entries across all shards.
func (c *shardedCache[K, V]) Len() int {
	n := 0
	for _, sh := range c.shards {
		sh.mu.RLock()
		n += len(sh.entries)
		sh.mu.RUnlock()
	}
	return n
}

// Stats reports cumulative hit/miss/eviction counters.
type Stats struct {
	Hits, Misses, Evictions uint64
}

func (c *shardedCache[K, V]) Stats() Stats {
	return Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
	}
}
