// Package cache memoizes image embeddings keyed by image identifier.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

// ErrBatchSize is returned when a ComputeFunc returns a different number of
// embeddings than identifiers it was given.
var ErrBatchSize = errors.New("compute returned wrong number of embeddings")

// ComputeFunc embeds a batch of identifiers. The returned slice must have one
// entry per identifier, in the same order. A nil entry marks an item that
// could not be embedded; it is returned as nil and not cached.
type ComputeFunc func(ctx context.Context, ids []string) ([][]float32, error)

// ScalarFunc adapts a per-identifier embedding function to a ComputeFunc.
func ScalarFunc(fn func(ctx context.Context, id string) ([]float32, error)) ComputeFunc {
	return func(ctx context.Context, ids []string) ([][]float32, error) {
		out := make([][]float32, len(ids))
		for i, id := range ids {
			emb, err := fn(ctx, id)
			if err != nil {
				return nil, err
			}
			out[i] = emb
		}
		return out, nil
	}
}

// Options configures a Cache.
type Options struct {
	// Capacity bounds the number of entries. Zero means unbounded.
	Capacity int

	// Policy picks entries to evict once Capacity is reached. Defaults to
	// NewLRU() when Capacity is set.
	Policy EvictionPolicy
}

// Stats reports cache counters.
type Stats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
	Entries   int
}

// Cache maps image identifiers to embeddings. It is safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	entries map[string][]float32
	policy  EvictionPolicy
	cap     int
	stats   Stats

	flight singleflight.Group
}

// New creates a Cache.
func New(opts Options) *Cache {
	policy := opts.Policy
	if policy == nil && opts.Capacity > 0 {
		policy = NewLRU()
	}

	return &Cache{
		entries: make(map[string][]float32),
		policy:  policy,
		cap:     opts.Capacity,
	}
}

// GetOrCompute returns one embedding per identifier in ids order. Cached
// identifiers are served from memory; every miss is passed to compute in a
// single batch, deduplicated and in first-seen order.
func (c *Cache) GetOrCompute(ctx context.Context, ids []string, compute ComputeFunc) ([][]float32, error) {
	out := make([][]float32, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var misses []string
	seen := make(map[string]bool)

	c.mu.Lock()
	for i, id := range ids {
		if emb, ok := c.lookup(id); ok {
			c.stats.Hits++
			out[i] = emb
			continue
		}
		if !seen[id] {
			seen[id] = true
			misses = append(misses, id)
			c.stats.Misses++
		}
	}
	c.mu.Unlock()

	if len(misses) == 0 {
		return out, nil
	}

	computed, err := c.computeBatch(ctx, misses, compute)
	if err != nil {
		return nil, err
	}

	for i, id := range ids {
		if out[i] != nil {
			continue
		}
		if emb, ok := computed[id]; ok && emb != nil {
			out[i] = clone(emb)
		}
	}

	return out, nil
}

// computeBatch runs compute for the missing identifiers. Concurrent callers
// missing the same batch share one compute call.
func (c *Cache) computeBatch(ctx context.Context, misses []string, compute ComputeFunc) (map[string][]float32, error) {
	key := strings.Join(misses, "\x00")

	v, err, _ := c.flight.Do(key, func() (any, error) {
		embs, err := compute(ctx, misses)
		if err != nil {
			return nil, err
		}
		if len(embs) != len(misses) {
			return nil, fmt.Errorf("%w: got %d, want %d", ErrBatchSize, len(embs), len(misses))
		}

		byID := make(map[string][]float32, len(misses))
		c.mu.Lock()
		for i, id := range misses {
			byID[id] = embs[i]
			if embs[i] != nil {
				c.store(id, embs[i])
			}
		}
		c.mu.Unlock()

		return byID, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(map[string][]float32), nil
}

// Get returns a copy of the cached embedding for id.
func (c *Cache) Get(id string) ([]float32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.lookup(id)
}

// Put stores a copy of emb under id, evicting when the cache is full.
func (c *Cache) Put(id string, emb []float32) {
	if emb == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.store(id, emb)
}

// Len returns the number of cached embeddings.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

// Purge removes every entry. Counters are kept.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.policy != nil {
		for id := range c.entries {
			c.policy.Remove(id)
		}
	}
	c.entries = make(map[string][]float32)
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.stats
	s.Entries = len(c.entries)
	return s
}

// lookup must be called with c.mu held.
func (c *Cache) lookup(id string) ([]float32, bool) {
	emb, ok := c.entries[id]
	if !ok {
		return nil, false
	}
	if c.policy != nil {
		c.policy.Touch(id)
	}
	return clone(emb), true
}

// store must be called with c.mu held.
func (c *Cache) store(id string, emb []float32) {
	if _, exists := c.entries[id]; !exists && c.cap > 0 {
		for len(c.entries) >= c.cap {
			victim, ok := c.policy.Victim()
			if !ok {
				break
			}
			delete(c.entries, victim)
			c.policy.Remove(victim)
			c.stats.Evictions++
		}
	}

	c.entries[id] = clone(emb)
	if c.policy != nil {
		c.policy.Touch(id)
	}
}

func clone(v []float32) []float32 {
	dst := make([]float32, len(v))
	copy(dst, v)
	return dst
}
