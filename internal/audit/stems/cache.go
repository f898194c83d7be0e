package stems

import (
	"sync"

	"github.com/farcloser/consonance/internal/types"
)

// Cache memoizes stem estimates by source identity. It grows until cleared.
// Clear invalidates without waiting on in-flight estimations: results computed against an
// older generation are handed back to their callers but never stored.
type Cache struct {
	mu         sync.RWMutex
	entries    map[string]*types.StemEstimate
	generation uint64
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{
		entries: map[string]*types.StemEstimate{},
	}
}

// Get returns the cached estimate for key.
func (c *Cache) Get(key string) (*types.StemEstimate, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	estimate, ok := c.entries[key]

	return estimate, ok
}

// Put stores an estimate for key.
func (c *Cache) Put(key string, estimate *types.StemEstimate) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = estimate
}

// Clear drops every entry and starts a new generation.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = map[string]*types.StemEstimate{}
	c.generation++
}

// Size returns the number of cached estimates.
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

func (c *Cache) currentGeneration() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.generation
}

// putIfCurrent stores estimate only if no Clear happened since generation was read.
func (c *Cache) putIfCurrent(key string, generation uint64, estimate *types.StemEstimate) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.generation != generation {
		return false
	}

	c.entries[key] = estimate

	return true
}
