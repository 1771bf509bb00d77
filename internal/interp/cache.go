package interp

import (
	"fmt"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/litescript/ls-ephem/internal/catalog"
)

type blockKind uint8

const (
	blockRecord blockKind = iota // one Chebyshev record
	blockStates                  // a window of tabulated states
	blockEpochs                  // a window of tabulated epochs
)

type recordKey struct {
	kernel  catalog.KernelID
	segment int
	kind    blockKind
	slot    int
}

// Cache is a bounded LRU of decoded coefficient blocks shared by every
// query. Cached slices are never modified.
type Cache struct {
	lru      *lru.Cache[recordKey, []float64]
	hits     atomic.Uint64
	misses   atomic.Uint64
	onAccess func(hit bool)
}

// NewCache returns a cache holding up to size blocks. onAccess, if not nil,
// is called on every lookup.
func NewCache(size int, onAccess func(hit bool)) (*Cache, error) {
	l, err := lru.New[recordKey, []float64](size)
	if err != nil {
		return nil, fmt.Errorf("record cache: %w", err)
	}
	return &Cache{lru: l, onAccess: onAccess}, nil
}

func (c *Cache) get(k recordKey) ([]float64, bool) {
	v, ok := c.lru.Get(k)
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	if c.onAccess != nil {
		c.onAccess(ok)
	}
	return v, ok
}

func (c *Cache) add(k recordKey, v []float64) {
	c.lru.Add(k, v)
}

// Forget drops every block of kernel k, e.g. after it is unloaded.
func (c *Cache) Forget(k catalog.KernelID) {
	for _, key := range c.lru.Keys() {
		if key.kernel == k {
			c.lru.Remove(key)
		}
	}
}

// Stats returns the hit and miss counts.
func (c *Cache) Stats() (hits, misses uint64) {
	return c.hits.Load(), c.misses.Load()
}

// Len returns the number of cached blocks.
func (c *Cache) Len() int {
	return c.lru.Len()
}
