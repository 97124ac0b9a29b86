package resolve

import (
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/arloliu/avrokit/internal/collision"
	"github.com/arloliu/avrokit/internal/hash"
	"github.com/arloliu/avrokit/schema"
)

// Cache memoizes Resolve results per (writer, reader) pair. Concurrent requests
// for the same pair share one resolution. Entries live until Purge; the cache
// never evicts on its own.
//
// Pairs are keyed by the full JSON form of both schemas, so independently parsed
// but identical schemas share an entry. Entries are indexed by a 64-bit hash of
// that key; a pair whose hash is already owned by another pair is kept in a
// separate table keyed by the full string.
type Cache struct {
	mu      sync.RWMutex
	entries map[uint64]*Resolved
	spill   map[string]*Resolved
	owners  *collision.Tracker
	group   singleflight.Group
	keyFn   func(writer, reader string) uint64
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{
		entries: map[uint64]*Resolved{},
		spill:   map[string]*Resolved{},
		owners:  collision.NewTracker(),
		keyFn:   hash.PairID,
	}
}

// Resolve returns the cached resolution for the pair, resolving it on first use.
// Failed resolutions are not cached.
func (c *Cache) Resolve(writer, reader *schema.Schema) (*Resolved, error) {
	ws, rs := writer.String(), reader.String()
	key := c.keyFn(ws, rs)
	pair := ws + "\x00" + rs

	if res, ok := c.lookup(key, pair); ok {
		return res, nil
	}

	v, err, _ := c.group.Do(pair, func() (any, error) {
		if cached, ok := c.lookup(key, pair); ok {
			return cached, nil
		}

		resolved, err := Resolve(writer, reader)
		if err != nil {
			return nil, err
		}
		c.store(key, pair, resolved)

		return resolved, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*Resolved), nil //nolint:forcetypeassert
}

func (c *Cache) lookup(key uint64, pair string) (*Resolved, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.owners.Owns(key, pair) {
		return c.entries[key], true
	}
	res, ok := c.spill[pair]

	return res, ok
}

func (c *Cache) store(key uint64, pair string, res *Resolved) {
	c.mu.Lock()
	defer c.mu.Unlock()

	owned, err := c.owners.Track(key, pair)
	if err == nil && owned {
		c.entries[key] = res
		return
	}
	c.spill[pair] = res
}

// Len returns the number of cached pairs.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries) + len(c.spill)
}

// Collisions returns how many pairs were stored by full key because their hash
// was already taken.
func (c *Cache) Collisions() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.owners.Collisions()
}

// Purge drops every cached pair.
func (c *Cache) Purge() {
	c.mu.Lock()
	c.entries = map[uint64]*Resolved{}
	c.spill = map[string]*Resolved{}
	c.owners.Reset()
	c.mu.Unlock()
}
