// Package collision detects 64-bit hash collisions between string keys.
package collision

import "errors"

// ErrEmptyKey is returned when an empty key is tracked.
var ErrEmptyKey = errors.New("collision: empty key")

// Tracker maps hashes back to the keys they were computed from, so a lookup by
// hash can tell a genuine hit from two keys sharing a hash.
//
// A Tracker is not safe for concurrent use.
type Tracker struct {
	keys       map[uint64]string
	collisions int
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{keys: make(map[uint64]string)}
}

// Track records key under hash.
//
// It reports false when hash is already owned by a different key. The first key
// keeps ownership and the collision is counted.
func (t *Tracker) Track(hash uint64, key string) (bool, error) {
	if key == "" {
		return false, ErrEmptyKey
	}

	if owner, ok := t.keys[hash]; ok {
		if owner == key {
			return true, nil
		}
		t.collisions++

		return false, nil
	}
	t.keys[hash] = key

	return true, nil
}

// Owns reports whether hash is tracked for exactly key.
func (t *Tracker) Owns(hash uint64, key string) bool {
	owner, ok := t.keys[hash]

	return ok && owner == key
}

// HasCollision reports whether any collision has been seen since the last Reset.
func (t *Tracker) HasCollision() bool {
	return t.collisions > 0
}

// Collisions returns the number of rejected Track calls.
func (t *Tracker) Collisions() int {
	return t.collisions
}

// Count returns the number of tracked hashes.
func (t *Tracker) Count() int {
	return len(t.keys)
}

// Reset forgets every key and the collision count.
func (t *Tracker) Reset() {
	clear(t.keys)
	t.collisions = 0
}
