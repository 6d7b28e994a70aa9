// Package keyring manages the pool of proxy-service access keys.
package keyring

import (
	"fmt"
	"sync"
)

// Ring holds an ordered set of access keys and a cursor. Rotation is circular;
// a Ring also tracks how far it has advanced since the last Reset so the
// fetcher can detect that every key has been tried and stop rotating.
type Ring struct {
	mu      sync.Mutex
	keys    []string
	index   int
	visited int
}

// New builds a Ring from the given keys.
func New(keys []string) (*Ring, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("at least one access key is required")
	}
	out := make([]string, len(keys))
	copy(out, keys)
	return &Ring{keys: out}, nil
}

// Current returns the active key.
func (r *Ring) Current() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.keys[r.index]
}

// Rotate advances the cursor circularly and reports whether the ring has
// cycled through every key since the last Reset. With a single key the first
// rotation already completes the cycle.
func (r *Ring) Rotate() (cycled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.index = (r.index + 1) % len(r.keys)
	r.visited++
	return r.visited >= len(r.keys)
}

// Reset clears the cycle tracking, typically at the start of a fetch.
func (r *Ring) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.visited = 0
}

// Len returns the number of keys in the ring.
func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.keys)
}
