package store

import (
	"slices"
	"sync"
)

// Collection is a map-backed, goroutine-safe keyed collection that enumerates
// in insertion order. Replacing a value keeps its original position.
type Collection[K comparable, V any] struct {
	mu    sync.RWMutex
	items map[K]V
	order []K
}

// NewCollection constructs an empty Collection.
func NewCollection[K comparable, V any]() *Collection[K, V] {
	return &Collection[K, V]{
		items: make(map[K]V),
	}
}

// Get returns the value and whether it was present.
func (c *Collection[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	v, ok := c.items[key]
	return v, ok
}

// Insert stores value under key if the key is absent. It reports whether the
// value was stored.
func (c *Collection[K, V]) Insert(key K, value V) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.items[key]; ok {
		return false
	}
	c.items[key] = value
	c.order = append(c.order, key)
	return true
}

// Replace swaps the value under an existing key. It reports false, storing
// nothing, when the key is absent, so a removed entry is never resurrected.
func (c *Collection[K, V]) Replace(key K, value V) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.items[key]; !ok {
		return false
	}
	c.items[key] = value
	return true
}

// Delete removes a key if present and returns the removed value.
func (c *Collection[K, V]) Delete(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.items[key]
	if !ok {
		return v, false
	}
	delete(c.items, key)
	if i := slices.Index(c.order, key); i >= 0 {
		c.order = slices.Delete(c.order, i, i+1)
	}
	return v, true
}

// Values returns a point-in-time slice of all values in insertion order.
func (c *Collection[K, V]) Values() []V {
	c.mu.RLock()
	defer c.mu.RUnlock()

	values := make([]V, 0, len(c.order))
	for _, k := range c.order {
		values = append(values, c.items[k])
	}
	return values
}

// Range calls fn for each value in insertion order until fn returns false.
// fn runs under the read lock and must not call back into the collection.
func (c *Collection[K, V]) Range(fn func(V) bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, k := range c.order {
		if !fn(c.items[k]) {
			return
		}
	}
}

// Find returns the first value, in insertion order, matching pred.
func (c *Collection[K, V]) Find(pred func(V) bool) (V, bool) {
	var (
		found V
		ok    bool
	)
	c.Range(func(v V) bool {
		if pred(v) {
			found, ok = v, true
			return false
		}
		return true
	})
	return found, ok
}
