package registry

import "sync"

// Keyed is the capability bound for container items: anything stored must
// expose a stable string identity. The compile-time constraint replaces
// run-time shape checking of stored values.
type Keyed interface {
	Key() string
}

// Container is a parametric collection keyed by string identity.
// Insertion order is preserved for iteration.
type Container[T Keyed] struct {
	mu    sync.RWMutex
	items map[string]T
	order []string
}

// NewContainer creates an empty container.
func NewContainer[T Keyed]() *Container[T] {
	return &Container[T]{items: make(map[string]T)}
}

// Add inserts or replaces the item under its own key.
func (c *Container[T]) Add(item T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := item.Key()
	if _, exists := c.items[key]; !exists {
		c.order = append(c.order, key)
	}
	c.items[key] = item
}

// Get returns the item stored under key.
func (c *Container[T]) Get(key string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	item, ok := c.items[key]
	return item, ok
}

// List returns all items in insertion order.
func (c *Container[T]) List() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]T, 0, len(c.order))
	for _, key := range c.order {
		out = append(out, c.items[key])
	}
	return out
}

// Find returns the items matching the predicate, in insertion order.
func (c *Container[T]) Find(match func(T) bool) []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []T
	for _, key := range c.order {
		if match(c.items[key]) {
			out = append(out, c.items[key])
		}
	}
	return out
}

// Len returns the number of stored items.
func (c *Container[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
