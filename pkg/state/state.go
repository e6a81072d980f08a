// Package state provides a small value cell owned by a widget.
package state

import "sync"

// Renderer is re-rendered when a cell changes with propagation.
type Renderer interface {
	Render(forceFull bool) error
}

// Cell holds a current and a previous value.
type Cell[T any] struct {
	mu    sync.RWMutex
	value T
	prev  T
	owner Renderer
}

// New creates a cell holding initial. owner may be nil.
func New[T any](initial T, owner Renderer) *Cell[T] {
	return &Cell[T]{value: initial, owner: owner}
}

// Set replaces the value, remembering the old one. With propagate set the
// owner is re-rendered incrementally.
func (c *Cell[T]) Set(next T, propagate bool) error {
	c.mu.Lock()
	c.prev, c.value = c.value, next
	owner := c.owner
	c.mu.Unlock()

	if propagate && owner != nil {
		return owner.Render(false)
	}
	return nil
}

// Update applies fn to the current value and stores the result. fn runs
// without the cell locked and may read the cell.
func (c *Cell[T]) Update(fn func(T) T, propagate bool) error {
	return c.Set(fn(c.Get()), propagate)
}

// Get returns the current value.
func (c *Cell[T]) Get() T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value
}

// Prev returns the value before the last Set.
func (c *Cell[T]) Prev() T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.prev
}
