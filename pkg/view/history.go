package view

import (
	"slices"
	"sync"
)

// History is the host navigation API.
type History interface {
	PushState(path string)
	CurrentPath() string
	// OnPopState registers fn for back/forward moves and returns a function
	// removing it.
	OnPopState(fn func(path string)) (remove func())
}

// MemoryHistory is a History kept in memory. The development server shares
// one across all connections.
type MemoryHistory struct {
	mu        sync.Mutex
	entries   []string
	index     int
	listeners map[int]func(string)
	nextID    int
}

// NewMemoryHistory creates a history positioned at start.
func NewMemoryHistory(start string) *MemoryHistory {
	if start == "" {
		start = "/"
	}
	return &MemoryHistory{
		entries:   []string{start},
		listeners: make(map[int]func(string)),
	}
}

// PushState adds path after the current entry, dropping forward entries.
func (h *MemoryHistory) PushState(path string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries[:h.index+1], path)
	h.index++
}

// CurrentPath returns the current entry.
func (h *MemoryHistory) CurrentPath() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.entries[h.index]
}

// Len returns the number of entries.
func (h *MemoryHistory) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

// OnPopState registers fn.
func (h *MemoryHistory) OnPopState(fn func(string)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextID
	h.nextID++
	h.listeners[id] = fn
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.listeners, id)
	}
}

// Back moves one entry back and notifies listeners. It reports false at
// the first entry.
func (h *MemoryHistory) Back() bool {
	return h.Go(-1)
}

// Forward moves one entry forward and notifies listeners.
func (h *MemoryHistory) Forward() bool {
	return h.Go(1)
}

// Go moves delta entries and notifies listeners.
func (h *MemoryHistory) Go(delta int) bool {
	h.mu.Lock()
	i := h.index + delta
	if delta == 0 || i < 0 || i >= len(h.entries) {
		h.mu.Unlock()
		return false
	}
	h.index = i
	path := h.entries[i]
	ids := make([]int, 0, len(h.listeners))
	for id := range h.listeners {
		ids = append(ids, id)
	}
	fns := make([]func(string), 0, len(ids))
	slices.Sort(ids)
	for _, id := range ids {
		fns = append(fns, h.listeners[id])
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn(path)
	}
	return true
}
