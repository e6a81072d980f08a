// Package store implements namespaced, persisted key/value stores shared
// between widgets.
//
// A Registry owns at most one live Store per namespace. Opening a namespace
// that is already live returns the existing Store and adds the caller as a
// subscriber; otherwise a backing entry is created in the chosen tier:
//
//	reg := store.NewRegistry(store.WithBackend(store.Durable, bolt))
//	s, err := reg.Open("cart", w, store.WithTier(store.Durable))
//	s.SetData(map[string]any{"items": 3}, true) // re-renders subscribers
//
// Values are stored as one JSON object per namespace under the key
// "context:<namespace>" in the tier's Backend. The ephemeral tier defaults
// to an in-memory backend; the durable tier is normally a bbolt file.
//
// After Clear the handle is stale: reads return nothing and SetData fails
// with ErrStale. Subscribers are not notified.
package store
