package store

import (
	"encoding/json"
	"sync"

	stderrors "errors"

	"github.com/plain-reactive/plain/internal/errors"
)

// ErrStale is returned when a store handle is written after Clear.
var ErrStale = errors.New(errors.CodeStaleStore)

// Store is one live namespace.
type Store struct {
	registry  *Registry
	namespace string
	tier      Tier
	backend   Backend
	key       string

	mu          sync.Mutex
	subscribers []Subscriber
	stale       bool
}

// Namespace returns the namespace name.
func (s *Store) Namespace() string { return s.namespace }

// Tier returns the persistence tier.
func (s *Store) Tier() Tier { return s.tier }

// Stale reports whether Clear has been called.
func (s *Store) Stale() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stale
}

// Subscribe adds sub to the subscriber list. Adding a subscriber twice has
// no effect.
func (s *Store) Subscribe(sub Subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.subscribers {
		if existing == sub {
			return
		}
	}
	s.subscribers = append(s.subscribers, sub)
}

// Unsubscribe removes sub from the subscriber list.
func (s *Store) Unsubscribe(sub Subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.subscribers {
		if existing == sub {
			s.subscribers = append(s.subscribers[:i], s.subscribers[i+1:]...)
			return
		}
	}
}

func (s *Store) subscribed(sub Subscriber) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.subscribers {
		if existing == sub {
			return true
		}
	}
	return false
}

// Subscribers returns the number of subscribers.
func (s *Store) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subscribers)
}

// SetData merges partial into the stored mapping, last write wins per key.
// If the backing entry has disappeared the call does nothing. With
// propagate set, every subscriber is fully re-rendered after the write is
// committed; render errors are joined and returned. Subscribers removed by
// an earlier render in the same pass are skipped.
func (s *Store) SetData(partial map[string]any, propagate bool) error {
	s.mu.Lock()
	if s.stale {
		s.mu.Unlock()
		return errors.New(errors.CodeStaleStore).WithDetailf("namespace %q", s.namespace)
	}
	data, ok, err := s.load()
	if err != nil || !ok {
		s.mu.Unlock()
		return err
	}
	for k, v := range partial {
		raw, err := json.Marshal(v)
		if err != nil {
			s.mu.Unlock()
			return errors.New(errors.CodeStoreBackend).
				WithDetailf("value for %q is not JSON-serializable", k).
				Wrap(err)
		}
		data[k] = raw
	}
	encoded, err := json.Marshal(data)
	if err != nil {
		s.mu.Unlock()
		return errors.New(errors.CodeStoreBackend).Wrap(err)
	}
	if err := s.backend.Set(s.key, string(encoded)); err != nil {
		s.mu.Unlock()
		return errors.FromError(err, errors.CodeStoreBackend)
	}
	subs := make([]Subscriber, len(s.subscribers))
	copy(subs, s.subscribers)
	s.mu.Unlock()

	if s.registry.recorder != nil {
		s.registry.recorder.RecordStoreWrite(s.namespace)
	}
	if !propagate {
		return nil
	}
	var errs []error
	for _, sub := range subs {
		// An earlier render may have detached sub.
		if !s.subscribed(sub) {
			continue
		}
		if err := sub.Render(true); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}

// Lookup returns the value stored under key, decoded into its generic JSON
// form (numbers are float64).
func (s *Store) Lookup(key string) (any, bool) {
	raw, ok := s.raw(key)
	if !ok {
		return nil, false
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, false
	}
	return v, true
}

// Get returns the value stored under key, or nil.
func (s *Store) Get(key string) any {
	v, _ := s.Lookup(key)
	return v
}

// Value decodes the value stored under key into T.
func Value[T any](s *Store, key string) (T, bool) {
	var v T
	raw, ok := s.raw(key)
	if !ok {
		return v, false
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		s.registry.logger.Warn("store: value type mismatch",
			"namespace", s.namespace, "key", key, "error", err)
		return v, false
	}
	return v, true
}

// Keys returns the stored keys.
func (s *Store) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stale {
		return nil
	}
	data, ok, err := s.load()
	if err != nil || !ok {
		return nil
	}
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	return keys
}

// Clear removes the backing entry and the registry entry. The handle, and
// every copy subscribers hold, is stale afterwards.
func (s *Store) Clear() error {
	s.mu.Lock()
	if s.stale {
		s.mu.Unlock()
		return nil
	}
	s.stale = true
	err := s.backend.Remove(s.key)
	s.mu.Unlock()

	s.registry.forget(s)
	if err != nil {
		return errors.FromError(err, errors.CodeStoreBackend)
	}
	return nil
}

func (s *Store) raw(key string) (json.RawMessage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stale {
		return nil, false
	}
	data, ok, err := s.load()
	if err != nil || !ok {
		return nil, false
	}
	raw, ok := data[key]
	return raw, ok
}

// load reads and decodes the backing entry. Callers hold s.mu.
func (s *Store) load() (map[string]json.RawMessage, bool, error) {
	value, ok, err := s.backend.Get(s.key)
	if err != nil {
		s.registry.logger.Warn("store: backend read failed",
			"namespace", s.namespace, "error", err, "code", errors.CodeStoreBackend)
		return nil, false, errors.FromError(err, errors.CodeStoreBackend)
	}
	if !ok {
		return nil, false, nil
	}
	data := make(map[string]json.RawMessage)
	if err := json.Unmarshal([]byte(value), &data); err != nil {
		return nil, false, errors.New(errors.CodeStoreBackend).
			WithDetailf("entry %q is not a JSON object", s.key).
			Wrap(err)
	}
	return data, true, nil
}
