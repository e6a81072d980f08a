package store

import (
	"log/slog"
	"sort"
	"sync"

	stderrors "errors"

	"github.com/plain-reactive/plain/internal/errors"
)

// Subscriber is re-rendered when a store it subscribes to propagates a
// write. Widgets implement it.
type Subscriber interface {
	Render(forceFull bool) error
}

// Recorder receives store write counts.
type Recorder interface {
	RecordStoreWrite(namespace string)
}

// Registry holds the live stores, at most one per namespace. It is created
// by the application and passed to whatever needs to open stores.
type Registry struct {
	logger   *slog.Logger
	recorder Recorder

	mu       sync.Mutex
	backends map[Tier]Backend
	stores   map[string]*Store
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithBackend sets the backend for a tier.
func WithBackend(t Tier, b Backend) RegistryOption {
	return func(r *Registry) {
		r.backends[t] = b
	}
}

// WithLogger sets the logger used for backend diagnostics.
func WithLogger(logger *slog.Logger) RegistryOption {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(rec Recorder) RegistryOption {
	return func(r *Registry) {
		r.recorder = rec
	}
}

// NewRegistry creates a registry. Tiers without a configured backend get a
// fresh MemoryBackend.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		logger:   slog.Default(),
		backends: make(map[Tier]Backend),
		stores:   make(map[string]*Store),
	}
	for _, opt := range opts {
		opt(r)
	}
	for _, t := range []Tier{Ephemeral, Durable} {
		if r.backends[t] == nil {
			r.backends[t] = NewMemoryBackend()
		}
	}
	return r
}

type openOptions struct {
	tier      Tier
	subscribe bool
}

// OpenOption configures Open.
type OpenOption func(*openOptions)

// WithTier selects the persistence tier for a new namespace. It is ignored
// when the namespace is already live.
func WithTier(t Tier) OpenOption {
	return func(o *openOptions) {
		o.tier = t
	}
}

// WithoutSubscribe opens the store without adding the owner as a
// subscriber.
func WithoutSubscribe() OpenOption {
	return func(o *openOptions) {
		o.subscribe = false
	}
}

// Open returns the live store for namespace, creating it if needed. The
// owner becomes a subscriber unless WithoutSubscribe is given; a nil owner
// never subscribes.
//
// A new store reuses an entry the backend already holds for the namespace
// and otherwise writes an empty mapping.
func (r *Registry) Open(namespace string, owner Subscriber, opts ...OpenOption) (*Store, error) {
	o := openOptions{tier: Ephemeral, subscribe: true}
	for _, opt := range opts {
		opt(&o)
	}
	if !o.tier.valid() {
		return nil, invalidTier(int(o.tier))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.stores[namespace]; ok && !s.Stale() {
		if o.subscribe && owner != nil {
			s.Subscribe(owner)
		}
		return s, nil
	}

	backend := r.backends[o.tier]
	key := storageKey(namespace)
	_, exists, err := backend.Get(key)
	if err != nil {
		return nil, errors.FromError(err, errors.CodeStoreBackend)
	}
	if !exists {
		if err := backend.Set(key, "{}"); err != nil {
			return nil, errors.FromError(err, errors.CodeStoreBackend)
		}
	}

	s := &Store{
		registry:  r,
		namespace: namespace,
		tier:      o.tier,
		backend:   backend,
		key:       key,
	}
	if o.subscribe && owner != nil {
		s.subscribers = append(s.subscribers, owner)
	}
	r.stores[namespace] = s
	r.logger.Debug("store: opened", "namespace", namespace, "tier", o.tier, "reused", exists)
	return s, nil
}

// Lookup returns the live store for namespace without creating one.
func (r *Registry) Lookup(namespace string) (*Store, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.stores[namespace]
	if !ok || s.Stale() {
		return nil, false
	}
	return s, true
}

// Namespaces returns the live namespaces in sorted order.
func (r *Registry) Namespaces() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.stores))
	for ns, s := range r.stores {
		if !s.Stale() {
			out = append(out, ns)
		}
	}
	sort.Strings(out)
	return out
}

// Unsubscribe removes sub from every live store.
func (r *Registry) Unsubscribe(sub Subscriber) {
	r.mu.Lock()
	stores := make([]*Store, 0, len(r.stores))
	for _, s := range r.stores {
		stores = append(stores, s)
	}
	r.mu.Unlock()

	for _, s := range stores {
		s.Unsubscribe(sub)
	}
}

// Close closes every backend.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var errs []error
	for _, b := range r.backends {
		if err := b.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	r.stores = make(map[string]*Store)
	return stderrors.Join(errs...)
}

func (r *Registry) forget(s *Store) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stores[s.namespace] == s {
		delete(r.stores, s.namespace)
	}
}

func storageKey(namespace string) string {
	return "context:" + namespace
}
