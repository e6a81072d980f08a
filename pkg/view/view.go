// Package view maps the current path to a registered view, with a wildcard
// fallback, and drives navigation through a History.
//
//	r := view.New(history, view.WithBase("/app"))
//	r.Setup(map[string]string{"/": home, "/about": about, "*": notFound}, "")
//	r.Bind(w)               // w is re-rendered on navigation
//	markup := r.View()      // view for history.CurrentPath()
//	r.NavigateTo("/about")  // push and re-render
package view

import (
	"log/slog"
	"sync"
)

// DefaultWildcard is the route key used when Setup gets an empty wildcard.
const DefaultWildcard = "*"

// Renderer is the widget that displays the resolved view.
type Renderer interface {
	Render(forceFull bool) error
}

// Resolver holds a route table keyed by normalized path.
type Resolver struct {
	history History
	base    string
	logger  *slog.Logger

	mu       sync.RWMutex
	routes   map[string]string
	wildcard string
	owner    Renderer
	unlisten func()
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithBase sets a prefix stripped from paths before matching and added
// back by NavigateTo.
func WithBase(base string) Option {
	return func(r *Resolver) {
		if base == "/" {
			base = ""
		}
		r.base = base
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New creates a resolver over history. A nil history gets a
// MemoryHistory at "/".
func New(history History, opts ...Option) *Resolver {
	if history == nil {
		history = NewMemoryHistory("/")
	}
	r := &Resolver{
		history:  history,
		logger:   slog.Default(),
		routes:   make(map[string]string),
		wildcard: DefaultWildcard,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Setup replaces the route table. Keys are normalized; the wildcard key is
// kept verbatim. An empty wildcard means DefaultWildcard.
func (r *Resolver) Setup(routes map[string]string, wildcard string) {
	if wildcard == "" {
		wildcard = DefaultWildcard
	}
	table := make(map[string]string, len(routes))
	for path, v := range routes {
		if path == wildcard {
			table[path] = v
			continue
		}
		key, err := Normalize(path)
		if err != nil {
			r.logger.Warn("view: ignoring route", "path", path, "error", err)
			continue
		}
		table[key] = v
	}

	r.mu.Lock()
	r.routes = table
	r.wildcard = wildcard
	r.mu.Unlock()
}

// Bind sets the widget re-rendered on navigation and back/forward moves.
// Binding again replaces the previous owner.
func (r *Resolver) Bind(owner Renderer) {
	r.mu.Lock()
	if r.unlisten != nil {
		r.unlisten()
	}
	r.owner = owner
	r.unlisten = r.history.OnPopState(func(string) {
		r.rerender()
	})
	r.mu.Unlock()
}

// Unbind stops reacting to history changes.
func (r *Resolver) Unbind() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.unlisten != nil {
		r.unlisten()
		r.unlisten = nil
	}
	r.owner = nil
}

// Resolve returns the view for path: the exact match after normalization,
// else the wildcard entry, else "".
func (r *Resolver) Resolve(path string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if rest, ok := StripBase(path, r.base); ok {
		if key, err := Normalize(rest); err == nil {
			if v, ok := r.routes[key]; ok {
				return v
			}
		}
	}
	return r.routes[r.wildcard]
}

// Current returns the normalized current path, relative to the base.
func (r *Resolver) Current() string {
	rest, _ := StripBase(r.history.CurrentPath(), r.base)
	key, err := Normalize(rest)
	if err != nil {
		return "/"
	}
	return key
}

// View resolves the current path.
func (r *Resolver) View() string {
	return r.Resolve(r.history.CurrentPath())
}

// Href returns path with the base prepended.
func (r *Resolver) Href(path string) string {
	key, err := Normalize(path)
	if err != nil {
		key = "/"
	}
	if r.base == "" {
		return key
	}
	if key == "/" {
		return r.base
	}
	return r.base + key
}

// NavigateTo pushes path (below the base) and fully re-renders the bound
// widget. Navigating to the current path still pushes and renders.
func (r *Resolver) NavigateTo(path string) error {
	r.history.PushState(r.Href(path))
	return r.rerender()
}

func (r *Resolver) rerender() error {
	r.mu.RLock()
	owner := r.owner
	r.mu.RUnlock()
	if owner == nil {
		return nil
	}
	if err := owner.Render(true); err != nil {
		r.logger.Warn("view: render failed", "path", r.history.CurrentPath(), "error", err)
		return err
	}
	return nil
}
