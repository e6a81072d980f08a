// Package style caches widget stylesheets by logical name.
//
// Loading is a two-step sequence: Preload starts fetching a sheet in the
// background and returns a Task whose Done channel closes when the text is
// available (or known to be missing). A widget host waits on the task
// before the first render so a widget never paints unstyled when a sheet
// exists. A missing or unreachable sheet is not an error for the widget: it
// is logged and the widget renders with an empty <style> element.
package style

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/aymerick/douceur/css"
	"github.com/aymerick/douceur/parser"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/plain-reactive/plain/internal/errors"
	"github.com/plain-reactive/plain/pkg/fetch"
)

// Task is one stylesheet load.
type Task struct {
	name string
	url  string
	done chan struct{}

	// Set before done is closed.
	text  string
	sheet *css.Stylesheet
	err   error
}

// Done is closed when the load finishes.
func (t *Task) Done() <-chan struct{} { return t.done }

// Wait blocks until the load finishes or ctx ends.
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Err returns the load error, nil while the load is running.
func (t *Task) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}

// Text returns the stylesheet text, empty until the load finishes.
func (t *Task) Text() string {
	select {
	case <-t.done:
		return t.text
	default:
		return ""
	}
}

// Sheet returns the parsed stylesheet, or nil if it was missing or did not
// parse.
func (t *Task) Sheet() *css.Stylesheet {
	select {
	case <-t.done:
		return t.sheet
	default:
		return nil
	}
}

// Name returns the logical stylesheet name.
func (t *Task) Name() string { return t.name }

// URL returns the resolved URL, empty when none was known.
func (t *Task) URL() string { return t.url }

// Registry caches stylesheets by name.
type Registry struct {
	fetcher fetch.Fetcher
	base    string
	logger  *slog.Logger

	mu    sync.Mutex
	tasks map[string]*Task
}

// Option configures a Registry.
type Option func(*Registry)

// WithBase sets the location stylesheets are resolved against: the sheet
// for name is <base>/<name>.css.
func WithBase(base string) Option {
	return func(r *Registry) {
		r.base = strings.TrimSuffix(base, "/")
	}
}

// WithLogger sets the logger for load diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRegistry creates a registry loading sheets through f.
func NewRegistry(f fetch.Fetcher, opts ...Option) *Registry {
	r := &Registry{
		fetcher: f,
		logger:  slog.Default(),
		tasks:   make(map[string]*Task),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// URL returns the default location of the sheet for name, or "" without a
// base.
func (r *Registry) URL(name string) string {
	if r.base == "" {
		return ""
	}
	return r.base + "/" + name + ".css"
}

// Preload starts loading the sheet for name from url, or from the default
// location when url is empty. A name already loading or loaded returns the
// existing task.
func (r *Registry) Preload(ctx context.Context, name, url string) *Task {
	r.mu.Lock()
	if t, ok := r.tasks[name]; ok {
		r.mu.Unlock()
		return t
	}
	if url == "" {
		url = r.URL(name)
	}
	t := &Task{name: name, url: url, done: make(chan struct{})}
	r.tasks[name] = t
	r.mu.Unlock()

	if url == "" || r.fetcher == nil {
		t.err = errors.New(errors.CodeMissingStyle).WithDetailf("no stylesheet path for %q", name)
		r.missing(t)
		close(t.done)
		return t
	}
	go r.load(ctx, t)
	return t
}

func (r *Registry) load(ctx context.Context, t *Task) {
	defer close(t.done)

	text, err := r.fetcher.FetchText(ctx, t.url)
	if err != nil {
		t.err = errors.New(errors.CodeMissingStyle).WithDetail(t.name).Wrap(err)
		r.missing(t)
		return
	}
	t.text = text

	sheet, err := parser.Parse(text)
	if err != nil {
		r.logger.Warn("style: stylesheet does not parse",
			"name", t.name, "url", t.url, "error", err)
		return
	}
	t.sheet = sheet
}

func (r *Registry) missing(t *Task) {
	r.logger.Warn("style: missing stylesheet",
		"name", t.name, "url", t.url, "error", t.err, "code", errors.CodeMissingStyle)
}

// Lookup returns the task for name, if one was started.
func (r *Registry) Lookup(name string) (*Task, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[name]
	return t, ok
}

// Text returns the loaded text for name, or "".
func (r *Registry) Text(name string) string {
	if t, ok := r.Lookup(name); ok {
		return t.Text()
	}
	return ""
}

// Node returns a detached <style> element holding the sheet for name. The
// element is empty when the sheet is missing or not loaded yet.
func (r *Registry) Node(name string) *html.Node {
	n := &html.Node{Type: html.ElementNode, Data: "style", DataAtom: atom.Style}
	if text := r.Text(name); text != "" {
		n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	}
	return n
}

// Invalidate drops the cached sheet for name so the next Preload fetches it
// again.
func (r *Registry) Invalidate(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tasks, name)
}

// Reload invalidates name and starts loading it again from the same URL.
func (r *Registry) Reload(ctx context.Context, name string) *Task {
	url := ""
	if t, ok := r.Lookup(name); ok {
		url = t.url
	}
	r.Invalidate(name)
	return r.Preload(ctx, name, url)
}

// Names returns the names with a cached task.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.tasks))
	for name := range r.tasks {
		names = append(names, name)
	}
	return names
}

// NameForPath maps a changed stylesheet file back to a logical name: the
// base name without the .css extension. ok is false for other files.
func NameForPath(p string) (name string, ok bool) {
	p = strings.ReplaceAll(p, "\\", "/")
	if i := strings.LastIndex(p, "/"); i >= 0 {
		p = p[i+1:]
	}
	if !strings.HasSuffix(p, ".css") {
		return "", false
	}
	return strings.TrimSuffix(p, ".css"), true
}
