package widget

import (
	"context"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/plain-reactive/plain/internal/errors"
	"github.com/plain-reactive/plain/pkg/markup"
	"github.com/plain-reactive/plain/pkg/reconcile"
	"github.com/plain-reactive/plain/pkg/signal"
	"github.com/plain-reactive/plain/pkg/store"
	"github.com/plain-reactive/plain/pkg/style"
	"github.com/plain-reactive/plain/pkg/telemetry"
)

// Patch describes one render of one widget. Full renders carry the new
// wrapper markup; incremental renders carry the applied edit script, with
// paths relative to the wrapper.
type Patch struct {
	Widget string
	Full   bool
	Markup string
	Ops    []reconcile.EditOp
}

type definition struct {
	tag       string
	factory   Factory
	styleName string
	styleURL  string
	unstyled  bool
}

// DefineOption configures a definition.
type DefineOption func(*definition)

// WithStyle loads the widget's stylesheet from url instead of the style
// registry's default location.
func WithStyle(url string) DefineOption {
	return func(d *definition) {
		d.styleURL = url
	}
}

// WithStyleName sets the logical stylesheet name (default: the tag).
func WithStyleName(name string) DefineOption {
	return func(d *definition) {
		d.styleName = name
	}
}

// WithoutStyle marks the widget as intentionally unstyled. No stylesheet
// is loaded and no missing-style diagnostic is logged.
func WithoutStyle() DefineOption {
	return func(d *definition) {
		d.unstyled = true
	}
}

// Host is the document widgets live in.
type Host struct {
	logger  *slog.Logger
	engine  *reconcile.Engine
	styles  *style.Registry
	stores  *store.Registry
	metrics *telemetry.Metrics
	ctx     context.Context

	document   *html.Node
	defs       map[string]*definition
	widgets    map[string]*Widget
	byElement  map[*html.Node]*Widget
	owners     map[*html.Node]*Widget
	observers  []func(Patch)
	nextID     int
	busOptions []signal.Option
}

// Option configures a Host.
type Option func(*Host)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Host) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithEngine sets the reconciliation engine.
func WithEngine(e *reconcile.Engine) Option {
	return func(h *Host) {
		h.engine = e
	}
}

// WithStyles sets the stylesheet registry.
func WithStyles(r *style.Registry) Option {
	return func(h *Host) {
		h.styles = r
	}
}

// WithStores sets the store registry widgets open namespaces through.
func WithStores(r *store.Registry) Option {
	return func(h *Host) {
		h.stores = r
	}
}

// WithMetrics sets the metrics sink. Signal emissions on widget buses are
// recorded too.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(h *Host) {
		h.metrics = m
		if m != nil {
			h.busOptions = append(h.busOptions, signal.WithRecorder(m))
		}
	}
}

// WithContext sets the context renders and style waits run under.
func WithContext(ctx context.Context) Option {
	return func(h *Host) {
		h.ctx = ctx
	}
}

// NewHost creates an empty document.
func NewHost(opts ...Option) *Host {
	h := &Host{
		logger:    slog.Default(),
		ctx:       context.Background(),
		document:  &html.Node{Type: html.DocumentNode},
		defs:      make(map[string]*definition),
		widgets:   make(map[string]*Widget),
		byElement: make(map[*html.Node]*Widget),
		owners:    make(map[*html.Node]*Widget),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.engine == nil {
		h.engine = reconcile.New(reconcile.WithLogger(h.logger))
	}
	if h.stores == nil {
		h.stores = store.NewRegistry(store.WithLogger(h.logger))
	}
	return h
}

// Document returns the root of the live document.
func (h *Host) Document() *html.Node { return h.document }

// Stores returns the store registry.
func (h *Host) Stores() *store.Registry { return h.stores }

// Styles returns the stylesheet registry, possibly nil.
func (h *Host) Styles() *style.Registry { return h.styles }

// Define registers factory for tag. Tags must contain a hyphen. Defining a
// tag twice fails with CodeDuplicateElement. The widget's stylesheet starts
// loading immediately.
func (h *Host) Define(tag string, factory Factory, opts ...DefineOption) error {
	tag = strings.ToLower(tag)
	if !strings.Contains(tag, "-") {
		return errors.New(errors.CodeUnknownWidget).
			WithDetailf("%q is not a valid custom element name", tag).
			WithSuggestion("Custom element names must contain a hyphen, e.g. x-counter")
	}
	if _, ok := h.defs[tag]; ok {
		return errors.New(errors.CodeDuplicateElement).WithDetail(tag)
	}
	d := &definition{tag: tag, factory: factory, styleName: tag}
	for _, opt := range opts {
		opt(d)
	}
	h.defs[tag] = d
	h.preload(d)
	return nil
}

// Defined reports whether tag has a definition.
func (h *Host) Defined(tag string) bool {
	_, ok := h.defs[strings.ToLower(tag)]
	return ok
}

func (h *Host) preload(d *definition) *style.Task {
	if d.unstyled || h.styles == nil {
		return nil
	}
	return h.styles.Preload(h.ctx, d.styleName, d.styleURL)
}

// Restyle reloads the stylesheet called name and swaps it into every
// attached widget using it. A sheet that fails to load leaves the widgets
// with an empty <style>. It returns the refreshed widgets.
func (h *Host) Restyle(ctx context.Context, name string) ([]*Widget, error) {
	if h.styles == nil {
		return nil, nil
	}
	if err := h.styles.Reload(ctx, name).Wait(ctx); err != nil && ctx.Err() != nil {
		return nil, err
	}
	var out []*Widget
	for _, w := range h.Widgets() {
		if w.def.unstyled || w.def.styleName != name {
			continue
		}
		w.RefreshStyle()
		out = append(out, w)
	}
	return out, nil
}

// Mount appends a <tag> element to the document and attaches its widget.
func (h *Host) Mount(ctx context.Context, tag string, attrs ...html.Attribute) (*Widget, error) {
	tag = strings.ToLower(tag)
	if _, ok := h.defs[tag]; !ok {
		return nil, errors.New(errors.CodeUnknownWidget).WithDetail(tag)
	}
	el := &html.Node{Type: html.ElementNode, Data: tag, Attr: attrs}
	h.document.AppendChild(el)
	return h.attach(ctx, el, nil)
}

// Load parses page markup into the document, replacing its content, and
// attaches a widget for every defined custom element in it.
func (h *Host) Load(ctx context.Context, page string) ([]*Widget, error) {
	for _, w := range h.Roots() {
		h.detach(w)
	}
	if err := markup.ParseInto(h.document, page); err != nil {
		return nil, errors.New(errors.CodeMalformedMarkup).Wrap(err)
	}
	var attached []*Widget
	for _, el := range h.customElements(h.document) {
		w, err := h.attach(ctx, el, nil)
		if err != nil {
			return attached, err
		}
		attached = append(attached, w)
	}
	return attached, nil
}

// Unmount detaches w and removes its element from its parent.
func (h *Host) Unmount(w *Widget) {
	el := w.element
	h.detach(w)
	if el.Parent != nil {
		el.Parent.RemoveChild(el)
	}
}

// Close detaches every widget.
func (h *Host) Close() {
	for _, w := range h.Roots() {
		h.detach(w)
	}
}

// Widget returns the widget with id.
func (h *Host) Widget(id string) (*Widget, bool) {
	w, ok := h.widgets[id]
	return w, ok
}

// Widgets returns the attached widgets in creation order.
func (h *Host) Widgets() []*Widget {
	out := make([]*Widget, 0, len(h.widgets))
	for _, w := range h.widgets {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}

// Roots returns the attached widgets without a parent widget.
func (h *Host) Roots() []*Widget {
	var out []*Widget
	for _, w := range h.Widgets() {
		if w.parent == "" {
			out = append(out, w)
		}
	}
	return out
}

// WidgetFor returns the widget attached to a custom element.
func (h *Host) WidgetFor(el *html.Node) (*Widget, bool) {
	w, ok := h.byElement[el]
	return w, ok
}

// OwnerOf returns the widget whose boundary contains n, as of that
// widget's last render.
func (h *Host) OwnerOf(n *html.Node) (*Widget, bool) {
	w, ok := h.owners[n]
	return w, ok
}

// OnPatch registers fn to receive every render of every widget.
func (h *Host) OnPatch(fn func(Patch)) {
	h.observers = append(h.observers, fn)
}

func (h *Host) publish(p Patch) {
	for _, fn := range h.observers {
		fn(p)
	}
}

// attach creates and attaches the widget for el.
func (h *Host) attach(ctx context.Context, el *html.Node, parent *Widget) (*Widget, error) {
	if w, ok := h.byElement[el]; ok {
		return w, nil
	}
	d, ok := h.defs[el.Data]
	if !ok {
		return nil, errors.New(errors.CodeUnknownWidget).WithDetail(el.Data)
	}
	h.nextID++
	w := &Widget{
		id:        "w" + strconv.Itoa(h.nextID),
		seq:       h.nextID,
		name:      d.tag,
		def:       d,
		host:      h,
		element:   el,
		ctx:       ctx,
		listeners: make(map[listenerKey]Handler),
	}
	if parent != nil {
		w.parent = parent.id
	}
	w.bus = signal.NewBus(w.id, h.busOptions...)
	h.widgets[w.id] = w
	h.byElement[el] = w

	w.component = d.factory(w)
	if err := w.OnAttach(ctx); err != nil {
		h.detach(w)
		return nil, err
	}
	return w, nil
}

// detach tears down w and the widgets below it.
func (h *Host) detach(w *Widget) {
	if w.detached {
		return
	}
	w.OnDetach()
}

// forget drops the host's references to w.
func (h *Host) forget(w *Widget) {
	delete(h.widgets, w.id)
	if h.byElement[w.element] == w {
		delete(h.byElement, w.element)
	}
	for _, n := range w.adopted {
		if h.owners[n] == w {
			delete(h.owners, n)
		}
	}
	w.adopted = nil
}

// children returns the attached widgets whose parent is w.
func (h *Host) children(w *Widget) []*Widget {
	var out []*Widget
	for _, c := range h.Widgets() {
		if c.parent == w.id {
			out = append(out, c)
		}
	}
	return out
}

// customElements returns the defined custom elements below root in
// document order.
func (h *Host) customElements(root *html.Node) []*html.Node {
	var out []*html.Node
	markup.Walk(root, func(n *html.Node) bool {
		if n.Type == html.ElementNode {
			if _, ok := h.defs[n.Data]; ok {
				out = append(out, n)
			}
		}
		return true
	})
	return out
}

// syncChildren attaches widgets for defined elements that appeared in w's
// tree and detaches child widgets whose element left it.
func (h *Host) syncChildren(w *Widget) error {
	present := make(map[*html.Node]bool)
	for _, el := range h.customElements(w.wrapper) {
		present[el] = true
	}
	for _, c := range h.children(w) {
		if !present[c.element] {
			h.detach(c)
		}
	}
	for _, el := range h.customElements(w.wrapper) {
		if _, ok := h.byElement[el]; ok {
			continue
		}
		if _, err := h.attach(w.ctx, el, w); err != nil {
			return err
		}
	}
	return nil
}
