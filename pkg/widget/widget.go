package widget

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/plain-reactive/plain/internal/errors"
	"github.com/plain-reactive/plain/pkg/markup"
	"github.com/plain-reactive/plain/pkg/signal"
	"github.com/plain-reactive/plain/pkg/store"
	"github.com/plain-reactive/plain/pkg/telemetry"
)

// ErrDetached is returned when a detached widget is rendered.
var ErrDetached = errors.New(errors.CodeWidgetDetached)

// Widget is one attached custom element.
type Widget struct {
	id     string
	seq    int
	name   string
	def    *definition
	host   *Host
	parent string
	ctx    context.Context

	element   *html.Node // the custom element in its parent's tree
	shadow    *html.Node // boundary root: <style> and wrapper
	wrapper   *html.Node // reconciled subtree root
	component Component
	bus       *signal.Bus

	snapshot string
	rendered bool
	attached bool
	detached bool

	listeners map[listenerKey]Handler
	adopted   []*html.Node
}

// ID returns the host-unique widget id.
func (w *Widget) ID() string { return w.id }

// Name returns the logical widget name, its tag.
func (w *Widget) Name() string { return w.name }

// Host returns the host the widget lives in.
func (w *Widget) Host() *Host { return w.host }

// Element returns the custom element the widget is attached to.
func (w *Widget) Element() *html.Node { return w.element }

// Root returns the wrapper element holding the rendered markup.
func (w *Widget) Root() *html.Node { return w.wrapper }

// Shadow returns the boundary root. Its children are the <style> element
// and the wrapper.
func (w *Widget) Shadow() *html.Node { return w.shadow }

// Component returns the widget's component.
func (w *Widget) Component() Component { return w.component }

// Bus returns the widget's signal bus.
func (w *Widget) Bus() *signal.Bus { return w.bus }

// Context returns the context the widget was attached under.
func (w *Widget) Context() context.Context { return w.ctx }

// Snapshot returns the markup of the last render.
func (w *Widget) Snapshot() string { return w.snapshot }

// Attached reports whether the widget is attached.
func (w *Widget) Attached() bool { return w.attached && !w.detached }

// Parent returns the widget whose tree holds this widget's element. The
// link is a lookup, not a reference: it is nil once the parent is gone.
func (w *Widget) Parent() *Widget {
	if w.parent == "" {
		return nil
	}
	p, ok := w.host.widgets[w.parent]
	if !ok {
		return nil
	}
	return p
}

// Children returns the attached widgets whose elements are in this
// widget's tree.
func (w *Widget) Children() []*Widget {
	return w.host.children(w)
}

// Attr returns an attribute of the widget's element.
func (w *Widget) Attr(name string) string {
	v, _ := markup.Attr(w.element, name)
	return v
}

// Store opens namespace with the widget as owner and subscriber.
func (w *Widget) Store(namespace string, opts ...store.OpenOption) (*store.Store, error) {
	return w.host.stores.Open(namespace, w, opts...)
}

// OnAttach builds the boundary, waits for the stylesheet, renders and runs
// the attach hook.
func (w *Widget) OnAttach(ctx context.Context) error {
	if w.detached {
		return ErrDetached
	}
	if w.attached {
		return nil
	}
	if ctx == nil {
		ctx = w.host.ctx
	}
	w.ctx = ctx

	if task := w.host.preload(w.def); task != nil {
		// A missing stylesheet is logged by the registry; render unstyled.
		if err := task.Wait(ctx); err != nil && ctx.Err() != nil {
			return err
		}
	}

	w.shadow = &html.Node{Type: html.DocumentNode}
	w.shadow.AppendChild(w.styleNode())
	w.wrapper = &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
		Attr:     []html.Attribute{{Key: "class", Val: w.name + "-wrapper"}},
	}
	w.shadow.AppendChild(w.wrapper)
	w.attached = true
	w.host.metrics.WidgetAttached()
	w.host.logger.Debug("widget: attached", "widget", w.id, "name", w.name, "parent", w.parent)

	if err := w.Render(true); err != nil {
		return err
	}
	if h, ok := w.component.(AttachHook); ok {
		h.Attached(w)
	}
	return nil
}

func (w *Widget) styleNode() *html.Node {
	if w.def.unstyled || w.host.styles == nil {
		return &html.Node{Type: html.ElementNode, Data: "style", DataAtom: atom.Style}
	}
	return w.host.styles.Node(w.def.styleName)
}

// RefreshStyle replaces the boundary's <style> element with the registry's
// current sheet.
func (w *Widget) RefreshStyle() {
	if w.shadow == nil {
		return
	}
	old := w.shadow.FirstChild
	next := w.styleNode()
	w.shadow.InsertBefore(next, old)
	if old != nil && old.DataAtom == atom.Style {
		w.shadow.RemoveChild(old)
	}
	w.adopt()
}

// Render computes the template and brings the wrapper up to date. A full
// render, or the first one, replaces the wrapper content; otherwise the
// previous snapshot is diffed against the new markup and the edits are
// applied in place. Child widgets are attached and detached to match, then
// the listener, connection and post-render hooks run.
func (w *Widget) Render(forceFull bool) (err error) {
	if w.detached || !w.attached {
		w.host.logger.Warn("widget: render after detach", "widget", w.id, "name", w.name, "code", errors.CodeWidgetDetached)
		return errors.New(errors.CodeWidgetDetached).WithDetailf("%s (%s)", w.name, w.id)
	}
	full := forceFull || !w.rendered

	start := time.Now()
	_, span := telemetry.StartRender(w.ctx, w.name, full)
	edits := 0
	defer func() {
		telemetry.End(span, err, attribute.Int("plain.edits", edits))
		w.host.metrics.RecordRender(w.name, full, time.Since(start), err)
	}()

	next := w.component.Template()
	patch := Patch{Widget: w.id, Full: full}
	if full {
		if err := markup.ParseInto(w.wrapper, next); err != nil {
			return errors.New(errors.CodeMalformedMarkup).WithDetail(w.name).Wrap(err)
		}
	} else {
		ops, err := w.host.engine.Diff(w.snapshot, next)
		if err != nil {
			return err
		}
		result := w.host.engine.Apply(w.wrapper, ops)
		edits = result.Applied
		if result.Skipped > 0 {
			w.host.logger.Debug("widget: partial apply", "widget", w.id, "applied", result.Applied, "skipped", result.Skipped)
		}
		patch.Ops = ops
	}
	w.snapshot = next
	w.rendered = true
	if full {
		patch.Markup = markup.Render(w.wrapper)
	}
	if full || len(patch.Ops) > 0 {
		w.host.publish(patch)
	}

	if err := w.host.syncChildren(w); err != nil {
		return err
	}
	w.adopt()
	if w.detached {
		// A child's hooks tore this widget down.
		return nil
	}

	if b, ok := w.component.(ListenerBinder); ok {
		b.Listeners(w)
	}
	if c, ok := w.component.(Connector); ok {
		w.bus.Close()
		if err := c.Connect(w); err != nil {
			return err
		}
	}
	if h, ok := w.component.(RenderHook); ok {
		h.Rendered(w)
	}
	return nil
}

// adopt records w as the owner of every node in its boundary and drops
// handlers bound to nodes that are no longer there.
func (w *Widget) adopt() {
	owners := w.host.owners
	for _, n := range w.adopted {
		if owners[n] == w {
			delete(owners, n)
		}
	}
	w.adopted = w.adopted[:0]
	present := make(map[*html.Node]bool)
	markup.Walk(w.shadow, func(n *html.Node) bool {
		owners[n] = w
		w.adopted = append(w.adopted, n)
		present[n] = true
		return true
	})
	for k := range w.listeners {
		if !present[k.node] {
			delete(w.listeners, k)
		}
	}
}

// OnDetach runs the detach hook, detaches child widgets and releases the
// widget's bus connections and store subscriptions. The widget cannot be
// rendered afterwards.
func (w *Widget) OnDetach() {
	if w.detached {
		return
	}
	if h, ok := w.component.(DetachHook); ok && w.attached {
		h.Detaching(w)
	}
	w.detached = true
	for _, c := range w.host.children(w) {
		w.host.detach(c)
	}
	w.bus.Close()
	w.host.stores.Unsubscribe(w)
	w.listeners = make(map[listenerKey]Handler)
	w.host.forget(w)
	if w.attached {
		w.host.metrics.WidgetDetached()
	}
	w.host.logger.Debug("widget: detached", "widget", w.id, "name", w.name)
}
