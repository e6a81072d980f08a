package widget

import (
	"context"
	"encoding/json"

	"golang.org/x/net/html"

	"github.com/plain-reactive/plain/internal/errors"
	"github.com/plain-reactive/plain/pkg/markup"
	"github.com/plain-reactive/plain/pkg/reconcile"
	"github.com/plain-reactive/plain/pkg/telemetry"
)

// Handler handles one event.
type Handler func(Event) error

// Event is a user input event delivered to a widget.
type Event struct {
	Type string
	// Target is the node the event was dispatched at.
	Target *html.Node
	// Current is the node whose handler runs. It is Target or an ancestor
	// of it inside the widget's boundary.
	Current *html.Node
	Widget  *Widget
	Data    json.RawMessage
}

// Decode unmarshals the event payload into v.
func (e Event) Decode(v any) error {
	if len(e.Data) == 0 {
		return nil
	}
	return json.Unmarshal(e.Data, v)
}

type listenerKey struct {
	node  *html.Node
	event string
}

// On binds h to event on n, replacing any handler bound to the same pair.
// A nil node is ignored and a nil handler removes the binding. Bindings on
// nodes that leave the tree are dropped on the next render.
func (w *Widget) On(n *html.Node, event string, h Handler) {
	if n == nil {
		return
	}
	k := listenerKey{n, event}
	if h == nil {
		delete(w.listeners, k)
		return
	}
	w.listeners[k] = h
}

// OnAll binds h to event on every node.
func (w *Widget) OnAll(nodes []*html.Node, event string, h Handler) {
	for _, n := range nodes {
		w.On(n, event, h)
	}
}

// Off removes the handler for event on n.
func (w *Widget) Off(n *html.Node, event string) {
	delete(w.listeners, listenerKey{n, event})
}

// HasListener reports whether a handler is bound to event on n.
func (w *Widget) HasListener(n *html.Node, event string) bool {
	_, ok := w.listeners[listenerKey{n, event}]
	return ok
}

// Listeners returns the number of bound handlers.
func (w *Widget) Listeners() int {
	return len(w.listeners)
}

// Dispatch delivers event to the node at path below the widget's wrapper.
// The nearest handler on the target or one of its ancestors inside the
// wrapper runs; handled is false when there is none.
func (h *Host) Dispatch(ctx context.Context, widgetID string, path reconcile.Path, event string, data json.RawMessage) (handled bool, err error) {
	w, ok := h.widgets[widgetID]
	if !ok {
		return false, errors.New(errors.CodeUnknownWidget).WithDetailf("no widget %q", widgetID)
	}
	target := w.wrapper
	for _, i := range path {
		target = markup.ChildAt(target, i)
		if target == nil {
			return false, errors.New(errors.CodeUnresolvedPath).WithDetailf("%s in %s", path, widgetID)
		}
	}

	for n := target; n != nil; n = n.Parent {
		handler, ok := w.listeners[listenerKey{n, event}]
		if ok {
			if ctx == nil {
				ctx = w.ctx
			}
			_, span := telemetry.StartEvent(ctx, w.name, event)
			err := handler(Event{
				Type:    event,
				Target:  target,
				Current: n,
				Widget:  w,
				Data:    data,
			})
			telemetry.End(span, err)
			return true, err
		}
		if n == w.wrapper {
			break
		}
	}
	return false, nil
}

// PathOf returns the path of n below the wrapper of the widget owning it,
// for use with Dispatch.
func (h *Host) PathOf(n *html.Node) (widgetID string, path reconcile.Path, ok bool) {
	w, found := h.owners[n]
	if !found {
		return "", nil, false
	}
	for c := n; c != w.wrapper; c = c.Parent {
		if c == nil {
			return "", nil, false
		}
		path = append(path, markup.IndexOf(c))
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return w.id, path, true
}
