// Package widget implements encapsulated widgets on custom elements.
//
// A Host plays the part of the browser document. Widgets are defined per
// custom element tag; whenever a registered tag appears in a rendered tree
// the host creates and attaches a widget for it, and when the element
// leaves the tree the widget is detached.
//
// Each widget renders into its own boundary, a shadow container holding a
// <style> element and a wrapper <div class="{name}-wrapper">. The first
// render replaces the wrapper's content wholesale; later renders diff the
// previous markup snapshot against the new one and apply the edit script in
// place, so untouched nodes (and the handlers bound to them) survive.
//
// A component supplies the template and, optionally, lifecycle hooks:
//
//	type counter struct {
//	    w *widget.Widget
//	    n *state.Cell[int]
//	}
//
//	func (c *counter) Template() string {
//	    return markup.HTML(`<button>+</button><span>%v</span>`, c.n.Get())
//	}
//
//	func (c *counter) Listeners(w *widget.Widget) {
//	    w.On(w.Find("button"), "click", func(widget.Event) error {
//	        return c.n.Update(func(v int) int { return v + 1 }, true)
//	    })
//	}
//
//	host.Define("x-counter", func(w *widget.Widget) widget.Component {
//	    c := &counter{w: w}
//	    c.n = state.New(0, w)
//	    return c
//	})
//
// A Host is not safe for concurrent use; serialize access with a mutex when
// events arrive from several goroutines.
package widget
