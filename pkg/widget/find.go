package widget

import (
	"github.com/ericchiang/css"
	"golang.org/x/net/html"

	"github.com/plain-reactive/plain/pkg/markup"
)

// Find returns the first element in the widget's boundary matching
// selector, or nil. Nodes inside descendant widgets are never matched, and
// an invalid selector matches nothing.
func (w *Widget) Find(selector string) *html.Node {
	all := w.FindAll(selector)
	if len(all) == 0 {
		return nil
	}
	return all[0]
}

// FindAll returns the elements in the widget's boundary matching selector,
// in document order. The result is empty, never nil, when nothing matches.
func (w *Widget) FindAll(selector string) []*html.Node {
	out := []*html.Node{}
	if w.shadow == nil {
		return out
	}
	sel, err := css.Parse(selector)
	if err != nil {
		w.host.logger.Debug("widget: invalid selector", "widget", w.id, "selector", selector, "error", err)
		return out
	}
	matched := make(map[*html.Node]bool)
	for _, n := range sel.Select(w.shadow) {
		matched[n] = true
	}
	markup.Walk(w.shadow, func(n *html.Node) bool {
		if matched[n] {
			out = append(out, n)
		}
		return true
	})
	return out
}
