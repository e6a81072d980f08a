package docs

import "github.com/plain-reactive/plain/pkg/widget"

// Tag is the element rendering the document named by its doc attribute.
const Tag = "plain-doc"

// Define registers Tag on host. Each element loads its document once and
// again only when its doc attribute changes.
func Define(host *widget.Host, l *Loader, opts ...widget.DefineOption) error {
	return host.Define(Tag, func(w *widget.Widget) widget.Component {
		return &element{w: w, loader: l}
	}, opts...)
}

type element struct {
	w      *widget.Widget
	loader *Loader
	id     string
	html   string
	loaded bool
}

func (e *element) Template() string {
	id := e.w.Attr("doc")
	if !e.loaded || id != e.id {
		e.id, e.html, e.loaded = id, e.loader.Load(e.w.Context(), id), true
	}
	return `<article class="doc">` + e.html + `</article>`
}
