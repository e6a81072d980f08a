package widget

import (
	"bytes"
	"io"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// IDAttr is the attribute carrying a widget's id on its element in
// serialized output.
const IDAttr = "data-plain-id"

// RenderHTML serializes the document. Each widget's boundary is written as
// a declarative shadow root, <template shadowrootmode="open">, as the first
// child of its element.
func (h *Host) RenderHTML() string {
	var buf bytes.Buffer
	_ = h.WriteHTML(&buf)
	return buf.String()
}

// WriteHTML writes the output of RenderHTML to wr.
func (h *Host) WriteHTML(wr io.Writer) error {
	for c := h.document.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(wr, h.withShadow(c)); err != nil {
			return err
		}
	}
	return nil
}

// RenderWidget serializes one widget's element, shadow root included.
func (h *Host) RenderWidget(w *Widget) string {
	var buf bytes.Buffer
	_ = html.Render(&buf, h.withShadow(w.element))
	return buf.String()
}

// withShadow returns a detached copy of n with the boundaries of attached
// widgets inlined as template elements.
func (h *Host) withShadow(n *html.Node) *html.Node {
	out := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
	}
	if len(n.Attr) > 0 {
		out.Attr = make([]html.Attribute, len(n.Attr))
		copy(out.Attr, n.Attr)
	}
	if w, ok := h.byElement[n]; ok && w.shadow != nil {
		out.Attr = append(out.Attr, html.Attribute{Key: IDAttr, Val: w.id})
		tmpl := &html.Node{
			Type:     html.ElementNode,
			Data:     "template",
			DataAtom: atom.Template,
			Attr:     []html.Attribute{{Key: "shadowrootmode", Val: "open"}},
		}
		for c := w.shadow.FirstChild; c != nil; c = c.NextSibling {
			tmpl.AppendChild(h.withShadow(c))
		}
		out.AppendChild(tmpl)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out.AppendChild(h.withShadow(c))
	}
	return out
}
