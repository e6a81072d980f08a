package markup

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// NewContainer returns a detached <div> used as a fragment root.
func NewContainer() *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
	}
}

// Parse parses s as a fragment and returns a container holding the nodes.
func Parse(s string) (*html.Node, error) {
	root := NewContainer()
	if err := ParseInto(root, s); err != nil {
		return nil, err
	}
	return root, nil
}

// MustParse is like Parse but panics on error. Intended for tests and
// constant markup.
func MustParse(s string) *html.Node {
	root, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return root
}

// ParseInto replaces the children of root with the fragment parsed from s.
func ParseInto(root *html.Node, s string) error {
	nodes, err := html.ParseFragment(strings.NewReader(s), NewContainer())
	if err != nil {
		return fmt.Errorf("parse markup: %w", err)
	}
	RemoveChildren(root)
	for _, n := range nodes {
		root.AppendChild(n)
	}
	return nil
}

// Render serializes the children of root (its inner markup).
func Render(root *html.Node) string {
	if root == nil {
		return ""
	}
	var buf bytes.Buffer
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		// html.Render only fails on writer errors; bytes.Buffer never returns one.
		_ = html.Render(&buf, c)
	}
	return buf.String()
}

// RenderNode serializes n itself (its outer markup).
func RenderNode(n *html.Node) string {
	if n == nil {
		return ""
	}
	var buf bytes.Buffer
	_ = html.Render(&buf, n)
	return buf.String()
}

// Children returns the child nodes of n in order.
func Children(n *html.Node) []*html.Node {
	if n == nil {
		return nil
	}
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, c)
	}
	return out
}

// ChildAt returns the i-th child of n, or nil.
func ChildAt(n *html.Node, i int) *html.Node {
	if n == nil || i < 0 {
		return nil
	}
	c := n.FirstChild
	for ; c != nil && i > 0; i-- {
		c = c.NextSibling
	}
	return c
}

// IndexOf returns the position of child below its parent, or -1.
func IndexOf(child *html.Node) int {
	if child == nil || child.Parent == nil {
		return -1
	}
	i := 0
	for c := child.Parent.FirstChild; c != nil; c = c.NextSibling {
		if c == child {
			return i
		}
		i++
	}
	return -1
}

// RemoveChildren detaches every child of n.
func RemoveChildren(n *html.Node) {
	for c := n.FirstChild; c != nil; c = n.FirstChild {
		n.RemoveChild(c)
	}
}

// Clone returns a detached deep copy of n.
func Clone(n *html.Node) *html.Node {
	if n == nil {
		return nil
	}
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
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out.AppendChild(Clone(c))
	}
	return out
}

// Walk calls fn for every descendant of n in document order. Returning
// false from fn skips that node's children.
func Walk(n *html.Node, fn func(*html.Node) bool) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if fn(c) {
			Walk(c, fn)
		}
	}
}

// Attr returns the value of the named attribute.
func Attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttr sets or adds the named attribute.
func SetAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}
