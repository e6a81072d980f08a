package markup

import (
	"sort"
	"strings"

	"golang.org/x/net/html"
)

// Equivalent reports whether the subtrees below a and b are structurally
// equivalent: same node types and tags, the same attribute sets and the
// same text once surrounding whitespace is trimmed.
func Equivalent(a, b *html.Node) bool {
	ac, bc := Children(a), Children(b)
	if len(ac) != len(bc) {
		return false
	}
	for i := range ac {
		if !SameNode(ac[i], bc[i]) || !Equivalent(ac[i], bc[i]) {
			return false
		}
	}
	return true
}

// SameNode compares two nodes without looking at their children.
func SameNode(a, b *html.Node) bool {
	if a.Type != b.Type {
		return false
	}
	switch a.Type {
	case html.ElementNode:
		return a.Data == b.Data && SameAttrs(a, b)
	default:
		return strings.TrimSpace(a.Data) == strings.TrimSpace(b.Data)
	}
}

// SameAttrs reports whether a and b carry the same attribute names and values,
// regardless of order.
func SameAttrs(a, b *html.Node) bool {
	if len(a.Attr) != len(b.Attr) {
		return false
	}
	as, bs := sortedAttrs(a.Attr), sortedAttrs(b.Attr)
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}

func sortedAttrs(attrs []html.Attribute) []html.Attribute {
	out := make([]html.Attribute, len(attrs))
	copy(out, attrs)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Namespace != out[j].Namespace {
			return out[i].Namespace < out[j].Namespace
		}
		return out[i].Key < out[j].Key
	})
	return out
}
