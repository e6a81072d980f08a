package reconcile

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/plain-reactive/plain/pkg/markup"
)

// pair is one entry of the breadth-first work queue.
type pair struct {
	prev, next *html.Node
	path       Path
}

// DiffNodes compares the children of two fragment roots breadth-first and
// returns the edit script. The roots themselves are never edited.
func (e *Engine) DiffNodes(prev, next *html.Node) []EditOp {
	var ops []EditOp
	queue := e.enqueueChildren(nil, prev, next, nil)

	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]

		op, descend := e.compare(p)
		if op != nil {
			ops = append(ops, *op)
			if e.recorder != nil {
				e.recorder.RecordEdit(op.Kind.String())
			}
		}
		if descend {
			queue = e.enqueueChildren(queue, p.prev, p.next, p.path)
		}
	}
	return ops
}

// compare applies the per-pair rules. It returns the edit for the pair, if
// any, and whether the children should be visited.
func (e *Engine) compare(p pair) (*EditOp, bool) {
	switch {
	case p.prev == nil:
		return &EditOp{Kind: OpInsert, Path: p.path, Node: p.next}, false
	case p.next == nil:
		return &EditOp{Kind: OpRemove, Path: p.path}, false
	case !sameKind(p.prev, p.next):
		return &EditOp{Kind: OpReplaceByType, Path: p.path, Node: p.next}, false
	}

	if p.prev.Type != html.ElementNode {
		if strings.TrimSpace(p.prev.Data) != strings.TrimSpace(p.next.Data) {
			return &EditOp{Kind: OpUpdateText, Path: p.path, Text: p.next.Data}, false
		}
		return nil, false
	}

	if len(p.prev.Attr) != len(p.next.Attr) || (e.strict && !markup.SameAttrs(p.prev, p.next)) {
		return &EditOp{Kind: OpReplaceByAttributes, Path: p.path, Node: p.next}, false
	}
	return nil, true
}

// enqueueChildren appends the child pairs of prev and next, indexed
// 0..max(len)-1, to queue.
func (e *Engine) enqueueChildren(queue []pair, prev, next *html.Node, path Path) []pair {
	pc, nc := markup.Children(prev), markup.Children(next)
	n := max(len(pc), len(nc))
	for i := 0; i < n; i++ {
		var p pair
		if i < len(pc) {
			p.prev = pc[i]
		}
		if i < len(nc) {
			p.next = nc[i]
		}
		p.path = path.Child(i)
		queue = append(queue, p)
	}
	return queue
}

// sameKind reports whether two nodes are the same node type and, for
// elements, the same tag.
func sameKind(a, b *html.Node) bool {
	if a.Type != b.Type {
		return false
	}
	if a.Type == html.ElementNode {
		return a.Data == b.Data && a.Namespace == b.Namespace
	}
	return true
}
