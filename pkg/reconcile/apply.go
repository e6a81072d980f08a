package reconcile

import (
	"fmt"

	"golang.org/x/net/html"

	"github.com/plain-reactive/plain/internal/errors"
	"github.com/plain-reactive/plain/pkg/markup"
)

// Result summarizes an Apply call.
type Result struct {
	Applied int
	Skipped int
}

// Apply runs ops in order against the live subtree below root. Ops that
// cannot be resolved are logged and skipped.
func (e *Engine) Apply(root *html.Node, ops []EditOp) Result {
	var res Result
	l := ledger{}
	for _, op := range ops {
		if err := e.applyOne(root, op, l); err != nil {
			res.Skipped++
			e.logger.Warn("reconcile: skipping edit",
				"op", op.Kind.String(),
				"path", op.Path.String(),
				"code", errors.CodeUnresolvedPath,
				"error", err)
			if e.recorder != nil {
				e.recorder.RecordSkip(op.Kind.String())
			}
			continue
		}
		res.Applied++
	}
	return res
}

func (e *Engine) applyOne(root *html.Node, op EditOp, l ledger) error {
	if len(op.Path) == 0 {
		return unresolved(op, "edit targets the subtree root")
	}
	parent, err := l.walk(root, op.Path.Parent())
	if err != nil {
		return unresolved(op, err.Error())
	}
	idx := op.Path.Last()

	switch op.Kind {
	case OpInsert:
		if op.Node == nil {
			return unresolved(op, "insert without payload")
		}
		// Lands after earlier inserts at idx and before the node that held idx.
		ref := markup.ChildAt(parent, l.position(parent, idx))
		clone := markup.Clone(op.Node)
		if ref == nil {
			parent.AppendChild(clone)
		} else {
			parent.InsertBefore(clone, ref)
		}
		l.slot(parent).inserted = append(l.slot(parent).inserted, idx)

	case OpRemove:
		target, err := l.child(parent, idx)
		if err != nil {
			return unresolved(op, err.Error())
		}
		parent.RemoveChild(target)
		l.slot(parent).void[idx] = voidRemoved

	case OpReplaceByType, OpReplaceByAttributes:
		if op.Node == nil {
			return unresolved(op, "replace without payload")
		}
		target, err := l.child(parent, idx)
		if err != nil {
			return unresolved(op, err.Error())
		}
		parent.InsertBefore(markup.Clone(op.Node), target)
		parent.RemoveChild(target)
		l.slot(parent).void[idx] = voidReplaced

	case OpUpdateText:
		target, err := l.child(parent, idx)
		if err != nil {
			return unresolved(op, err.Error())
		}
		if target.Type == html.ElementNode {
			return unresolved(op, "text update on element <"+target.Data+">")
		}
		target.Data = op.Text

	default:
		return unresolved(op, fmt.Sprintf("unknown op kind %d", op.Kind))
	}
	return nil
}

func unresolved(op EditOp, detail string) error {
	return errors.New(errors.CodeUnresolvedPath).WithDetailf("%s %s: %s", op.Kind, op.Path, detail)
}

type voidReason uint8

const (
	voidRemoved voidReason = iota + 1
	voidReplaced
)

// slot records what already happened below one live parent, keyed by
// previous-tree child index.
type slot struct {
	void     map[int]voidReason
	inserted []int
}

// ledger maps live parent nodes to their slots.
type ledger map[*html.Node]*slot

func (l ledger) slot(parent *html.Node) *slot {
	s := l[parent]
	if s == nil {
		s = &slot{void: map[int]voidReason{}}
		l[parent] = s
	}
	return s
}

// position translates a previous-tree index into the current child
// position below parent.
func (l ledger) position(parent *html.Node, idx int) int {
	s := l[parent]
	if s == nil {
		return idx
	}
	pos := idx
	for i, reason := range s.void {
		if reason == voidRemoved && i < idx {
			pos--
		}
	}
	for _, i := range s.inserted {
		if i <= idx {
			pos++
		}
	}
	return pos
}

// child resolves the live node that held previous-tree index idx.
func (l ledger) child(parent *html.Node, idx int) (*html.Node, error) {
	if s := l[parent]; s != nil {
		switch s.void[idx] {
		case voidRemoved:
			return nil, fmt.Errorf("node %d was removed", idx)
		case voidReplaced:
			return nil, fmt.Errorf("node %d was replaced", idx)
		}
	}
	n := markup.ChildAt(parent, l.position(parent, idx))
	if n == nil {
		return nil, fmt.Errorf("no child at index %d", idx)
	}
	return n, nil
}

// walk resolves the node at path below root.
func (l ledger) walk(root *html.Node, path Path) (*html.Node, error) {
	cur := root
	for depth, idx := range path {
		n, err := l.child(cur, idx)
		if err != nil {
			return nil, fmt.Errorf("parent %s: %w", path[:depth+1], err)
		}
		cur = n
	}
	return cur, nil
}
