package reconcile

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/plain-reactive/plain/pkg/markup"
)

// OpKind is the type of edit operation.
type OpKind uint8

const (
	OpInsert              OpKind = iota + 1 // Insert a new subtree
	OpRemove                                // Remove a subtree
	OpReplaceByType                         // Node type or tag changed
	OpReplaceByAttributes                   // Attribute set changed
	OpUpdateText                            // Text payload changed
)

// String returns the wire name of the OpKind.
func (k OpKind) String() string {
	switch k {
	case OpInsert:
		return "insert"
	case OpRemove:
		return "remove"
	case OpReplaceByType:
		return "replace-type"
	case OpReplaceByAttributes:
		return "replace-attrs"
	case OpUpdateText:
		return "update-text"
	default:
		return "unknown"
	}
}

// ParseOpKind is the inverse of OpKind.String.
func ParseOpKind(s string) (OpKind, error) {
	for k := OpInsert; k <= OpUpdateText; k++ {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown edit op %q", s)
}

// Path is the sequence of child indices from the subtree root to a node.
// Example: [0, 2] means root -> child[0] -> child[2].
type Path []int

// Child returns a new path extended by index i.
func (p Path) Child(i int) Path {
	out := make(Path, len(p)+1)
	copy(out, p)
	out[len(p)] = i
	return out
}

// Parent returns the path of the parent node.
func (p Path) Parent() Path {
	if len(p) == 0 {
		return nil
	}
	return p[:len(p)-1]
}

// Last returns the index of the node within its parent, or -1 for the root.
func (p Path) Last() int {
	if len(p) == 0 {
		return -1
	}
	return p[len(p)-1]
}

// String renders the path as "/0/2". The root is "/".
func (p Path) String() string {
	if len(p) == 0 {
		return "/"
	}
	var b strings.Builder
	for _, i := range p {
		b.WriteByte('/')
		b.WriteString(strconv.Itoa(i))
	}
	return b.String()
}

// EditOp is a single node-level edit.
type EditOp struct {
	Kind OpKind
	Path Path

	// Node is the payload subtree for Insert and the Replace variants. It
	// belongs to the next snapshot and is cloned on Apply.
	Node *html.Node

	// Text is the new text payload for UpdateText.
	Text string
}

// String returns a short human-readable form, e.g. "insert /0/1 <li>2</li>".
func (op EditOp) String() string {
	switch op.Kind {
	case OpRemove:
		return op.Kind.String() + " " + op.Path.String()
	case OpUpdateText:
		return fmt.Sprintf("%s %s %q", op.Kind, op.Path, op.Text)
	default:
		return op.Kind.String() + " " + op.Path.String() + " " + markup.RenderNode(op.Node)
	}
}

type wireOp struct {
	Op     string `json:"op"`
	Path   []int  `json:"path"`
	Markup string `json:"markup,omitempty"`
	Text   string `json:"text,omitempty"`
}

// MarshalJSON encodes the op with its payload serialized as markup.
func (op EditOp) MarshalJSON() ([]byte, error) {
	w := wireOp{
		Op:   op.Kind.String(),
		Path: op.Path,
		Text: op.Text,
	}
	if w.Path == nil {
		w.Path = []int{}
	}
	if op.Node != nil {
		w.Markup = markup.RenderNode(op.Node)
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes an op produced by MarshalJSON.
func (op *EditOp) UnmarshalJSON(data []byte) error {
	var w wireOp
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	kind, err := ParseOpKind(w.Op)
	if err != nil {
		return err
	}
	*op = EditOp{Kind: kind, Path: Path(w.Path), Text: w.Text}
	if w.Markup != "" {
		root, err := markup.Parse(w.Markup)
		if err != nil {
			return err
		}
		if n := root.FirstChild; n != nil {
			root.RemoveChild(n)
			op.Node = n
		}
	}
	return nil
}
