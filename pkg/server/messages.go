package server

import (
	"encoding/json"

	"github.com/plain-reactive/plain/pkg/reconcile"
	"github.com/plain-reactive/plain/pkg/widget"
)

// Message types on the websocket.
const (
	TypeEvent    = "event"
	TypeNavigate = "navigate"
	TypePatch    = "patch"
)

// ClientMessage is a message sent by the browser. Path is an index path
// for events and a URL path for navigation.
type ClientMessage struct {
	Type   string          `json:"type"`
	Widget string          `json:"widget,omitempty"`
	Path   json.RawMessage `json:"path,omitempty"`
	Event  string          `json:"event,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// IndexPath decodes Path as a node path.
func (m ClientMessage) IndexPath() (reconcile.Path, error) {
	var p []int
	if len(m.Path) == 0 {
		return reconcile.Path{}, nil
	}
	if err := json.Unmarshal(m.Path, &p); err != nil {
		return nil, err
	}
	return reconcile.Path(p), nil
}

// URLPath decodes Path as a string.
func (m ClientMessage) URLPath() (string, error) {
	var s string
	if err := json.Unmarshal(m.Path, &s); err != nil {
		return "", err
	}
	return s, nil
}

// PatchMessage carries one widget render to the browser: an edit script
// for the wrapper, or its full markup.
type PatchMessage struct {
	Type   string             `json:"type"`
	Widget string             `json:"widget"`
	Full   bool               `json:"full,omitempty"`
	Markup string             `json:"markup,omitempty"`
	Ops    []reconcile.EditOp `json:"ops,omitempty"`
}

func patchMessage(p widget.Patch) PatchMessage {
	return PatchMessage{
		Type:   TypePatch,
		Widget: p.Widget,
		Full:   p.Full,
		Markup: p.Markup,
		Ops:    p.Ops,
	}
}
