package store

import (
	"strings"

	"github.com/plain-reactive/plain/internal/errors"
)

// ErrInvalidTier is returned for an unrecognized persistence tier.
var ErrInvalidTier = errors.New(errors.CodeInvalidStoreTier)

// Tier selects the persistence backend for a namespace.
type Tier int

const (
	// Ephemeral entries last for the session (the process, by default).
	Ephemeral Tier = iota
	// Durable entries survive restarts.
	Durable
)

// String returns the tier name used in configuration.
func (t Tier) String() string {
	switch t {
	case Ephemeral:
		return "ephemeral"
	case Durable:
		return "durable"
	default:
		return "unknown"
	}
}

func (t Tier) valid() bool {
	return t == Ephemeral || t == Durable
}

// ParseTier converts a configuration string to a Tier. The browser-era
// names "session" and "local" are accepted as aliases.
func ParseTier(s string) (Tier, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "ephemeral", "session":
		return Ephemeral, nil
	case "durable", "local":
		return Durable, nil
	}
	return 0, invalidTier(s)
}

func invalidTier(v any) error {
	return errors.New(errors.CodeInvalidStoreTier).
		WithDetailf("%v", v).
		WithSuggestion(`Use "ephemeral" or "durable"`)
}
