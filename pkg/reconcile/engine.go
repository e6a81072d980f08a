package reconcile

import (
	"log/slog"

	"golang.org/x/net/html"

	"github.com/plain-reactive/plain/internal/errors"
	"github.com/plain-reactive/plain/pkg/markup"
)

// Recorder receives counts of emitted and skipped edits. The telemetry
// package provides a Prometheus-backed implementation.
type Recorder interface {
	RecordEdit(kind string)
	RecordSkip(kind string)
}

// Engine diffs snapshots and applies edit scripts. The zero value is not
// usable; construct one with New. An Engine holds no per-render state and
// may be shared between widgets.
type Engine struct {
	logger   *slog.Logger
	strict   bool
	recorder Recorder
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for skipped-edit diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithStrictAttributes makes the diff compare attribute names and values,
// not only their count.
func WithStrictAttributes() Option {
	return func(e *Engine) {
		e.strict = true
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) {
		e.recorder = r
	}
}

// New creates an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Strict reports whether the engine compares attribute values.
func (e *Engine) Strict() bool {
	return e.strict
}

// Diff parses both snapshots and returns the edits that turn prev into next.
func (e *Engine) Diff(prev, next string) ([]EditOp, error) {
	prevRoot, err := markup.Parse(prev)
	if err != nil {
		return nil, errors.New(errors.CodeMalformedMarkup).WithDetail("previous snapshot").Wrap(err)
	}
	nextRoot, err := markup.Parse(next)
	if err != nil {
		return nil, errors.New(errors.CodeMalformedMarkup).WithDetail("next snapshot").Wrap(err)
	}
	return e.DiffNodes(prevRoot, nextRoot), nil
}

var defaultEngine = New()

// Diff computes the edit script between two snapshots with default options.
func Diff(prev, next string) ([]EditOp, error) {
	return defaultEngine.Diff(prev, next)
}

// DiffNodes computes the edit script between two parsed snapshots with
// default options.
func DiffNodes(prev, next *html.Node) []EditOp {
	return defaultEngine.DiffNodes(prev, next)
}

// Apply runs ops against root with default options.
func Apply(root *html.Node, ops []EditOp) Result {
	return defaultEngine.Apply(root, ops)
}
