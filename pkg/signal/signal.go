package signal

import (
	"sync"

	"github.com/plain-reactive/plain/internal/errors"
)

var (
	// ErrDuplicateSignal is returned when a key is registered twice on a bus.
	ErrDuplicateSignal = errors.New(errors.CodeDuplicateSignal)

	// ErrUnknownSignal is returned when connecting to or emitting a key that
	// was never registered on the bus.
	ErrUnknownSignal = errors.New(errors.CodeUnknownSignal)
)

// Key is a typed signal token. Two keys with the same name are distinct
// signals; identity is the pointer.
type Key[T any] struct {
	name string
}

// NewKey creates a signal key carrying payloads of type T. Use struct{}
// for signals without a payload.
func NewKey[T any](name string) *Key[T] {
	return &Key[T]{name: name}
}

// Name returns the signal name used in diagnostics.
func (k *Key[T]) Name() string {
	return k.name
}

// Recorder receives emission counts. The telemetry package provides a
// Prometheus-backed implementation.
type Recorder interface {
	RecordEmit(signal string, listeners int)
}

// listener is one connected callback.
type listener struct {
	subscriber *Bus
	fn         func(any)
}

// entry is a registered signal with its listeners in connection order.
type entry struct {
	name      string
	listeners []listener
}

// Bus is the per-owner signal registry.
type Bus struct {
	owner    string
	recorder Recorder

	mu      sync.Mutex
	signals map[any]*entry
	targets map[*Bus]struct{} // buses this bus has listeners on
}

// Option configures a Bus.
type Option func(*Bus)

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(b *Bus) {
		b.recorder = r
	}
}

// NewBus creates a bus owned by the named widget.
func NewBus(owner string, opts ...Option) *Bus {
	b := &Bus{
		owner:   owner,
		signals: make(map[any]*entry),
		targets: make(map[*Bus]struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Owner returns the name of the owning widget.
func (b *Bus) Owner() string {
	return b.owner
}

// Registered reports whether the named signal exists on the bus.
func (b *Bus) Registered(name string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, e := range b.signals {
		if e.name == name {
			return true
		}
	}
	return false
}

// Listeners returns how many callbacks are connected to k.
func Listeners[T any](b *Bus, k *Key[T]) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if e, ok := b.signals[k]; ok {
		return len(e.listeners)
	}
	return 0
}

// Register declares k on b. It fails with ErrDuplicateSignal if k is
// already registered.
func Register[T any](b *Bus, k *Key[T]) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.signals[k]; ok {
		return errors.New(errors.CodeDuplicateSignal).
			WithDetailf("%q on %q", k.name, b.owner).
			WithSuggestion("Register each signal once, when the widget is constructed")
	}
	b.signals[k] = &entry{name: k.name}
	return nil
}

// Connect adds fn as a listener for k on target, recorded as coming from
// subscriber. It fails with ErrUnknownSignal if k is not registered on
// target.
func Connect[T any](subscriber, target *Bus, k *Key[T], fn func(T)) error {
	target.mu.Lock()
	e, ok := target.signals[k]
	if !ok {
		target.mu.Unlock()
		return unknown(target, k.name)
	}
	e.listeners = append(e.listeners, listener{
		subscriber: subscriber,
		fn:         func(v any) { fn(v.(T)) },
	})
	target.mu.Unlock()

	if subscriber != nil && subscriber != target {
		subscriber.mu.Lock()
		subscriber.targets[target] = struct{}{}
		subscriber.mu.Unlock()
	}
	return nil
}

// Emit calls every listener of k on b, in connection order, with arg. It
// fails with ErrUnknownSignal if k is not registered on b. Listeners
// connected while Emit runs are not called by this emission.
func Emit[T any](b *Bus, k *Key[T], arg T) error {
	b.mu.Lock()
	e, ok := b.signals[k]
	if !ok {
		b.mu.Unlock()
		return unknown(b, k.name)
	}
	listeners := make([]listener, len(e.listeners))
	copy(listeners, e.listeners)
	b.mu.Unlock()

	if b.recorder != nil {
		b.recorder.RecordEmit(k.name, len(listeners))
	}
	for _, l := range listeners {
		l.fn(arg)
	}
	return nil
}

// Disconnect removes every listener subscriber holds on b and returns how
// many were removed.
func (b *Bus) Disconnect(subscriber *Bus) int {
	b.mu.Lock()
	removed := 0
	for _, e := range b.signals {
		kept := e.listeners[:0]
		for _, l := range e.listeners {
			if l.subscriber == subscriber {
				removed++
				continue
			}
			kept = append(kept, l)
		}
		// Clear the tail so dropped callbacks can be collected.
		for i := len(kept); i < len(e.listeners); i++ {
			e.listeners[i] = listener{}
		}
		e.listeners = kept
	}
	b.mu.Unlock()

	if subscriber != nil && subscriber != b {
		subscriber.mu.Lock()
		delete(subscriber.targets, b)
		subscriber.mu.Unlock()
	}
	return removed
}

// Close removes the listeners b holds, on other buses and on itself.
// Signals registered on b stay registered.
func (b *Bus) Close() {
	b.mu.Lock()
	targets := make([]*Bus, 0, len(b.targets)+1)
	for t := range b.targets {
		targets = append(targets, t)
	}
	targets = append(targets, b)
	b.mu.Unlock()

	for _, t := range targets {
		t.Disconnect(b)
	}
}

func unknown(b *Bus, name string) error {
	return errors.New(errors.CodeUnknownSignal).
		WithDetailf("%q on %q", name, b.owner).
		WithSuggestion("Register the signal on the emitting widget's bus first")
}
