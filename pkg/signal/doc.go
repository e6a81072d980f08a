// Package signal provides owner-scoped, typed event buses for widgets.
//
// Each widget owns a Bus. A signal is identified by a typed Key rather than
// a bare string, and callbacks are plain function values:
//
//	var Clicked = signal.NewKey[int]("clicked")
//
//	// emitter
//	signal.Register(button.Bus(), Clicked)
//	signal.Emit(button.Bus(), Clicked, 3)
//
//	// subscriber
//	signal.Connect(counter.Bus(), button.Bus(), Clicked, func(n int) {
//	    counter.Render(false)
//	})
//
// A key must be registered exactly once on the emitting bus before anything
// connects to or emits it. Emit runs every callback synchronously in
// connection order. Callbacks may emit on other buses or render widgets;
// the bus takes no lock while callbacks run and performs no cycle detection.
package signal
