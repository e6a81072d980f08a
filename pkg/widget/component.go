package widget

// Component supplies a widget's markup. Template must be deterministic for
// the component's current state and free of side effects.
type Component interface {
	Template() string
}

// Factory creates the component for a newly created widget. Signals are
// usually registered and stores opened here.
type Factory func(w *Widget) Component

// ListenerBinder binds event handlers after each render.
type ListenerBinder interface {
	Listeners(w *Widget)
}

// Connector connects to other widgets' signals after each render. Listeners
// the widget held on other buses are dropped just before Connect runs.
type Connector interface {
	Connect(w *Widget) error
}

// AttachHook runs once, after the first render.
type AttachHook interface {
	Attached(w *Widget)
}

// RenderHook runs after every render.
type RenderHook interface {
	Rendered(w *Widget)
}

// DetachHook runs before the widget is torn down.
type DetachHook interface {
	Detaching(w *Widget)
}
