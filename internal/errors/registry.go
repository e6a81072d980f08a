package errors

// Registered error codes.
const (
	CodeDuplicateSignal  = "E001"
	CodeUnknownSignal    = "E002"
	CodeInvalidStoreTier = "E010"
	CodeStaleStore       = "E011"
	CodeStoreBackend     = "E012"
	CodeUnresolvedPath   = "E020"
	CodeMalformedMarkup  = "E021"
	CodeMissingStyle     = "E030"
	CodeFetchFailed      = "E031"
	CodeWidgetDetached   = "E040"
	CodeUnknownWidget    = "E041"
	CodeDuplicateElement = "E042"
	CodeConfigNotFound   = "E050"
	CodeConfigInvalid    = "E051"
)

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Signals (E001-E009)
	// ============================================

	CodeDuplicateSignal: {
		Category: CategoryRuntime,
		Message:  "Signal already registered",
		Detail:   "A signal can be registered only once per bus. Registering it again is a programming error.",
	},
	CodeUnknownSignal: {
		Category: CategoryRuntime,
		Message:  "Signal not registered",
		Detail:   "Signals must be registered on the emitting bus before anything connects to or emits them.",
	},

	// ============================================
	// Scoped stores (E010-E019)
	// ============================================

	CodeInvalidStoreTier: {
		Category: CategoryStore,
		Message:  "Invalid store tier",
		Detail:   "Stores are backed by the ephemeral (per-session) or durable (per-device) tier.",
	},
	CodeStaleStore: {
		Category: CategoryStore,
		Message:  "Store handle used after Clear",
		Detail:   "Clear removes the namespace. Open the namespace again to get a live handle.",
	},
	CodeStoreBackend: {
		Category: CategoryStore,
		Message:  "Store backend failure",
		Detail:   "The persistence tier could not read or write the namespace entry.",
	},

	// ============================================
	// Reconciliation (E020-E029)
	// ============================================

	CodeUnresolvedPath: {
		Category: CategoryReconcile,
		Message:  "Edit path does not resolve",
		Detail:   "The edit targets a node that no longer exists in the live tree. The edit is skipped.",
	},
	CodeMalformedMarkup: {
		Category: CategoryReconcile,
		Message:  "Markup could not be parsed",
		Detail:   "The template returned markup the HTML parser rejected.",
	},

	// ============================================
	// Resources (E030-E039)
	// ============================================

	CodeMissingStyle: {
		Category: CategoryResource,
		Message:  "Missing stylesheet",
		Detail:   "No stylesheet was supplied or it could not be fetched. The widget renders unstyled.",
	},
	CodeFetchFailed: {
		Category: CategoryResource,
		Message:  "Fetch failed",
		Detail:   "The resource could not be retrieved. A fallback value is used instead.",
	},

	// ============================================
	// Widgets (E040-E049)
	// ============================================

	CodeWidgetDetached: {
		Category: CategoryWidget,
		Message:  "Widget is detached",
		Detail:   "A widget must not be rendered after the host detached it.",
	},
	CodeUnknownWidget: {
		Category: CategoryWidget,
		Message:  "Unknown widget",
		Detail:   "No widget with this tag or id is known to the host.",
	},
	CodeDuplicateElement: {
		Category: CategoryWidget,
		Message:  "Element already defined",
		Detail:   "A custom element tag can be defined only once per host.",
	},

	// ============================================
	// Configuration (E050-E059)
	// ============================================

	CodeConfigNotFound: {
		Category: CategoryConfig,
		Message:  "Configuration file not found",
		Detail:   "Neither plain.json nor plain.yaml exists in the project directory.",
	},
	CodeConfigInvalid: {
		Category: CategoryConfig,
		Message:  "Invalid configuration",
		Detail:   "The configuration file could not be parsed or contains invalid values.",
	},
}

// GetAllCodes returns all registered error codes.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}
