// Package errors provides structured, coded errors for Plain.
//
// Every error raised by the framework carries a short code (e.g. "E001")
// registered in this package. The code maps to a category, a one-line
// message and a longer explanation, so the same failure reads the same
// way in logs, test failures and the CLI.
//
// # Error Categories
//
// Errors are organized into categories:
//   - runtime: signal registration and emission mistakes
//   - store: scoped store construction and persistence
//   - reconcile: edit scripts that cannot be applied to the live tree
//   - resource: stylesheets and documents that could not be fetched
//   - widget: lifecycle misuse (render after detach, unknown widgets)
//   - config: configuration file problems
//
// # Matching
//
// A *PlainError matches another *PlainError with the same code under
// errors.Is, so packages export sentinels built with New and callers test
// against them:
//
//	var ErrUnknownSignal = errors.New(errors.CodeUnknownSignal)
//
//	if stderrors.Is(err, signal.ErrUnknownSignal) { ... }
//
// # Usage
//
//	err := errors.New(errors.CodeDuplicateSignal).
//	    WithDetail(`"clicked" is already registered on "my-comp"`).
//	    WithSuggestion("Register each signal once, in the widget constructor")
//
//	fmt.Println(err.Format())
package errors
