package errors

import (
	stderrors "errors"
	"fmt"
)

// Category represents the type of error.
type Category string

const (
	CategoryRuntime   Category = "runtime"
	CategoryStore     Category = "store"
	CategoryReconcile Category = "reconcile"
	CategoryResource  Category = "resource"
	CategoryWidget    Category = "widget"
	CategoryConfig    Category = "config"
)

// PlainError is a structured error with a code, an explanation and a hint.
type PlainError struct {
	// Code is a unique error identifier (e.g., "E001").
	Code string

	// Category is the error type (runtime, store, etc.).
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of this particular occurrence.
	Detail string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *PlainError) Error() string {
	msg := e.Message
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, msg)
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *PlainError) Unwrap() error {
	return e.Wrapped
}

// Is reports whether target is a *PlainError with the same code.
// Errors without a code only match themselves.
func (e *PlainError) Is(target error) bool {
	t, ok := target.(*PlainError)
	if !ok {
		return false
	}
	if e.Code == "" || t.Code == "" {
		return e == t
	}
	return e.Code == t.Code
}

// WithDetail adds a detailed explanation to the error.
func (e *PlainError) WithDetail(d string) *PlainError {
	e.Detail = d
	return e
}

// WithDetailf adds a formatted detail to the error.
func (e *PlainError) WithDetailf(format string, args ...any) *PlainError {
	e.Detail = fmt.Sprintf(format, args...)
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *PlainError) WithSuggestion(s string) *PlainError {
	e.Suggestion = s
	return e
}

// Wrap wraps another error.
func (e *PlainError) Wrap(err error) *PlainError {
	e.Wrapped = err
	return e
}

// New creates a PlainError from a registered error code.
func New(code string) *PlainError {
	template, ok := registry[code]
	if !ok {
		return &PlainError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &PlainError{
		Code:     code,
		Category: template.Category,
		Message:  template.Message,
	}
}

// Newf creates a new PlainError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *PlainError {
	return &PlainError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in a PlainError.
func FromError(err error, code string) *PlainError {
	if err == nil {
		return nil
	}
	var pe *PlainError
	if stderrors.As(err, &pe) {
		return pe
	}
	return New(code).Wrap(err)
}

// HasCode reports whether err, or any error it wraps, carries code.
func HasCode(err error, code string) bool {
	var pe *PlainError
	for err != nil {
		if stderrors.As(err, &pe) {
			if pe.Code == code {
				return true
			}
			err = pe.Wrapped
			continue
		}
		return false
	}
	return false
}
