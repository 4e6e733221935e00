// Package perr defines the typed error taxonomy the planner surfaces to
// callers. Every error the core returns is one of these codes; nothing is
// swallowed or turned into a panic.
package perr

import "fmt"

// Code identifies the class of failure.
type Code string

const (
	ParseError        Code = "PARSE_ERROR"
	UnknownSymbol     Code = "UNKNOWN_SYMBOL"
	TypeMismatch      Code = "TYPE_MISMATCH"
	InvalidDomain     Code = "INVALID_DOMAIN"
	EventDivergence   Code = "EVENT_DIVERGENCE"
	PlannerInternal   Code = "PLANNER_INTERNAL"
)

// Error is the single error type returned by construction functions.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap allows errors.Is/errors.As to see through to the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// New builds an Error with no underlying cause.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an Error around an underlying cause.
func Wrap(code Code, err error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}
