// Package apperr defines the closed set of error kinds the backend reports to
// clients. Every failure that reaches the HTTP edge is classified into exactly
// one Kind; the wrapped cause is kept for logging and never shown to callers.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind uint8

const (
	// Internal is the zero value so unclassified errors fail closed.
	Internal Kind = iota
	InvalidInput
	DuplicateEmail
	InvalidCredentials
	Unauthenticated
	NotFound
	StoreUnavailable
	AnalyzerUnavailable
)

// Kinds lists every Kind, in declaration order.
var Kinds = []Kind{
	Internal,
	InvalidInput,
	DuplicateEmail,
	InvalidCredentials,
	Unauthenticated,
	NotFound,
	StoreUnavailable,
	AnalyzerUnavailable,
}

func (k Kind) String() string {
	switch k {
	case Internal:
		return "internal"
	case InvalidInput:
		return "invalid_input"
	case DuplicateEmail:
		return "duplicate_email"
	case InvalidCredentials:
		return "invalid_credentials"
	case Unauthenticated:
		return "unauthenticated"
	case NotFound:
		return "not_found"
	case StoreUnavailable:
		return "store_unavailable"
	case AnalyzerUnavailable:
		return "analyzer_unavailable"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Error is a classified failure. Msg is safe to show to clients; Err is not.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

// New returns an *Error without a cause. Sentinels are built with New and
// matched with errors.Is.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap classifies err. A nil err yields a nil error.
func Wrap(kind Kind, msg string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Msg: msg, Err: err}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Msg
	}
	return e.Msg + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf reports the Kind of the outermost *Error in err's chain, or Internal
// when there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Message returns the client-safe message for err.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Msg != "" {
		return e.Msg
	}
	return "internal server error"
}
