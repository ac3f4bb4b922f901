package engine

import (
	"errors"
	"fmt"
)

// Kind classifies an engine failure for transport-layer mapping.
type Kind int

const (
	// KindNotFound covers missing entities, unconfigured singletons and
	// labels, and unknown custom actions.
	KindNotFound Kind = iota
	// KindNotAvailable covers actions disabled by resource configuration.
	KindNotAvailable
	// KindAuthorization covers unavailable or non-writable attributes.
	KindAuthorization
	// KindConflict covers document type/id mismatches against the endpoint.
	KindConflict
	// KindRequest covers malformed request shapes: arrays where a single
	// document was expected, mixed bulk-selector criteria, unknown fields.
	KindRequest
	// KindIntegrity covers resource misconfiguration discovered at runtime,
	// such as a plural relationship getter yielding a non-array.
	KindIntegrity
)

// String returns the string representation of the error kind.
func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindNotAvailable:
		return "not_available"
	case KindAuthorization:
		return "authorization"
	case KindConflict:
		return "conflict"
	case KindRequest:
		return "request"
	case KindIntegrity:
		return "integrity"
	default:
		return "unknown"
	}
}

// Error is a typed, structured engine failure. Every error carries a kind and
// a numeric status-like classification so the transport layer can map it
// without string matching.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap exposes the wrapped cause, if any.
func (e *Error) Unwrap() error {
	return e.cause
}

// NotFound creates a 404-class error.
func NotFound(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Status: 404, Message: fmt.Sprintf(format, args...)}
}

// NotAvailable creates a 405-class error for disabled actions.
func NotAvailable(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotAvailable, Status: 405, Message: fmt.Sprintf(format, args...)}
}

// Forbidden creates a 403-class authorization error.
func Forbidden(format string, args ...interface{}) *Error {
	return &Error{Kind: KindAuthorization, Status: 403, Message: fmt.Sprintf(format, args...)}
}

// Conflict creates a 409-class error.
func Conflict(format string, args ...interface{}) *Error {
	return &Error{Kind: KindConflict, Status: 409, Message: fmt.Sprintf(format, args...)}
}

// BadRequest creates a 400-class request-shape error.
func BadRequest(format string, args ...interface{}) *Error {
	return &Error{Kind: KindRequest, Status: 400, Message: fmt.Sprintf(format, args...)}
}

// Integrity creates a 500-class configuration-integrity error.
func Integrity(format string, args ...interface{}) *Error {
	return &Error{Kind: KindIntegrity, Status: 500, Message: fmt.Sprintf(format, args...)}
}

// WithCause attaches a wrapped cause to the error.
func (e *Error) WithCause(err error) *Error {
	e.cause = err
	return e
}

// KindOf returns the kind of an engine error, or ok=false for foreign errors.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// StatusOf returns the status classification of an error, defaulting to 500
// for errors that did not originate in the engine.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return 500
}

// IsNotFound reports whether the error is a not-found engine error.
func IsNotFound(err error) bool {
	k, ok := KindOf(err)
	return ok && k == KindNotFound
}

// IsAuthorization reports whether the error is an authorization engine error.
func IsAuthorization(err error) bool {
	k, ok := KindOf(err)
	return ok && k == KindAuthorization
}

// IsConflict reports whether the error is a conflict engine error.
func IsConflict(err error) bool {
	k, ok := KindOf(err)
	return ok && k == KindConflict
}

// IsRequest reports whether the error is a request-shape engine error.
func IsRequest(err error) bool {
	k, ok := KindOf(err)
	return ok && k == KindRequest
}

// IsIntegrity reports whether the error is an integrity engine error.
func IsIntegrity(err error) bool {
	k, ok := KindOf(err)
	return ok && k == KindIntegrity
}
