package apperrors

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the transport layer. The transport maps each
// kind to a protocol status and only ever surfaces the safe Message; the
// wrapped cause stays in the logs.
type Kind string

const (
	KindValidation          Kind = "VALIDATION"
	KindNotFound            Kind = "NOT_FOUND"
	KindMalformedPayload    Kind = "MALFORMED_PAYLOAD"
	KindProviderUnavailable Kind = "PROVIDER_UNAVAILABLE"
	KindStorage             Kind = "STORAGE"
)

// Error carries a kind, a client-safe message and an internal cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an error with no wrapped cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an error around an internal cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func Validationf(format string, args ...interface{}) *Error {
	return New(KindValidation, fmt.Sprintf(format, args...))
}

func NotFoundf(format string, args ...interface{}) *Error {
	return New(KindNotFound, fmt.Sprintf(format, args...))
}

func MalformedPayloadf(format string, args ...interface{}) *Error {
	return New(KindMalformedPayload, fmt.Sprintf(format, args...))
}

func ProviderUnavailable(message string, err error) *Error {
	return Wrap(KindProviderUnavailable, message, err)
}

func Storage(message string, err error) *Error {
	return Wrap(KindStorage, message, err)
}

// KindOf returns the kind of err, or KindStorage for untyped errors so that
// unknown failures surface as server errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStorage
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// SafeMessage returns the client-visible message for err. Untyped errors get
// a generic message so storage internals never leak to clients.
func SafeMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal error"
}
