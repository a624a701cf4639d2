package errorbank

import (
	"errors"
	"fmt"
)

// Kind enumerates supported pipeline error categories.
type Kind string

const (
	KindInvalidConfig  Kind = "invalid_config"
	KindIO             Kind = "io"
	KindMalformedInput Kind = "malformed_input"
	KindConstraint     Kind = "constraint"
	KindInternal       Kind = "internal"
)

// AppError captures rich error context shared across commands.
type AppError struct {
	kind    Kind
	message string
	details map[string]any
	cause   error
}

// Option mutates an AppError during construction.
type Option func(*AppError)

// WithCause attaches an underlying error.
func WithCause(err error) Option {
	return func(appErr *AppError) {
		appErr.cause = err
	}
}

// WithDetail adds a single named detail value.
func WithDetail(key string, value any) Option {
	return func(appErr *AppError) {
		if appErr.details == nil {
			appErr.details = make(map[string]any)
		}
		appErr.details[key] = value
	}
}

// New constructs a new AppError with the supplied kind and message.
func New(kind Kind, message string, opts ...Option) *AppError {
	if message == "" {
		message = string(kind)
	}
	appErr := &AppError{kind: kind, message: message}
	for _, opt := range opts {
		opt(appErr)
	}
	return appErr
}

// Error satisfies the error interface.
func (e *AppError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap exposes the wrapped cause for errors.Is/errors.As.
func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// Kind returns the error category.
func (e *AppError) Kind() Kind {
	if e == nil {
		return KindInternal
	}
	return e.kind
}

// Details returns optional metadata about the error.
func (e *AppError) Details() map[string]any {
	if e == nil {
		return nil
	}
	return e.details
}

// ExitCode resolves the process exit status for the error kind.
func (e *AppError) ExitCode() int {
	if e == nil {
		return 1
	}
	switch e.kind {
	case KindInvalidConfig:
		return 2
	case KindIO:
		return 3
	case KindMalformedInput:
		return 4
	case KindConstraint:
		return 5
	default:
		return 1
	}
}

// InvalidConfig constructs a configuration error.
func InvalidConfig(message string, opts ...Option) *AppError {
	return New(KindInvalidConfig, message, opts...)
}

// IO constructs a filesystem or connection error.
func IO(message string, opts ...Option) *AppError {
	return New(KindIO, message, opts...)
}

// Malformed constructs an error for input rows that cannot be decoded.
func Malformed(message string, opts ...Option) *AppError {
	return New(KindMalformedInput, message, opts...)
}

// Constraint constructs an error for rows rejected by the database.
func Constraint(message string, opts ...Option) *AppError {
	return New(KindConstraint, message, opts...)
}

// Internal constructs a generic error.
func Internal(message string, opts ...Option) *AppError {
	return New(KindInternal, message, opts...)
}

// From returns an AppError for any error input, wrapping unexpected values.
func From(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal("internal error", WithCause(err))
}

// Is reports whether err carries an AppError of the given kind.
func Is(err error, kind Kind) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.kind == kind
	}
	return false
}
