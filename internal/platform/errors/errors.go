package errors

import (
	stderrors "errors"
	"fmt"
)

// NoPosition marks an error that is not tied to an input offset.
const NoPosition = -1

// Error is the domain error type with structured metadata.
type Error struct {
	Code     Code              // Machine-readable error code
	Message  string            // Internal message (for logs)
	Metadata map[string]string // Additional context for templating
	Position int               // Byte offset into the parsed input, or NoPosition
	Cause    error             // Wrapped underlying error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Position >= 0 {
		return fmt.Sprintf("%s at %d", e.Message, e.Position)
	}
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates a simple domain error with a code and message.
func New(code Code, message string) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Position: NoPosition,
	}
}

// Syntax creates a grammar error anchored at a byte offset of the input.
func Syntax(code Code, position int, message string) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Position: position,
	}
}

// WithMetadata creates a domain error with metadata for i18n templating.
func WithMetadata(code Code, message string, metadata map[string]string) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Metadata: metadata,
		Position: NoPosition,
	}
}

// Wrap creates a domain error that wraps an underlying cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Position: NoPosition,
		Cause:    cause,
	}
}

// WrapWithMetadata creates a domain error with both metadata and a cause.
func WrapWithMetadata(code Code, message string, metadata map[string]string, cause error) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Metadata: metadata,
		Position: NoPosition,
		Cause:    cause,
	}
}

// Shift returns a copy of err whose positioned domain error is moved by
// offset, used when a fragment of a larger input was parsed on its own.
// Domain wrappers without a position are copied with a shifted cause.
func Shift(err error, offset int) error {
	var domainErr *Error
	if !stderrors.As(err, &domainErr) {
		return err
	}
	if domainErr.Position >= 0 {
		shifted := *domainErr
		shifted.Position += offset
		return &shifted
	}
	if positioned(domainErr.Cause) == nil {
		return err
	}
	wrapped := *domainErr
	wrapped.Cause = Shift(domainErr.Cause, offset)
	return &wrapped
}

// positioned returns the first domain error in the chain that carries an
// input offset.
func positioned(err error) *Error {
	for err != nil {
		var domainErr *Error
		if !stderrors.As(err, &domainErr) {
			return nil
		}
		if domainErr.Position >= 0 {
			return domainErr
		}
		err = domainErr.Cause
	}
	return nil
}

// GetCode returns the code of the first domain error in the chain, or
// CodeUnknown.
func GetCode(err error) Code {
	var domainErr *Error
	if stderrors.As(err, &domainErr) {
		return domainErr.Code
	}
	return CodeUnknown
}

// GetPosition returns the input offset of the first positioned domain error
// in the chain. Wrappers such as INVALID_DEFINITION carry no position of
// their own and are skipped.
func GetPosition(err error) (int, bool) {
	if domainErr := positioned(err); domainErr != nil {
		return domainErr.Position, true
	}
	return 0, false
}
