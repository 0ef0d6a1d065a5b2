// Package errors provides structured error handling with i18n support.
package errors

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Engine errors
	CodePathNotFound    Code = "PATH_NOT_FOUND"
	CodeIndexOutOfRange Code = "INDEX_OUT_OF_RANGE"

	// Grammar errors
	CodeMalformedExpression Code = "MALFORMED_EXPRESSION"
	CodeMalformedTemplate   Code = "MALFORMED_TEMPLATE"
	CodeMalformedReference  Code = "MALFORMED_REFERENCE"

	// Definition errors
	CodeInvalidDefinition Code = "INVALID_DEFINITION"
	CodeInvalidPath       Code = "INVALID_PATH"
)

// Recoverable reports whether an error with this code is handled locally by
// callers (stale affordances, bad definitions) instead of aborting a session.
func (c Code) Recoverable() bool {
	switch c {
	case CodeIndexOutOfRange,
		CodeMalformedExpression,
		CodeMalformedTemplate,
		CodeMalformedReference,
		CodeInvalidDefinition,
		CodeInvalidPath:
		return true
	default:
		return false
	}
}
