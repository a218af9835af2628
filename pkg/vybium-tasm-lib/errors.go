package vybiumtasmlib

import "fmt"

// ErrorCode classifies a library error
type ErrorCode int

const (
	// ErrUnknown represents an unknown error
	ErrUnknown ErrorCode = iota

	// ErrUnknownSnippet is returned for entrypoints outside the catalog
	ErrUnknownSnippet

	// ErrLink represents a failure to resolve, link or assemble a snippet
	ErrLink

	// ErrExecution represents a VM execution fault
	ErrExecution

	// ErrInvalidInput represents an invalid input error
	ErrInvalidInput
)

func (c ErrorCode) String() string {
	switch c {
	case ErrUnknownSnippet:
		return "unknown snippet"
	case ErrLink:
		return "link"
	case ErrExecution:
		return "execution"
	case ErrInvalidInput:
		return "invalid input"
	default:
		return "unknown"
	}
}

// LibError is the error type returned by this package
type LibError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error returns the error message
func (e *LibError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("vybium-tasm-lib error [%s]: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("vybium-tasm-lib error [%s]: %s", e.Code, e.Message)
}

// Unwrap returns the cause of the error
func (e *LibError) Unwrap() error {
	return e.Cause
}

// Is matches any LibError carrying the same code
func (e *LibError) Is(target error) bool {
	t, ok := target.(*LibError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}
