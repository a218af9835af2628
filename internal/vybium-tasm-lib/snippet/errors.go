package snippet

import (
	"errors"
	"fmt"
)

// AssertionError is a declared crash condition of a reference behavior.
// ID matches the error id of the assertion that fails in the VM code.
type AssertionError struct {
	ID      uint64
	Message string
}

// Error returns the error message
func (e *AssertionError) Error() string {
	return fmt.Sprintf("assertion %d failed: %s", e.ID, e.Message)
}

// Is checks if the error matches the target error
func (e *AssertionError) Is(target error) bool {
	t, ok := target.(*AssertionError)
	if !ok {
		return false
	}
	return e.ID == t.ID
}

// Fail reports a declared crash condition
func Fail(id uint64, format string, args ...any) error {
	return &AssertionError{ID: id, Message: fmt.Sprintf(format, args...)}
}

// AssertionID extracts the id of a declared crash condition
func AssertionID(err error) (uint64, bool) {
	var ae *AssertionError
	if errors.As(err, &ae) {
		return ae.ID, true
	}
	return 0, false
}
