package library

import (
	"errors"
	"fmt"
)

var (
	// ErrImportCycle is raised when a snippet imports itself, directly or
	// through its dependencies
	ErrImportCycle = errors.New("import cycle")

	// ErrInvalidBlock is returned for code blocks that break the block
	// conventions
	ErrInvalidBlock = errors.New("invalid code block")
)

// ConflictError reports two different code blocks registered under one
// entrypoint
type ConflictError struct {
	Entrypoint  string
	Registered  Fingerprint
	Regenerated Fingerprint
}

// Error returns the error message
func (e *ConflictError) Error() string {
	return fmt.Sprintf("registration conflict for %s: registered block %s, regenerated block %s",
		e.Entrypoint, e.Registered, e.Regenerated)
}
