package harness

import "fmt"

// Aspect names the part of the state a mismatch was found in
type Aspect string

const (
	AspectReference        Aspect = "reference"
	AspectExecution        Aspect = "execution"
	AspectStack            Aspect = "stack"
	AspectStackDelta       Aspect = "stack delta"
	AspectMemory           Aspect = "memory"
	AspectMemoryDiscipline Aspect = "memory discipline"
	AspectSponge           Aspect = "sponge"
	AspectOutput           Aspect = "standard output"
)

// MismatchError reports a disagreement between a snippet's code and its
// reference behavior. Seed reproduces the state; corner cases name their
// index instead.
type MismatchError struct {
	Entrypoint string
	Seed       string
	Aspect     Aspect
	Detail     string
}

// Error returns the error message
func (e *MismatchError) Error() string {
	return fmt.Sprintf("%s: %s mismatch (seed %s): %s", e.Entrypoint, e.Aspect, e.Seed, e.Detail)
}
