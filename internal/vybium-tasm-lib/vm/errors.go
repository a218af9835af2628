package vm

import "fmt"

// ErrorKind classifies execution faults. An ErrorKind is itself an error,
// so callers can match faults with errors.Is(err, vm.AssertionFailed).
type ErrorKind int

const (
	AssertionFailed ErrorKind = iota + 1
	VectorAssertionFailed
	OpStackTooShallow
	FailedU32Conversion
	InverseOfZero
	DivisionByZero
	LogarithmOfZero
	JumpStackIsEmpty
	EmptySecretInput
	EmptyDigestInput
	EmptyStandardInput
	InstructionPointerOverflow
	SpongeNotInitialized
	CycleLimitExceeded
	InvalidArgument
	MachineHalted
)

var errorKindNames = map[ErrorKind]string{
	AssertionFailed:            "assertion failed",
	VectorAssertionFailed:      "vector assertion failed",
	OpStackTooShallow:          "op stack too shallow",
	FailedU32Conversion:        "failed u32 conversion",
	InverseOfZero:              "inverse of zero",
	DivisionByZero:             "division by zero",
	LogarithmOfZero:            "logarithm of zero",
	JumpStackIsEmpty:           "jump stack is empty",
	EmptySecretInput:           "secret input exhausted",
	EmptyDigestInput:           "secret digests exhausted",
	EmptyStandardInput:         "standard input exhausted",
	InstructionPointerOverflow: "instruction pointer overflow",
	SpongeNotInitialized:       "sponge not initialized",
	CycleLimitExceeded:         "cycle limit exceeded",
	InvalidArgument:            "invalid instruction argument",
	MachineHalted:              "machine already halted",
}

// Error implements error
func (k ErrorKind) Error() string {
	if name, ok := errorKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("unknown fault (%d)", int(k))
}

// InstructionError is a fault raised while executing an instruction
type InstructionError struct {
	Kind        ErrorKind
	Instruction Instruction
	IP          int
	Cycle       uint64

	// ErrorID is set for failed assertions that carry an id
	ErrorID *uint64

	Detail string
}

// Error returns the error message
func (e *InstructionError) Error() string {
	msg := fmt.Sprintf("%s at cycle %d, IP %d (%s)", e.Kind.Error(), e.Cycle, e.IP, e.Instruction.String())
	if e.ErrorID != nil {
		msg = fmt.Sprintf("%s, error id %d", msg, *e.ErrorID)
	}
	if e.Detail != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Detail)
	}
	return msg
}

// Unwrap returns the fault kind
func (e *InstructionError) Unwrap() error {
	return e.Kind
}

// Is checks if the error matches the target error
func (e *InstructionError) Is(target error) bool {
	t, ok := target.(*InstructionError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// AssertionID returns the id of a failed assertion, if any
func (e *InstructionError) AssertionID() (uint64, bool) {
	if e.ErrorID == nil {
		return 0, false
	}
	return *e.ErrorID, true
}

// fault is the error returned by instruction handlers. Step turns it into
// an InstructionError carrying the location.
type fault struct {
	kind   ErrorKind
	detail string
}

func (f *fault) Error() string {
	if f.detail == "" {
		return f.kind.Error()
	}
	return fmt.Sprintf("%s: %s", f.kind.Error(), f.detail)
}

func newFault(kind ErrorKind, format string, args ...any) error {
	return &fault{kind: kind, detail: fmt.Sprintf(format, args...)}
}
