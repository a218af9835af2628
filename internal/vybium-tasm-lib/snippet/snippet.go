// Package snippet defines the capability-typed units of VM code the library
// is built from.
//
// Every snippet is a BasicSnippet: a named block of code with a calling
// convention. What the code may touch besides the stack is declared by the
// capability interface it implements:
//
//	Closure    stack only
//	Function   stack, plus memory it allocates itself
//	Algorithm  stack, memory and the witness
//	Procedure  everything, including standard I/O and the sponge
//
// Each capability pairs the code with a reference behavior written in Go,
// which the harness compares against the VM.
package snippet

import (
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"

	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/asm"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/bencher"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/core"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/datatype"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/prng"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/vm"
)

// Library is the import resolver a snippet generates its code against
type Library interface {
	// Import returns the label of s, generating and registering its code
	// on first use
	Import(s BasicSnippet) string

	// Kmalloc reserves words of static memory and returns the first address
	Kmalloc(words uint32) field.Element
}

// BasicSnippet is the part common to all capabilities
type BasicSnippet interface {
	// Entrypoint is the globally unique name and label of the snippet
	Entrypoint() string

	Inputs() []datatype.Param
	Outputs() []datatype.Param

	// Code returns the snippet's block. Its first line defines the
	// entrypoint label and the block ends in return.
	Code(lib Library) []asm.LabelledInstruction
}

// StackDiff is the declared net change in stack depth
func StackDiff(s BasicSnippet) int {
	return datatype.StackSize(s.Outputs()) - datatype.StackSize(s.Inputs())
}

// Memory is the VM's sparse RAM
type Memory = map[field.Element]field.Element

// ClosureInitialState is the input of a Closure
type ClosureInitialState struct {
	Stack []field.Element
}

// FunctionInitialState is the input of a Function
type FunctionInitialState struct {
	Stack  []field.Element
	Memory Memory
}

// AlgorithmInitialState is the input of an Algorithm. Meta, if set, is
// handed to the snippet's Preprocess before the run.
type AlgorithmInitialState struct {
	Stack          []field.Element
	NonDeterminism *vm.NonDeterminism
	Meta           any
}

// ProcedureInitialState is the input of a Procedure
type ProcedureInitialState struct {
	Stack          []field.Element
	NonDeterminism *vm.NonDeterminism
	PublicInput    []field.Element
	Sponge         *core.Sponge
}

// Closure is a pure stack transformation
type Closure interface {
	BasicSnippet
	Reference(stack *[]field.Element) error
	PseudorandomInitialState(seed prng.Seed, benchCase *bencher.BenchmarkCase) ClosureInitialState
}

// Function may read memory and write memory it allocated itself
type Function interface {
	BasicSnippet
	Reference(stack *[]field.Element, memory Memory) error
	PseudorandomInitialState(seed prng.Seed, benchCase *bencher.BenchmarkCase) FunctionInitialState
}

// Algorithm consumes the witness and may write memory freely
type Algorithm interface {
	BasicSnippet
	Reference(stack *[]field.Element, memory Memory, nd *vm.NonDeterminism) error
	PseudorandomInitialState(seed prng.Seed, benchCase *bencher.BenchmarkCase) AlgorithmInitialState
}

// Procedure may use every effect of the VM. The reference returns what the
// code writes to standard output.
type Procedure interface {
	BasicSnippet
	Reference(stack *[]field.Element, memory Memory, nd *vm.NonDeterminism,
		stdin []field.Element, sponge **core.Sponge) ([]field.Element, error)
	PseudorandomInitialState(seed prng.Seed, benchCase *bencher.BenchmarkCase) ProcedureInitialState
}

// Preprocessor derives the witness of an Algorithm from another
// representation, e.g. digests from an authentication path. It runs on the
// host before the VM and is not itself verified.
type Preprocessor interface {
	Preprocess(meta any, nd *vm.NonDeterminism) error
}

// Corner cases are explicit states tested in addition to the random ones

type ClosureCornerCases interface {
	CornerCases() []ClosureInitialState
}

type FunctionCornerCases interface {
	CornerCases() []FunctionInitialState
}

type AlgorithmCornerCases interface {
	CornerCases() []AlgorithmInitialState
}

type ProcedureCornerCases interface {
	CornerCases() []ProcedureInitialState
}

// Capability names the effects a snippet may have
type Capability int

const (
	CapabilityNone Capability = iota
	CapabilityClosure
	CapabilityFunction
	CapabilityAlgorithm
	CapabilityProcedure
)

// String returns the name of the capability
func (c Capability) String() string {
	switch c {
	case CapabilityClosure:
		return "closure"
	case CapabilityFunction:
		return "function"
	case CapabilityAlgorithm:
		return "algorithm"
	case CapabilityProcedure:
		return "procedure"
	default:
		return "none"
	}
}

// CapabilityOf reports which capability s implements
func CapabilityOf(s BasicSnippet) Capability {
	switch s.(type) {
	case Procedure:
		return CapabilityProcedure
	case Algorithm:
		return CapabilityAlgorithm
	case Function:
		return CapabilityFunction
	case Closure:
		return CapabilityClosure
	default:
		return CapabilityNone
	}
}
