package vybiumtasmlib

import (
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"

	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/asm"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/core"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/datatype"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/library"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/snippet"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/vm"
)

// Element is a Goldilocks field element
type Element = field.Element

// Digest is the output of the VM's hash function
type Digest = core.Digest

// Snippet is the part common to all capabilities
type Snippet = snippet.BasicSnippet

// The capabilities a snippet may declare
type (
	Closure   = snippet.Closure
	Function  = snippet.Function
	Algorithm = snippet.Algorithm
	Procedure = snippet.Procedure
)

// Capability names what a snippet may touch besides the stack
type Capability = snippet.Capability

// DataType and Param describe a calling convention
type (
	DataType = datatype.DataType
	Param    = datatype.Param
)

// Library resolves imports into deduplicated code blocks
type Library = library.Library

// Instruction is one line of assembly
type Instruction = asm.LabelledInstruction

// Program is an assembled VM program
type Program = vm.Program

// InitialState is everything a program sees before its first instruction
type InitialState = vm.InitialState

// NonDeterminism is the secret input of a run
type NonDeterminism = vm.NonDeterminism

// VMState is the state of the VM after a run
type VMState = vm.VMState

// NewLibrary creates an empty library
func NewLibrary() *Library {
	return library.New()
}

// EmptyStack returns the register-width stack of zeros with top pushed on
// it, the last element ending on top
func EmptyStack(top ...Element) []Element {
	return snippet.EmptyStack(top...)
}
