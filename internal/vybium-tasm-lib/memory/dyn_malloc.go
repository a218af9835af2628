// Package memory provides the dynamic allocator snippets use for memory
// that outlives a call.
package memory

import (
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"

	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/asm"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/bencher"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/datatype"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/prng"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/snippet"
)

var (
	// DynMallocAddress holds the next free dynamic address. Zero means
	// nothing has been allocated yet.
	DynMallocAddress = field.Zero

	// FirstDynamicAddress is returned by the first allocation
	FirstDynamicAddress = field.One
)

// DynMalloc is a bump allocator growing up from FirstDynamicAddress.
// Static memory is reserved by the library from the top of the address
// space downwards, so the two regions never meet in practice.
type DynMalloc struct{}

var _ snippet.Function = DynMalloc{}

func (DynMalloc) Entrypoint() string { return "tasmlib_memory_dyn_malloc" }

func (DynMalloc) Inputs() []datatype.Param {
	return []datatype.Param{datatype.P(datatype.U32, "size")}
}

func (DynMalloc) Outputs() []datatype.Param {
	return []datatype.Param{datatype.P(datatype.VoidPointer, "*addr")}
}

func (d DynMalloc) Code(snippet.Library) []asm.LabelledInstruction {
	return []asm.LabelledInstruction{
		asm.Label(d.Entrypoint()),
		// _ size
		asm.PushElement(DynMallocAddress),
		asm.ReadMem(1),
		asm.Pop(1),
		// _ size state
		asm.Dup(0),
		asm.Push(0),
		asm.Eq(),
		asm.Add(),
		// _ size addr
		asm.Dup(0),
		asm.Pick(2),
		asm.Add(),
		// _ addr next
		asm.PushElement(DynMallocAddress),
		asm.WriteMem(1),
		asm.Pop(1),
		// _ addr
		asm.Return(),
	}
}

// Allocate applies the allocator to memory and returns the new address
func Allocate(memory snippet.Memory, size uint32) field.Element {
	addr := snippet.Load(memory, DynMallocAddress)
	if addr.IsZero() {
		addr = FirstDynamicAddress
	}
	memory[DynMallocAddress] = addr.Add(field.New(uint64(size)))
	return addr
}

func (DynMalloc) Reference(stack *[]field.Element, memory snippet.Memory) error {
	size, err := snippet.PopU32(stack)
	if err != nil {
		return err
	}
	snippet.Push(stack, Allocate(memory, size))
	return nil
}

func (d DynMalloc) PseudorandomInitialState(seed prng.Seed, benchCase *bencher.BenchmarkCase) snippet.FunctionInitialState {
	rng := prng.New(seed)
	memory := make(snippet.Memory)
	if rng.Bool() {
		memory[DynMallocAddress] = field.New(rng.Range(1, 1<<30))
	}
	size := rng.Range(0, 1<<20)
	if benchCase != nil {
		memory[DynMallocAddress] = field.New(1 << 20)
		size = 1000
	}
	return snippet.FunctionInitialState{Stack: snippet.EmptyStack(field.New(size)), Memory: memory}
}

func (DynMalloc) CornerCases() []snippet.FunctionInitialState {
	return []snippet.FunctionInitialState{
		{Stack: snippet.EmptyStack(field.New(7)), Memory: make(snippet.Memory)},
		{Stack: snippet.EmptyStack(field.Zero), Memory: snippet.Memory{DynMallocAddress: field.New(42)}},
	}
}
