package harness

import (
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"

	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/core"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/snippet"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/vm"
)

// ExecutionState is everything a snippet can observe or change. The
// witness RAM is folded into Memory; NonDeterminism.RAM is always empty.
type ExecutionState struct {
	Stack          []field.Element
	Memory         snippet.Memory
	NonDeterminism *vm.NonDeterminism
	PublicInput    []field.Element
	PublicOutput   []field.Element
	Sponge         *core.Sponge
}

// Clone returns a deep copy
func (s ExecutionState) Clone() ExecutionState {
	return ExecutionState{
		Stack:          append([]field.Element(nil), s.Stack...),
		Memory:         snippet.CloneMemory(s.Memory),
		NonDeterminism: s.NonDeterminism.Clone(),
		PublicInput:    append([]field.Element(nil), s.PublicInput...),
		PublicOutput:   append([]field.Element(nil), s.PublicOutput...),
		Sponge:         s.Sponge.Clone(),
	}
}

// vmInitialState hands the state to the VM, memory travelling as witness RAM
func (s ExecutionState) vmInitialState() vm.InitialState {
	return vm.InitialState{
		Stack:          append([]field.Element(nil), s.Stack...),
		PublicInput:    append([]field.Element(nil), s.PublicInput...),
		NonDeterminism: s.NonDeterminism.Clone().WithRAM(s.Memory),
		Sponge:         s.Sponge.Clone(),
	}
}

// newState normalises the parts a generator left out
func newState(stack []field.Element, memory snippet.Memory, nd *vm.NonDeterminism) ExecutionState {
	if memory == nil {
		memory = make(snippet.Memory)
	}
	nd = nd.Clone()
	for k, v := range nd.RAM {
		memory[k] = v
	}
	nd.RAM = make(map[field.Element]field.Element)
	return ExecutionState{
		Stack:          append([]field.Element(nil), stack...),
		Memory:         memory,
		NonDeterminism: nd,
		PublicOutput:   make([]field.Element, 0),
	}
}

// nonZero drops cells holding zero, which an unset cell reads as
func nonZero(memory snippet.Memory) snippet.Memory {
	out := make(snippet.Memory, len(memory))
	for k, v := range memory {
		if !v.IsZero() {
			out[k] = v
		}
	}
	return out
}
