package snippet

import (
	"fmt"
	"math"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"

	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/core"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/vm"
)

// Helpers for reference behaviors, which manipulate the stack the way the
// VM does: the last element is the top.

// Push pushes values in order; the last one ends on top
func Push(stack *[]field.Element, values ...field.Element) {
	*stack = append(*stack, values...)
}

// PushU64 pushes a u64 as (hi, lo) with lo on top
func PushU64(stack *[]field.Element, v uint64) {
	Push(stack, field.New(v>>32), field.New(v&0xffffffff))
}

// PushBool pushes 1 or 0
func PushBool(stack *[]field.Element, b bool) {
	if b {
		Push(stack, field.One)
		return
	}
	Push(stack, field.Zero)
}

// Pop pops the top of the stack
func Pop(stack *[]field.Element) (field.Element, error) {
	s := *stack
	if len(s) == 0 {
		return field.Zero, fmt.Errorf("pop from empty stack")
	}
	top := s[len(s)-1]
	*stack = s[:len(s)-1]
	return top, nil
}

// PopU32 pops an element that must fit in 32 bits
func PopU32(stack *[]field.Element) (uint32, error) {
	v, err := Pop(stack)
	if err != nil {
		return 0, err
	}
	if v.Value() > math.MaxUint32 {
		return 0, fmt.Errorf("%d is not a u32", v.Value())
	}
	return uint32(v.Value()), nil
}

// PopU64 pops a u64 pushed as (hi, lo)
func PopU64(stack *[]field.Element) (uint64, error) {
	lo, err := PopU32(stack)
	if err != nil {
		return 0, err
	}
	hi, err := PopU32(stack)
	if err != nil {
		return 0, err
	}
	return uint64(hi)<<32 | uint64(lo), nil
}

// PopDigest pops a digest
func PopDigest(stack *[]field.Element) (core.Digest, error) {
	return core.PopDigest(stack)
}

// Load reads a memory cell; unset cells are zero
func Load(memory Memory, address field.Element) field.Element {
	if v, ok := memory[address]; ok {
		return v
	}
	return field.Zero
}

// LoadDigest reads a digest stored at address
func LoadDigest(memory Memory, address field.Element) core.Digest {
	var d core.Digest
	for i := range d {
		d[i] = Load(memory, address.Add(field.New(uint64(i))))
	}
	return d
}

// StoreDigest writes a digest at address
func StoreDigest(memory Memory, address field.Element, d core.Digest) {
	for i, e := range d {
		memory[address.Add(field.New(uint64(i)))] = e
	}
}

// CloneMemory returns a copy of memory
func CloneMemory(memory Memory) Memory {
	out := make(Memory, len(memory))
	for k, v := range memory {
		out[k] = v
	}
	return out
}

// EmptyStack returns the register-width zero padding followed by top,
// the last of which ends on top
func EmptyStack(top ...field.Element) []field.Element {
	stack := make([]field.Element, vm.NumOpStackRegisters, vm.NumOpStackRegisters+len(top))
	for i := range stack {
		stack[i] = field.Zero
	}
	return append(stack, top...)
}
