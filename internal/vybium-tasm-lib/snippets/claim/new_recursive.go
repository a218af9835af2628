// Package claim builds claim records in static memory
package claim

import (
	"fmt"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"

	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/asm"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/bencher"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/core"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/datatype"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/library"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/prng"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/snippet"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/vm"
)

// digestDepth is the stack depth of the deepest program digest word
const digestDepth = vm.NumOpStackRegisters - 1

// NewRecursive: _ -> _ *claim
//
// Builds the claim of the running program in static memory:
//
//	claim + 0 .. claim + 4   program digest
//	claim + 5                InputSize
//	claim + 6 ..             input, from secret input
//	then                     OutputSize
//	then                     output, from secret input
//
// The program digest is read from the bottom of the register stack, where
// the VM places it at start-up.
type NewRecursive struct {
	InputSize  int
	OutputSize int
}

var _ snippet.Procedure = NewRecursive{}

func (c NewRecursive) Entrypoint() string {
	return fmt.Sprintf("tasmlib_claim_new_recursive_%d_%d", c.InputSize, c.OutputSize)
}

func (NewRecursive) Inputs() []datatype.Param { return nil }

func (NewRecursive) Outputs() []datatype.Param {
	return []datatype.Param{datatype.P(datatype.VoidPointer, "*claim")}
}

// Words is the size of the claim record
func (c NewRecursive) Words() int {
	return core.DigestLen + 2 + c.InputSize + c.OutputSize
}

func (c NewRecursive) Code(lib snippet.Library) []asm.LabelledInstruction {
	claim := lib.Kmalloc(uint32(c.Words()))
	divineOne := []asm.LabelledInstruction{asm.Divine(1), asm.Swap(1), asm.WriteMem(1)}

	code := []asm.LabelledInstruction{asm.Label(c.Entrypoint())}
	code = append(code, asm.Repeat(core.DigestLen, asm.Dup(digestDepth))...)
	code = append(code,
		asm.PushElement(claim),
		asm.WriteMem(core.DigestLen),
		asm.Push(int64(c.InputSize)),
		asm.Swap(1),
		asm.WriteMem(1),
	)
	code = append(code, asm.Repeat(c.InputSize, divineOne...)...)
	code = append(code,
		asm.Push(int64(c.OutputSize)),
		asm.Swap(1),
		asm.WriteMem(1),
	)
	code = append(code, asm.Repeat(c.OutputSize, divineOne...)...)
	return append(code,
		asm.Pop(1),
		asm.PushElement(claim),
		asm.Return(),
	)
}

// Address is where the claim lands when c is the first snippet to reserve
// static memory
func (c NewRecursive) Address() field.Element {
	return library.New().Kmalloc(uint32(c.Words()))
}

func (c NewRecursive) Reference(stack *[]field.Element, memory snippet.Memory, nd *vm.NonDeterminism,
	_ []field.Element, _ **core.Sponge) ([]field.Element, error) {
	s := *stack
	if len(s) < vm.NumOpStackRegisters {
		return nil, fmt.Errorf("stack holds %d elements, need %d", len(s), vm.NumOpStackRegisters)
	}
	tokens := nd.IndividualTokens
	if len(tokens) < c.InputSize+c.OutputSize {
		return nil, fmt.Errorf("need %d secret tokens, have %d", c.InputSize+c.OutputSize, len(tokens))
	}

	// st11 holds d0, st15 holds d4
	var digest core.Digest
	for i := range digest {
		digest[i] = s[len(s)-1-(digestDepth-core.DigestLen+1)-i]
	}

	claim := c.Address()
	record := append(digest.Elements(), field.New(uint64(c.InputSize)))
	record = append(record, tokens[:c.InputSize]...)
	record = append(record, field.New(uint64(c.OutputSize)))
	record = append(record, tokens[c.InputSize:c.InputSize+c.OutputSize]...)
	for i, w := range record {
		memory[claim.Add(field.New(uint64(i)))] = w
	}
	snippet.Push(stack, claim)
	return nil, nil
}

func (c NewRecursive) PseudorandomInitialState(seed prng.Seed, _ *bencher.BenchmarkCase) snippet.ProcedureInitialState {
	rng := prng.New(seed)
	return snippet.ProcedureInitialState{
		Stack:          vm.DefaultStack(rng.Digest()),
		NonDeterminism: vm.NewNonDeterminism(rng.Elements(c.InputSize + c.OutputSize)),
	}
}
