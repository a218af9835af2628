// Package u32 holds snippets over single-word unsigned integers
package u32

import (
	"math"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"

	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/asm"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/bencher"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/datatype"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/prng"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/snippet"
)

// IsOdd: _ x -> _ (x mod 2)
type IsOdd struct{}

var _ snippet.Closure = IsOdd{}

func (IsOdd) Entrypoint() string { return "tasmlib_arithmetic_u32_is_odd" }

func (IsOdd) Inputs() []datatype.Param {
	return []datatype.Param{datatype.P(datatype.U32, "value")}
}

func (IsOdd) Outputs() []datatype.Param {
	return []datatype.Param{datatype.P(datatype.Bool, "value % 2")}
}

func (s IsOdd) Code(snippet.Library) []asm.LabelledInstruction {
	return []asm.LabelledInstruction{
		asm.Label(s.Entrypoint()),
		asm.Push(2),
		asm.Swap(1),
		asm.DivMod(),
		// _ q r
		asm.Swap(1),
		asm.Pop(1),
		asm.Return(),
	}
}

func (IsOdd) Reference(stack *[]field.Element) error {
	v, err := snippet.PopU32(stack)
	if err != nil {
		return err
	}
	snippet.Push(stack, field.New(uint64(v%2)))
	return nil
}

func (IsOdd) PseudorandomInitialState(seed prng.Seed, benchCase *bencher.BenchmarkCase) snippet.ClosureInitialState {
	v := uint64(prng.New(seed).Uint32())
	if benchCase != nil {
		switch *benchCase {
		case bencher.CommonCase:
			v = 1 << 16
		case bencher.WorstCase:
			v = math.MaxUint32
		}
	}
	return snippet.ClosureInitialState{Stack: snippet.EmptyStack(field.New(v))}
}

func (IsOdd) CornerCases() []snippet.ClosureInitialState {
	var states []snippet.ClosureInitialState
	for _, v := range []uint64{0, 1, 2, math.MaxUint32 - 1, math.MaxUint32} {
		states = append(states, snippet.ClosureInitialState{Stack: snippet.EmptyStack(field.New(v))})
	}
	return states
}
