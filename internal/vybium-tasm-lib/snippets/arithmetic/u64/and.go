package u64

import (
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"

	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/asm"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/bencher"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/datatype"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/prng"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/snippet"
)

// And: _ a_hi a_lo b_hi b_lo -> _ (a&b)_hi (a&b)_lo
type And struct{}

var _ snippet.Closure = And{}

func (And) Entrypoint() string { return "tasmlib_arithmetic_u64_and" }

func (And) Inputs() []datatype.Param  { return []datatype.Param{u64Param("a"), u64Param("b")} }
func (And) Outputs() []datatype.Param { return []datatype.Param{u64Param("a & b")} }

func (s And) Code(snippet.Library) []asm.LabelledInstruction {
	return []asm.LabelledInstruction{
		asm.Label(s.Entrypoint()),
		asm.Pick(2),
		asm.And(),
		// _ a_hi b_hi lo
		asm.Place(2),
		asm.And(),
		asm.Swap(1),
		asm.Return(),
	}
}

func (And) Reference(stack *[]field.Element) error {
	b, err := snippet.PopU64(stack)
	if err != nil {
		return err
	}
	a, err := snippet.PopU64(stack)
	if err != nil {
		return err
	}
	snippet.PushU64(stack, a&b)
	return nil
}

func (And) PseudorandomInitialState(seed prng.Seed, _ *bencher.BenchmarkCase) snippet.ClosureInitialState {
	rng := prng.New(seed)
	return snippet.ClosureInitialState{Stack: stackWith(rng.Uint64(), rng.Uint64())}
}

func (And) CornerCases() []snippet.ClosureInitialState {
	var states []snippet.ClosureInitialState
	for _, a := range edgeValues {
		for _, b := range edgeValues {
			states = append(states, snippet.ClosureInitialState{Stack: stackWith(a, b)})
		}
	}
	return states
}
