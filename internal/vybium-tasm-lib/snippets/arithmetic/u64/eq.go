package u64

import (
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"

	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/asm"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/bencher"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/datatype"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/prng"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/snippet"
)

// Eq: _ a_hi a_lo b_hi b_lo -> _ (a == b)
type Eq struct{}

var _ snippet.Closure = Eq{}

func (Eq) Entrypoint() string { return "tasmlib_arithmetic_u64_eq" }

func (Eq) Inputs() []datatype.Param { return []datatype.Param{u64Param("a"), u64Param("b")} }

func (Eq) Outputs() []datatype.Param {
	return []datatype.Param{datatype.P(datatype.Bool, "a == b")}
}

func (s Eq) Code(snippet.Library) []asm.LabelledInstruction {
	return []asm.LabelledInstruction{
		asm.Label(s.Entrypoint()),
		asm.Swap(1),
		asm.Swap(2),
		// _ a_hi b_hi b_lo a_lo
		asm.Eq(),
		asm.Swap(2),
		asm.Eq(),
		asm.Mul(),
		asm.Return(),
	}
}

func (Eq) Reference(stack *[]field.Element) error {
	b, err := snippet.PopU64(stack)
	if err != nil {
		return err
	}
	a, err := snippet.PopU64(stack)
	if err != nil {
		return err
	}
	snippet.PushBool(stack, a == b)
	return nil
}

func (Eq) PseudorandomInitialState(seed prng.Seed, _ *bencher.BenchmarkCase) snippet.ClosureInitialState {
	rng := prng.New(seed)
	a := rng.Uint64()
	b := a
	if rng.Bool() {
		b = rng.Uint64()
	}
	return snippet.ClosureInitialState{Stack: stackWith(a, b)}
}

func (Eq) CornerCases() []snippet.ClosureInitialState {
	var states []snippet.ClosureInitialState
	for _, a := range edgeValues {
		for _, b := range edgeValues {
			states = append(states, snippet.ClosureInitialState{Stack: stackWith(a, b)})
		}
	}
	return states
}
