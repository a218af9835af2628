package u64

import (
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"

	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/asm"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/bencher"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/datatype"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/prng"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/snippet"
)

// Pow2ExponentTooLargeErrorID is raised for exponents of 64 and above
const Pow2ExponentTooLargeErrorID = 360

// Pow2: _ e -> _ (2^e)_hi (2^e)_lo
type Pow2 struct{}

var _ snippet.Closure = Pow2{}

func (Pow2) Entrypoint() string { return "tasmlib_arithmetic_u64_pow2" }

func (Pow2) Inputs() []datatype.Param {
	return []datatype.Param{datatype.P(datatype.U32, "exponent")}
}

func (Pow2) Outputs() []datatype.Param { return []datatype.Param{u64Param("2^exponent")} }

func (s Pow2) Code(snippet.Library) []asm.LabelledInstruction {
	return []asm.LabelledInstruction{
		asm.Label(s.Entrypoint()),
		asm.Push(64),
		asm.Dup(1),
		asm.Lt(),
		asm.Assert().WithErrorID(Pow2ExponentTooLargeErrorID),
		asm.Push(2),
		asm.Pow(),
		asm.Split(),
		asm.Return(),
	}
}

func (Pow2) Reference(stack *[]field.Element) error {
	e, err := snippet.PopU32(stack)
	if err != nil {
		return err
	}
	if e >= 64 {
		return snippet.Fail(Pow2ExponentTooLargeErrorID, "exponent %d too large", e)
	}
	snippet.PushU64(stack, 1<<e)
	return nil
}

func (Pow2) PseudorandomInitialState(seed prng.Seed, benchCase *bencher.BenchmarkCase) snippet.ClosureInitialState {
	e := prng.New(seed).Uint64n(64)
	if benchCase != nil {
		switch *benchCase {
		case bencher.CommonCase:
			e = 31
		case bencher.WorstCase:
			e = 63
		}
	}
	return snippet.ClosureInitialState{Stack: snippet.EmptyStack(field.New(e))}
}

func (Pow2) CornerCases() []snippet.ClosureInitialState {
	var states []snippet.ClosureInitialState
	for _, e := range []uint64{0, 1, 31, 32, 33, 63} {
		states = append(states, snippet.ClosureInitialState{Stack: snippet.EmptyStack(field.New(e))})
	}
	return states
}
