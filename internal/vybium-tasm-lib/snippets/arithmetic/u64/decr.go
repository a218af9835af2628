package u64

import (
	"math"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"

	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/asm"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/bencher"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/datatype"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/prng"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/snippet"
)

// DecrOverflowErrorID is raised when decrementing zero
const DecrOverflowErrorID = 170

// Decr: _ v_hi v_lo -> _ (v-1)_hi (v-1)_lo
type Decr struct{}

var _ snippet.Closure = Decr{}

func (Decr) Entrypoint() string { return "tasmlib_arithmetic_u64_decr" }

func (Decr) Inputs() []datatype.Param  { return []datatype.Param{u64Param("value")} }
func (Decr) Outputs() []datatype.Param { return []datatype.Param{u64Param("value - 1")} }

func (s Decr) Code(snippet.Library) []asm.LabelledInstruction {
	carry := s.Entrypoint() + "_carry"
	return []asm.LabelledInstruction{
		asm.Label(s.Entrypoint()),
		asm.AddI(-1),
		asm.Dup(0),
		asm.Push(-1),
		asm.Eq(),
		asm.Skiz(),
		asm.Call(carry),
		asm.Return(),

		// _ hi -1
		asm.Label(carry),
		asm.Pop(1),
		asm.Dup(0),
		asm.Push(0),
		asm.Eq(),
		asm.Push(0),
		asm.Eq(),
		asm.Assert().WithErrorID(DecrOverflowErrorID),
		asm.AddI(-1),
		asm.Push(math.MaxUint32),
		asm.Return(),
	}
}

func (Decr) Reference(stack *[]field.Element) error {
	v, err := snippet.PopU64(stack)
	if err != nil {
		return err
	}
	if v == 0 {
		return snippet.Fail(DecrOverflowErrorID, "decrementing zero")
	}
	snippet.PushU64(stack, v-1)
	return nil
}

func (Decr) PseudorandomInitialState(seed prng.Seed, benchCase *bencher.BenchmarkCase) snippet.ClosureInitialState {
	v := prng.New(seed).Uint64()
	if v == 0 {
		v = 1
	}
	if benchCase != nil {
		switch *benchCase {
		case bencher.CommonCase:
			v = 7
		case bencher.WorstCase:
			v = 1 << 35
		}
	}
	return snippet.ClosureInitialState{Stack: stackWith(v)}
}

func (Decr) CornerCases() []snippet.ClosureInitialState {
	var states []snippet.ClosureInitialState
	for _, v := range edgeValues {
		if v == 0 {
			continue
		}
		states = append(states, snippet.ClosureInitialState{Stack: stackWith(v)})
	}
	return states
}
