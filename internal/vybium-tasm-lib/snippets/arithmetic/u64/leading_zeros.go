package u64

import (
	"math/bits"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"

	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/asm"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/bencher"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/datatype"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/prng"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/snippet"
)

// LeadingZeros: _ v_hi v_lo -> _ clz(v)
type LeadingZeros struct{}

var _ snippet.Closure = LeadingZeros{}

func (LeadingZeros) Entrypoint() string { return "tasmlib_arithmetic_u64_leading_zeros" }

func (LeadingZeros) Inputs() []datatype.Param { return []datatype.Param{u64Param("value")} }

func (LeadingZeros) Outputs() []datatype.Param {
	return []datatype.Param{datatype.P(datatype.U32, "leading_zeros")}
}

func (s LeadingZeros) Code(snippet.Library) []asm.LabelledInstruction {
	bitLen := s.Entrypoint() + "_bit_len"
	low := s.Entrypoint() + "_low"
	return []asm.LabelledInstruction{
		asm.Label(s.Entrypoint()),
		asm.Swap(1),
		asm.Call(bitLen),
		// _ lo len(hi)
		asm.Dup(0),
		asm.Push(0),
		asm.Eq(),
		asm.Skiz(),
		asm.Call(low),
		// _ lo len, where clz = 32 - len
		asm.Push(-1),
		asm.Mul(),
		asm.AddI(32),
		asm.Swap(1),
		asm.Pop(1),
		asm.Return(),

		// _ lo 0 -> _ lo (len(lo) - 32)
		asm.Label(low),
		asm.Pop(1),
		asm.Dup(0),
		asm.Call(bitLen),
		asm.AddI(-32),
		asm.Return(),

		// _ x -> _ len(x), via log2(x|1) + (x != 0)
		asm.Label(bitLen),
		asm.Dup(0),
		asm.Push(0),
		asm.Eq(),
		asm.Push(0),
		asm.Eq(),
		asm.Swap(1),
		asm.Dup(0),
		asm.Push(1),
		asm.And(),
		asm.Push(-1),
		asm.Mul(),
		asm.Add(),
		asm.AddI(1),
		asm.Log2Floor(),
		asm.Add(),
		asm.Return(),
	}
}

func (LeadingZeros) Reference(stack *[]field.Element) error {
	v, err := snippet.PopU64(stack)
	if err != nil {
		return err
	}
	snippet.Push(stack, field.New(uint64(bits.LeadingZeros64(v))))
	return nil
}

func (LeadingZeros) PseudorandomInitialState(seed prng.Seed, benchCase *bencher.BenchmarkCase) snippet.ClosureInitialState {
	rng := prng.New(seed)
	v := rng.Uint64() >> rng.Uint64n(64)
	if benchCase != nil {
		switch *benchCase {
		case bencher.CommonCase:
			v = 1 << 40
		case bencher.WorstCase:
			v = 1
		}
	}
	return snippet.ClosureInitialState{Stack: stackWith(v)}
}

func (LeadingZeros) CornerCases() []snippet.ClosureInitialState {
	var states []snippet.ClosureInitialState
	for _, v := range append([]uint64{2, 3, 1 << 31, 1<<33 + 5}, edgeValues...) {
		states = append(states, snippet.ClosureInitialState{Stack: stackWith(v)})
	}
	return states
}
