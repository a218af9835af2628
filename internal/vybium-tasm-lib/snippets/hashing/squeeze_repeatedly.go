package hashing

import (
	"fmt"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"

	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/asm"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/bencher"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/core"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/datatype"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/memory"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/prng"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/snippet"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/vm"
)

// SqueezeRepeatedly: _ -> _ *squeezed, squeezing the sponge N times into a
// fresh buffer of 10N words
type SqueezeRepeatedly struct {
	N int
}

var _ snippet.Procedure = SqueezeRepeatedly{}

func (s SqueezeRepeatedly) Entrypoint() string {
	return fmt.Sprintf("tasmlib_hashing_squeeze_repeatedly_%d", s.N)
}

func (SqueezeRepeatedly) Inputs() []datatype.Param { return nil }

func (SqueezeRepeatedly) Outputs() []datatype.Param {
	return []datatype.Param{datatype.P(datatype.VoidPointer, "*squeezed")}
}

func (s SqueezeRepeatedly) Code(lib snippet.Library) []asm.LabelledInstruction {
	malloc := lib.Import(memory.DynMalloc{})
	loop := s.Entrypoint() + "_loop"
	return []asm.LabelledInstruction{
		asm.Label(s.Entrypoint()),
		asm.Push(int64(s.N * core.SpongeRate)),
		asm.Call(malloc),
		asm.Dup(0),
		asm.Push(int64(s.N)),
		// _ *squeezed *next k
		asm.Call(loop),
		asm.Pop(2),
		asm.Return(),

		asm.Label(loop),
		asm.Dup(0),
		asm.Push(0),
		asm.Eq(),
		asm.Skiz(),
		asm.Return(),
		asm.SpongeSqueeze(),
		asm.Dup(core.SpongeRate + 1),
		asm.WriteMem(core.DigestLen),
		asm.WriteMem(core.DigestLen),
		// _ *next k (*next+10)
		asm.Swap(2),
		asm.Pop(1),
		asm.AddI(-1),
		asm.Recurse(),
	}
}

func (s SqueezeRepeatedly) Reference(stack *[]field.Element, mem snippet.Memory, _ *vm.NonDeterminism,
	_ []field.Element, sponge **core.Sponge) ([]field.Element, error) {
	if *sponge == nil {
		return nil, errSpongeNotInitialized
	}
	p := memory.Allocate(mem, uint32(s.N*core.SpongeRate))
	for i := 0; i < s.N; i++ {
		for j, w := range (*sponge).Squeeze() {
			mem[p.Add(field.New(uint64(i*core.SpongeRate+j)))] = w
		}
	}
	snippet.Push(stack, p)
	return nil, nil
}

func (s SqueezeRepeatedly) PseudorandomInitialState(seed prng.Seed, _ *bencher.BenchmarkCase) snippet.ProcedureInitialState {
	rng := prng.New(seed)
	return snippet.ProcedureInitialState{
		Stack:  snippet.EmptyStack(),
		Sponge: randomSponge(rng),
	}
}
