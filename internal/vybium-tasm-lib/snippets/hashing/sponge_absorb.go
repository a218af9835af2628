package hashing

import (
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"

	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/asm"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/bencher"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/core"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/datatype"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/prng"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/snippet"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/snippets/list"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/vm"
)

// SpongeAbsorb: _ *input -> _, absorbing the ten words at input into an
// initialised sponge
type SpongeAbsorb struct{}

var _ snippet.Procedure = SpongeAbsorb{}

func (SpongeAbsorb) Entrypoint() string { return "tasmlib_hashing_sponge_absorb" }

func (SpongeAbsorb) Inputs() []datatype.Param {
	return []datatype.Param{datatype.P(datatype.VoidPointer, "*input")}
}

func (SpongeAbsorb) Outputs() []datatype.Param { return nil }

func (s SpongeAbsorb) Code(snippet.Library) []asm.LabelledInstruction {
	return []asm.LabelledInstruction{
		asm.Label(s.Entrypoint()),
		asm.SpongeAbsorbMem(),
		asm.Pop(1),
		asm.Return(),
	}
}

func (SpongeAbsorb) Reference(stack *[]field.Element, memory snippet.Memory, _ *vm.NonDeterminism,
	_ []field.Element, sponge **core.Sponge) ([]field.Element, error) {
	p, err := snippet.Pop(stack)
	if err != nil {
		return nil, err
	}
	if *sponge == nil {
		return nil, errSpongeNotInitialized
	}
	(*sponge).Absorb(loadChunk(memory, p))
	return nil, nil
}

func (SpongeAbsorb) PseudorandomInitialState(seed prng.Seed, _ *bencher.BenchmarkCase) snippet.ProcedureInitialState {
	rng := prng.New(seed)
	p := list.RandomPointer(rng)
	ram := make(map[field.Element]field.Element)
	for i, w := range rng.Elements(core.SpongeRate) {
		ram[p.Add(field.New(uint64(i)))] = w
	}
	return snippet.ProcedureInitialState{
		Stack:          snippet.EmptyStack(p),
		NonDeterminism: vm.NewNonDeterminism(nil).WithRAM(ram),
		Sponge:         randomSponge(rng),
	}
}
