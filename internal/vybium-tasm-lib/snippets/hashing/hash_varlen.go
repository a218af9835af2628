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

// HashVarlen: _ *addr len -> _ [digest]
//
// Resets the sponge, absorbs the len words at addr padded with a one and
// zeros to a multiple of the rate, and squeezes once.
type HashVarlen struct{}

var _ snippet.Procedure = HashVarlen{}

func (HashVarlen) Entrypoint() string { return "tasmlib_hashing_hash_varlen" }

func (HashVarlen) Inputs() []datatype.Param {
	return []datatype.Param{
		datatype.P(datatype.VoidPointer, "*addr"),
		datatype.P(datatype.U32, "length"),
	}
}

func (HashVarlen) Outputs() []datatype.Param {
	return []datatype.Param{datatype.P(datatype.Digest, "digest")}
}

func (s HashVarlen) Code(snippet.Library) []asm.LabelledInstruction {
	absorbChunks := s.Entrypoint() + "_absorb_chunks"
	padZeros := s.Entrypoint() + "_pad_zeros"
	readTail := s.Entrypoint() + "_read_tail"

	code := []asm.LabelledInstruction{
		asm.Label(s.Entrypoint()),
		asm.SpongeInit(),
		asm.Call(absorbChunks),
		// _ *tail r, with r < 10
		asm.Dup(0),
		asm.Push(-1),
		asm.Mul(),
		asm.AddI(core.SpongeRate - 1),
		asm.Call(padZeros),
		asm.Pop(1),
		// _ [0; 9-r] *tail r
		asm.Push(1),
		asm.Place(2),
		asm.Swap(1),
		asm.Dup(1),
		asm.Add(),
		asm.AddI(-1),
		asm.Swap(1),
		// _ [0; 9-r] 1 *last r
		asm.Call(readTail),
		asm.Pop(2),
		asm.SpongeAbsorb(),
		asm.SpongeSqueeze(),
	}
	code = append(code, asm.Repeat(core.SpongeRate-core.DigestLen, asm.Pick(core.DigestLen), asm.Pop(1))...)
	code = append(code, asm.Return())

	return append(code,
		// _ *addr len
		asm.Label(absorbChunks),
		asm.Push(core.SpongeRate),
		asm.Dup(1),
		asm.Lt(),
		asm.Skiz(),
		asm.Return(),
		asm.AddI(-core.SpongeRate),
		asm.Swap(1),
		asm.SpongeAbsorbMem(),
		asm.Swap(1),
		asm.Recurse(),

		// _ *tail r z
		asm.Label(padZeros),
		asm.Dup(0),
		asm.Push(0),
		asm.Eq(),
		asm.Skiz(),
		asm.Return(),
		asm.Push(0),
		asm.Place(3),
		asm.AddI(-1),
		asm.Recurse(),

		// _ [words] *q k: pushes m[q] below the counters, down to the first word
		asm.Label(readTail),
		asm.Dup(0),
		asm.Push(0),
		asm.Eq(),
		asm.Skiz(),
		asm.Return(),
		asm.Swap(1),
		asm.ReadMem(1),
		asm.Pick(2),
		asm.AddI(-1),
		asm.Recurse(),
	)
}

func (HashVarlen) Reference(stack *[]field.Element, memory snippet.Memory, _ *vm.NonDeterminism,
	_ []field.Element, sponge **core.Sponge) ([]field.Element, error) {
	length, err := snippet.PopU32(stack)
	if err != nil {
		return nil, err
	}
	p, err := snippet.Pop(stack)
	if err != nil {
		return nil, err
	}

	input := make([]field.Element, length)
	for i := range input {
		input[i] = snippet.Load(memory, p.Add(field.New(uint64(i))))
	}
	*sponge = core.NewSponge()
	(*sponge).PadAndAbsorbAll(input)
	out := (*sponge).Squeeze()

	var digest core.Digest
	copy(digest[:], out[:core.DigestLen])
	digest.Push(stack)
	return nil, nil
}

func (HashVarlen) PseudorandomInitialState(seed prng.Seed, benchCase *bencher.BenchmarkCase) snippet.ProcedureInitialState {
	rng := prng.New(seed)
	length := rng.Intn(60)
	if benchCase != nil {
		switch *benchCase {
		case bencher.CommonCase:
			length = 25
		case bencher.WorstCase:
			length = 1000
		}
	}
	return hashVarlenState(rng, length)
}

func hashVarlenState(rng *prng.Rng, length int) snippet.ProcedureInitialState {
	p := list.RandomPointer(rng)
	ram := make(map[field.Element]field.Element, length)
	for i, w := range rng.Elements(length) {
		ram[p.Add(field.New(uint64(i)))] = w
	}
	var sponge *core.Sponge
	if rng.Bool() {
		sponge = randomSponge(rng)
	}
	return snippet.ProcedureInitialState{
		Stack:          snippet.EmptyStack(p, field.New(uint64(length))),
		NonDeterminism: vm.NewNonDeterminism(nil).WithRAM(ram),
		Sponge:         sponge,
	}
}

func (HashVarlen) CornerCases() []snippet.ProcedureInitialState {
	rng := prng.New(prng.Seed{})
	var states []snippet.ProcedureInitialState
	for _, length := range []int{0, 1, 9, 10, 11, 19, 20} {
		states = append(states, hashVarlenState(rng, length))
	}
	return states
}
