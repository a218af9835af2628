package list

import (
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"

	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/asm"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/bencher"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/datatype"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/prng"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/snippet"
)

// Length: _ *list -> _ len
type Length struct{}

var _ snippet.Function = Length{}

func (Length) Entrypoint() string { return "tasmlib_list_length" }

func (Length) Inputs() []datatype.Param {
	return []datatype.Param{datatype.P(datatype.VoidPointer, "*list")}
}

func (Length) Outputs() []datatype.Param {
	return []datatype.Param{datatype.P(datatype.U32, "len")}
}

func (s Length) Code(snippet.Library) []asm.LabelledInstruction {
	return []asm.LabelledInstruction{
		asm.Label(s.Entrypoint()),
		asm.ReadMem(1),
		asm.Pop(1),
		asm.Return(),
	}
}

func (Length) Reference(stack *[]field.Element, memory snippet.Memory) error {
	p, err := snippet.Pop(stack)
	if err != nil {
		return err
	}
	snippet.Push(stack, snippet.Load(memory, p))
	return nil
}

func (Length) PseudorandomInitialState(seed prng.Seed, benchCase *bencher.BenchmarkCase) snippet.FunctionInitialState {
	rng := prng.New(seed)
	n := rng.Intn(50)
	if benchCase != nil {
		n = 100
	}
	memory := make(snippet.Memory)
	p := Random(rng, memory, datatype.BFE, n)
	return snippet.FunctionInitialState{Stack: snippet.EmptyStack(p), Memory: memory}
}
