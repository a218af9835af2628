package list

import (
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"

	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/asm"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/bencher"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/datatype"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/prng"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/snippet"
)

// IndexOutOfBoundsErrorID is raised when the index is not below the length
const IndexOutOfBoundsErrorID = 380

// Get: _ *list index -> _ [element]. The element type must fit a single
// read_mem, i.e. at most five words.
type Get struct {
	ElementType datatype.DataType
}

var _ snippet.Function = Get{}

func (g Get) Entrypoint() string { return "tasmlib_list_get_element___" + g.ElementType.Label() }

func (g Get) Inputs() []datatype.Param {
	return []datatype.Param{
		datatype.P(datatype.List(g.ElementType), "*list"),
		datatype.P(datatype.U32, "index"),
	}
}

func (g Get) Outputs() []datatype.Param {
	return []datatype.Param{datatype.P(g.ElementType, "element")}
}

func (g Get) Code(snippet.Library) []asm.LabelledInstruction {
	size := int64(g.ElementType.StackSize())
	return []asm.LabelledInstruction{
		asm.Label(g.Entrypoint()),
		asm.Dup(1),
		asm.ReadMem(1),
		asm.Pop(1),
		// _ *list index len
		asm.Dup(1),
		asm.Lt(),
		asm.Assert().WithErrorID(IndexOutOfBoundsErrorID),
		asm.Push(size),
		asm.Mul(),
		asm.Add(),
		asm.AddI(size),
		// _ *last_word
		asm.ReadMem(int(size)),
		asm.Pop(1),
		asm.Return(),
	}
}

func (g Get) Reference(stack *[]field.Element, memory snippet.Memory) error {
	index, err := snippet.PopU32(stack)
	if err != nil {
		return err
	}
	p, err := snippet.Pop(stack)
	if err != nil {
		return err
	}
	n := snippet.Load(memory, p).Value()
	if uint64(index) >= n {
		return snippet.Fail(IndexOutOfBoundsErrorID, "index %d out of bounds for length %d", index, n)
	}
	size := g.ElementType.StackSize()
	base := ElementAddress(p, int(index), size)
	element := make([]field.Element, size)
	for i := range element {
		element[i] = snippet.Load(memory, base.Add(field.New(uint64(i))))
	}
	datatype.PushEncoding(stack, element)
	return nil
}

func (g Get) PseudorandomInitialState(seed prng.Seed, benchCase *bencher.BenchmarkCase) snippet.FunctionInitialState {
	rng := prng.New(seed)
	n := 1 + rng.Intn(50)
	if benchCase != nil {
		n = 100
	}
	memory := make(snippet.Memory)
	p := Random(rng, memory, g.ElementType, n)
	index := rng.Intn(n)
	if benchCase != nil && *benchCase == bencher.WorstCase {
		index = n - 1
	}
	return snippet.FunctionInitialState{
		Stack:  snippet.EmptyStack(p, field.New(uint64(index))),
		Memory: memory,
	}
}

func (g Get) CornerCases() []snippet.FunctionInitialState {
	rng := prng.New(prng.Seed{})
	var states []snippet.FunctionInitialState
	for _, index := range []uint64{0, 9} {
		memory := make(snippet.Memory)
		p := Random(rng, memory, g.ElementType, 10)
		states = append(states, snippet.FunctionInitialState{
			Stack:  snippet.EmptyStack(p, field.New(index)),
			Memory: memory,
		})
	}
	return states
}
