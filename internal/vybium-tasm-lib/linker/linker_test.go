package linker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"

	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/asm"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/datatype"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/library"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/snippet"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/vm"
)

// addOne is a closure: _ x -> _ (x+1)
type addOne struct{}

func (addOne) Entrypoint() string        { return "test_add_one" }
func (addOne) Inputs() []datatype.Param  { return []datatype.Param{datatype.P(datatype.BFE, "x")} }
func (addOne) Outputs() []datatype.Param { return []datatype.Param{datatype.P(datatype.BFE, "x+1")} }
func (addOne) Code(snippet.Library) []asm.LabelledInstruction {
	return []asm.LabelledInstruction{asm.Label("test_add_one"), asm.AddI(1), asm.Return()}
}

// addTwo calls addOne twice
type addTwo struct{}

func (addTwo) Entrypoint() string        { return "test_add_two" }
func (addTwo) Inputs() []datatype.Param  { return []datatype.Param{datatype.P(datatype.BFE, "x")} }
func (addTwo) Outputs() []datatype.Param { return []datatype.Param{datatype.P(datatype.BFE, "x+2")} }
func (addTwo) Code(lib snippet.Library) []asm.LabelledInstruction {
	one := lib.Import(addOne{})
	return []asm.LabelledInstruction{asm.Label("test_add_two"), asm.Call(one), asm.Call(one), asm.Return()}
}

// staticLength reads the word placed at the bottom of a two-word static
// region: _ -> _ m[-2]
type staticLength struct{}

func (staticLength) Entrypoint() string        { return "test_static_length" }
func (staticLength) Inputs() []datatype.Param  { return nil }
func (staticLength) Outputs() []datatype.Param { return []datatype.Param{datatype.P(datatype.U32, "len")} }
func (staticLength) Code(snippet.Library) []asm.LabelledInstruction {
	return []asm.LabelledInstruction{
		asm.Label("test_static_length"),
		asm.Push(-2),
		asm.ReadMem(1),
		asm.Pop(1),
		asm.Return(),
	}
}

func TestLinkOrder(t *testing.T) {
	lib := library.New()
	code, err := Link(addTwo{}, lib)
	require.NoError(t, err)

	assert.Equal(t, "call test_add_two", code[0].String())
	assert.Equal(t, "halt", code[1].String())
	assert.Equal(t, []string{"test_add_two", "test_add_one"}, asm.Labels(code))

	halts := 0
	for _, li := range code {
		if li.Kind == asm.KindInstruction && li.Instruction == vm.Halt {
			halts++
		}
	}
	assert.Equal(t, 1, halts)
}

func TestIsolatedRun(t *testing.T) {
	program, err := LinkForIsolatedRun(addTwo{}, IsolatedRunOptions{ConflictCheck: true})
	require.NoError(t, err)

	stack := append(InitStackForIsolatedRun(), field.New(40))
	final, heights, err := ExecuteBench(program, vm.InitialState{Stack: stack}, 1000)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), final.StackPeek(0).Value())
	assert.Equal(t, len(stack), final.StackDepth())
	assert.Equal(t, uint64(3), heights.JumpStack/2, "three calls, three returns")
}

func TestIsolatedRunWithStaticWords(t *testing.T) {
	words := []field.Element{field.New(17), field.New(99)}
	program, err := LinkForIsolatedRun(staticLength{}, IsolatedRunOptions{StaticWords: words})
	require.NoError(t, err)

	final, err := Execute(program, vm.InitialState{Stack: InitStackForIsolatedRun()}, 1000)
	require.NoError(t, err)
	assert.Equal(t, uint64(17), final.StackPeek(0).Value())
	assert.Equal(t, uint64(99), final.RAM[field.Zero.Sub(field.One)].Value())
}

func TestInitStack(t *testing.T) {
	stack := InitStackForIsolatedRun()
	assert.Len(t, stack, vm.NumOpStackRegisters)
	for _, e := range stack {
		assert.True(t, e.IsZero())
	}
}
