package library

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"

	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/asm"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/datatype"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/snippet"
)

// testSnippet calls its dependencies, optionally reserves static memory
// and pushes nothing
type testSnippet struct {
	name    string
	deps    []snippet.BasicSnippet
	kmalloc uint32
	variant int64
	extra   []asm.LabelledInstruction
}

func (s testSnippet) Entrypoint() string        { return s.name }
func (s testSnippet) Inputs() []datatype.Param  { return nil }
func (s testSnippet) Outputs() []datatype.Param { return nil }

func (s testSnippet) Code(lib snippet.Library) []asm.LabelledInstruction {
	code := []asm.LabelledInstruction{asm.Label(s.name)}
	for _, dep := range s.deps {
		code = append(code, asm.Call(lib.Import(dep)))
	}
	if s.kmalloc > 0 {
		code = append(code, asm.PushElement(lib.Kmalloc(s.kmalloc)), asm.Pop(1))
	}
	if s.variant != 0 {
		code = append(code, asm.Push(s.variant), asm.Pop(1))
	}
	code = append(code, s.extra...)
	return append(code, asm.Return())
}

// cyclic imports its partner, which imports it back
type cyclic struct {
	name, partner string
}

func (c cyclic) Entrypoint() string        { return c.name }
func (c cyclic) Inputs() []datatype.Param  { return nil }
func (c cyclic) Outputs() []datatype.Param { return nil }
func (c cyclic) Code(lib snippet.Library) []asm.LabelledInstruction {
	return []asm.LabelledInstruction{
		asm.Label(c.name),
		asm.Call(lib.Import(cyclic{name: c.partner, partner: c.name})),
		asm.Return(),
	}
}

func countCalls(code []asm.LabelledInstruction, target string) int {
	n := 0
	for _, li := range code {
		if li.IsCall() && li.Label == target {
			n++
		}
	}
	return n
}

func TestImportIsIdempotent(t *testing.T) {
	lib := New()
	leaf := testSnippet{name: "test_leaf"}

	first := lib.Import(leaf)
	fp, ok := lib.Fingerprint(first)
	require.True(t, ok)

	second := lib.Import(leaf)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, lib.Len())

	block, ok := lib.Block(second)
	require.True(t, ok)
	assert.Equal(t, FingerprintOf(block), fp)
}

func TestSharedDependencyIsDeduplicated(t *testing.T) {
	lib := New()
	shared := testSnippet{name: "test_shared"}
	left := testSnippet{name: "test_left", deps: []snippet.BasicSnippet{shared}}
	right := testSnippet{name: "test_right", deps: []snippet.BasicSnippet{shared}}
	top := testSnippet{name: "test_top", deps: []snippet.BasicSnippet{left, right}}

	lib.Import(top)
	assert.Equal(t, []string{"test_shared", "test_left", "test_right", "test_top"}, lib.Entrypoints())

	code := lib.AllImports()
	assert.Equal(t, 1, countLabels(code, "test_shared"))
	assert.Equal(t, 2, countCalls(code, "test_shared"))
	require.NoError(t, lib.ValidateClosure())
}

func countLabels(code []asm.LabelledInstruction, label string) int {
	n := 0
	for _, l := range asm.Labels(code) {
		if l == label {
			n++
		}
	}
	return n
}

func TestKmallocIsDisjoint(t *testing.T) {
	lib := New()
	a := lib.Kmalloc(5)
	b := lib.Kmalloc(7)

	minusOne := field.Zero.Sub(field.One)
	assert.True(t, a.Equal(minusOne.Sub(field.New(4))), "first reservation ends at -1")
	assert.True(t, b.Equal(a.Sub(field.New(7))), "second reservation sits right below the first")
	assert.Less(t, b.Value(), a.Value())

	allocations := lib.StaticAllocations()
	require.Len(t, allocations, 2)
	assert.Equal(t, uint32(12), allocations[0].Size+allocations[1].Size)

	assert.Panics(t, func() { lib.Kmalloc(0) })
}

func TestPreallocatedMemory(t *testing.T) {
	lib := New(WithPreallocatedMemory(3))
	assert.True(t, lib.PreallocatedBase().Equal(field.Zero.Sub(field.New(3))))

	base := lib.Kmalloc(2)
	assert.True(t, base.Equal(field.Zero.Sub(field.New(5))))
}

func TestImportCycle(t *testing.T) {
	lib := New()
	_, err := lib.TryImport(cyclic{name: "test_ping", partner: "test_pong"})
	assert.ErrorIs(t, err, ErrImportCycle)

	assert.Panics(t, func() {
		New().Import(cyclic{name: "test_ping", partner: "test_pong"})
	})
}

// exploding fails while generating its code
type exploding struct{}

func (exploding) Entrypoint() string        { return "test_exploding" }
func (exploding) Inputs() []datatype.Param  { return nil }
func (exploding) Outputs() []datatype.Param { return nil }
func (exploding) Code(snippet.Library) []asm.LabelledInstruction {
	panic("boom")
}

func TestLibraryUsableAfterPanickingSnippet(t *testing.T) {
	lib := New()
	outer := testSnippet{name: "test_outer", deps: []snippet.BasicSnippet{exploding{}}}
	assert.PanicsWithValue(t, "boom", func() { _, _ = lib.TryImport(outer) })

	_, err := lib.TryImport(testSnippet{name: "test_outer"})
	require.NoError(t, err)
	assert.Equal(t, []string{"test_outer"}, lib.Entrypoints())
}

func TestConflictCheck(t *testing.T) {
	a := testSnippet{name: "test_dup", variant: 1}
	b := testSnippet{name: "test_dup", variant: 2}

	lenient := New()
	lenient.Import(a)
	lenient.Import(b)
	block, ok := lenient.Block("test_dup")
	require.True(t, ok)
	assert.Contains(t, asm.Render(block), "push 1", "first registration wins")

	strict := New(WithConflictCheck())
	strict.Import(a)
	_, err := strict.TryImport(b)
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "test_dup", conflict.Entrypoint)
	assert.Panics(t, func() { strict.Import(b) })

	// nested conflicts surface through the outer import as well
	outer := testSnippet{name: "test_outer", deps: []snippet.BasicSnippet{b}}
	_, err = strict.TryImport(outer)
	assert.ErrorAs(t, err, &conflict)
}

func TestConflictCheckReplaysKmalloc(t *testing.T) {
	lib := New(WithConflictCheck())
	s := testSnippet{name: "test_static", kmalloc: 4}
	lib.Import(s)
	lib.Kmalloc(9)

	_, err := lib.TryImport(s)
	assert.NoError(t, err)
	assert.Len(t, lib.StaticAllocations(), 2, "the conflict check must not allocate")
}

func TestBlockValidation(t *testing.T) {
	lib := New()

	_, err := lib.TryImport(testSnippet{name: "test_foreign", extra: []asm.LabelledInstruction{asm.Label("elsewhere")}})
	assert.ErrorIs(t, err, ErrInvalidBlock)

	_, err = lib.TryImport(testSnippet{name: "test_local", extra: []asm.LabelledInstruction{asm.Label("test_local_loop")}})
	assert.NoError(t, err)

	_, err = lib.TryImport(testSnippet{name: "test_dangling", extra: []asm.LabelledInstruction{asm.Call("nowhere")}})
	require.NoError(t, err)
	assert.ErrorIs(t, lib.ValidateClosure(), asm.ErrUndefinedLabel)
}

func TestFingerprint(t *testing.T) {
	a := FingerprintOf([]asm.LabelledInstruction{asm.Label("x"), asm.Return()})
	b := FingerprintOf([]asm.LabelledInstruction{asm.Label("x"), asm.Nop(), asm.Return()})
	assert.NotEqual(t, a, b)
	assert.NotEmpty(t, a.String())
}
