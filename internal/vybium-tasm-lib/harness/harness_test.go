package harness

import (
	"bytes"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"

	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/asm"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/bencher"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/config"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/core"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/datatype"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/logger"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/memory"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/prng"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/snippet"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/vm"
)

func bfe(name string) []datatype.Param { return []datatype.Param{datatype.P(datatype.BFE, name)} }

// double: _ x -> _ 2x, with a reference that can be told to lie
type double struct{ lie bool }

func (double) Entrypoint() string        { return "test_double" }
func (double) Inputs() []datatype.Param  { return bfe("x") }
func (double) Outputs() []datatype.Param { return bfe("2x") }
func (double) Code(snippet.Library) []asm.LabelledInstruction {
	return []asm.LabelledInstruction{asm.Label("test_double"), asm.Dup(0), asm.Add(), asm.Return()}
}

func (d double) Reference(stack *[]field.Element) error {
	x, err := snippet.Pop(stack)
	if err != nil {
		return err
	}
	if d.lie {
		x = x.Add(field.One)
	}
	snippet.Push(stack, x.Add(x))
	return nil
}

func (double) PseudorandomInitialState(seed prng.Seed, _ *bencher.BenchmarkCase) snippet.ClosureInitialState {
	return snippet.ClosureInitialState{Stack: snippet.EmptyStack(prng.New(seed).Element())}
}

func (double) CornerCases() []snippet.ClosureInitialState {
	return []snippet.ClosureInitialState{
		{Stack: snippet.EmptyStack(field.Zero)},
		{Stack: snippet.EmptyStack(field.Zero.Sub(field.One))},
	}
}

// overdeclared behaves like double but declares two outputs
type overdeclared struct{ double }

func (overdeclared) Entrypoint() string { return "test_overdeclared" }
func (overdeclared) Outputs() []datatype.Param {
	return []datatype.Param{datatype.P(datatype.BFE, "a"), datatype.P(datatype.BFE, "b")}
}
func (overdeclared) Code(snippet.Library) []asm.LabelledInstruction {
	return []asm.LabelledInstruction{asm.Label("test_overdeclared"), asm.Dup(0), asm.Add(), asm.Return()}
}

// assertOne: _ x -> _, crashing with id 7 unless x = 1
type assertOne struct{}

func (assertOne) Entrypoint() string        { return "test_assert_one" }
func (assertOne) Inputs() []datatype.Param  { return bfe("x") }
func (assertOne) Outputs() []datatype.Param { return nil }
func (assertOne) Code(snippet.Library) []asm.LabelledInstruction {
	return []asm.LabelledInstruction{asm.Label("test_assert_one"), asm.Assert().WithErrorID(7), asm.Return()}
}

func (assertOne) Reference(stack *[]field.Element) error {
	x, err := snippet.Pop(stack)
	if err != nil {
		return err
	}
	if !x.Equal(field.One) {
		return snippet.Fail(7, "%d is not one", x.Value())
	}
	return nil
}

func (assertOne) PseudorandomInitialState(prng.Seed, *bencher.BenchmarkCase) snippet.ClosureInitialState {
	return snippet.ClosureInitialState{Stack: snippet.EmptyStack(field.One)}
}

// store: _ v addr -> _, writing m[addr] = v over a cell that is already set
type store struct{}

func (store) Entrypoint() string { return "test_store" }
func (store) Inputs() []datatype.Param {
	return []datatype.Param{datatype.P(datatype.BFE, "v"), datatype.P(datatype.VoidPointer, "addr")}
}
func (store) Outputs() []datatype.Param { return nil }
func (store) Code(snippet.Library) []asm.LabelledInstruction {
	return []asm.LabelledInstruction{asm.Label("test_store"), asm.WriteMem(1), asm.Pop(1), asm.Return()}
}

func (store) Reference(stack *[]field.Element, mem snippet.Memory) error {
	addr, err := snippet.Pop(stack)
	if err != nil {
		return err
	}
	v, err := snippet.Pop(stack)
	if err != nil {
		return err
	}
	mem[addr] = v
	return nil
}

func (store) PseudorandomInitialState(seed prng.Seed, _ *bencher.BenchmarkCase) snippet.FunctionInitialState {
	rng := prng.New(seed)
	addr := field.New(rng.Range(1<<32, 1<<40))
	return snippet.FunctionInitialState{
		Stack:  snippet.EmptyStack(field.New(rng.Range(1, 1<<32)), addr),
		Memory: snippet.Memory{addr: field.New(rng.Range(1, 1<<32))},
	}
}

// boxed: _ v -> _ *box, allocating one word for v. A lying reference
// stores v + 1.
type boxed struct{ lie bool }

func (boxed) Entrypoint() string        { return "test_boxed" }
func (boxed) Inputs() []datatype.Param  { return bfe("v") }
func (boxed) Outputs() []datatype.Param { return []datatype.Param{datatype.P(datatype.VoidPointer, "*box")} }
func (b boxed) Code(lib snippet.Library) []asm.LabelledInstruction {
	malloc := lib.Import(memory.DynMalloc{})
	return []asm.LabelledInstruction{
		asm.Label(b.Entrypoint()),
		asm.Push(1),
		asm.Call(malloc),
		// _ v *box
		asm.Swap(1),
		asm.Dup(1),
		asm.WriteMem(1),
		asm.Pop(1),
		asm.Return(),
	}
}

func (b boxed) Reference(stack *[]field.Element, mem snippet.Memory) error {
	v, err := snippet.Pop(stack)
	if err != nil {
		return err
	}
	if b.lie {
		v = v.Add(field.One)
	}
	addr := memory.Allocate(mem, 1)
	mem[addr] = v
	snippet.Push(stack, addr)
	return nil
}

func (boxed) PseudorandomInitialState(seed prng.Seed, _ *bencher.BenchmarkCase) snippet.FunctionInitialState {
	return snippet.FunctionInitialState{Stack: snippet.EmptyStack(prng.New(seed).Element())}
}

// echo: _ -> _, copying one element from standard input to standard output
// and absorbing nothing. A lying reference writes the element plus one.
type echo struct{ lie bool }

func (echo) Entrypoint() string        { return "test_echo" }
func (echo) Inputs() []datatype.Param  { return nil }
func (echo) Outputs() []datatype.Param { return nil }
func (echo) Code(snippet.Library) []asm.LabelledInstruction {
	return []asm.LabelledInstruction{asm.Label("test_echo"), asm.ReadIo(1), asm.WriteIo(1), asm.Return()}
}

func (e echo) Reference(stack *[]field.Element, _ snippet.Memory, _ *vm.NonDeterminism,
	stdin []field.Element, _ **core.Sponge) ([]field.Element, error) {
	if len(stdin) == 0 {
		return nil, errors.New("empty standard input")
	}
	if e.lie {
		return []field.Element{stdin[0].Add(field.One)}, nil
	}
	return stdin[:1], nil
}

func (echo) PseudorandomInitialState(seed prng.Seed, _ *bencher.BenchmarkCase) snippet.ProcedureInitialState {
	return snippet.ProcedureInitialState{
		Stack:       snippet.EmptyStack(),
		PublicInput: prng.New(seed).Elements(3),
	}
}

// spongeInit: _ -> _, resetting the sponge. A lying reference also absorbs
// a block of zeros.
type spongeInit struct{ lie bool }

func (spongeInit) Entrypoint() string        { return "test_sponge_init" }
func (spongeInit) Inputs() []datatype.Param  { return nil }
func (spongeInit) Outputs() []datatype.Param { return nil }
func (spongeInit) Code(snippet.Library) []asm.LabelledInstruction {
	return []asm.LabelledInstruction{asm.Label("test_sponge_init"), asm.SpongeInit(), asm.Return()}
}

func (s spongeInit) Reference(_ *[]field.Element, _ snippet.Memory, _ *vm.NonDeterminism,
	_ []field.Element, sponge **core.Sponge) ([]field.Element, error) {
	fresh := core.NewSponge()
	if s.lie {
		var zeros [core.SpongeRate]field.Element
		fresh.Absorb(zeros)
	}
	*sponge = fresh
	return nil, nil
}

func (spongeInit) PseudorandomInitialState(prng.Seed, *bencher.BenchmarkCase) snippet.ProcedureInitialState {
	return snippet.ProcedureInitialState{Stack: snippet.EmptyStack()}
}

// mislabelled asserts with id 7 in code but fails with id 8 in its reference
type mislabelled struct{ assertOne }

func (mislabelled) Entrypoint() string { return "test_mislabelled" }
func (mislabelled) Code(snippet.Library) []asm.LabelledInstruction {
	return []asm.LabelledInstruction{asm.Label("test_mislabelled"), asm.Assert().WithErrorID(7), asm.Return()}
}

func (mislabelled) Reference(stack *[]field.Element) error {
	if _, err := snippet.Pop(stack); err != nil {
		return err
	}
	return snippet.Fail(8, "always")
}

// stashLow is store on a fresh cell below the allocation frontier
type stashLow struct{ store }

func (stashLow) Entrypoint() string { return "test_stash_low" }
func (stashLow) Code(snippet.Library) []asm.LabelledInstruction {
	return []asm.LabelledInstruction{asm.Label("test_stash_low"), asm.WriteMem(1), asm.Pop(1), asm.Return()}
}

func (stashLow) PseudorandomInitialState(seed prng.Seed, _ *bencher.BenchmarkCase) snippet.FunctionInitialState {
	rng := prng.New(seed)
	return snippet.FunctionInitialState{
		Stack:  snippet.EmptyStack(field.New(rng.Range(1, 1<<32)), field.New(rng.Range(1, 1<<20))),
		Memory: snippet.Memory{memory.DynMallocAddress: field.New(1 << 30)},
	}
}

func newHarness(t *testing.T) *Harness {
	cfg := config.DefaultConfig().
		WithBenchmarkDir(t.TempDir()).
		WithNumTestStates(3)
	h, err := New(cfg)
	require.NoError(t, err)
	return h
}

func TestWrapCapabilities(t *testing.T) {
	cases := []struct {
		s    snippet.BasicSnippet
		want snippet.Capability
	}{
		{double{}, snippet.CapabilityClosure},
		{store{}, snippet.CapabilityFunction},
		{echo{}, snippet.CapabilityProcedure},
	}
	for _, tc := range cases {
		shadow, err := Wrap(tc.s)
		require.NoError(t, err)
		assert.Equal(t, tc.want, shadow.Capability())
		assert.Equal(t, tc.s.Entrypoint(), shadow.Snippet().Entrypoint())
	}
}

func TestEquivalenceHolds(t *testing.T) {
	h := newHarness(t)
	h.Test(t, MustWrap(t, double{}))
	h.Test(t, MustWrap(t, boxed{}))
	h.Test(t, MustWrap(t, echo{}))
}

func TestStackMismatch(t *testing.T) {
	h := newHarness(t)
	err := h.CheckSeed(MustWrap(t, double{lie: true}), prng.RandomSeed())

	var mismatch *MismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, AspectStack, mismatch.Aspect)
	assert.Equal(t, "test_double", mismatch.Entrypoint)
	assert.Len(t, mismatch.Seed, 64)
}

func TestStackDeltaMismatch(t *testing.T) {
	h := newHarness(t)
	err := h.CheckSeed(MustWrap(t, overdeclared{}), prng.RandomSeed())

	var mismatch *MismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, AspectStackDelta, mismatch.Aspect)
}

func TestMemoryDiscipline(t *testing.T) {
	h := newHarness(t)
	err := h.CheckSeed(MustWrap(t, store{}), prng.RandomSeed())

	var mismatch *MismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, AspectMemoryDiscipline, mismatch.Aspect)
}

func TestMemoryMismatch(t *testing.T) {
	h := newHarness(t)
	err := h.CheckSeed(MustWrap(t, boxed{lie: true}), prng.RandomSeed())

	var mismatch *MismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, AspectMemory, mismatch.Aspect)
}

func TestSpongeMismatch(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.CheckSeed(MustWrap(t, spongeInit{}), prng.RandomSeed()))

	err := h.CheckSeed(MustWrap(t, spongeInit{lie: true}), prng.RandomSeed())
	var mismatch *MismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, AspectSponge, mismatch.Aspect)
}

func TestOutputMismatch(t *testing.T) {
	h := newHarness(t)
	err := h.CheckSeed(MustWrap(t, echo{lie: true}), prng.RandomSeed())

	var mismatch *MismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, AspectOutput, mismatch.Aspect)
	assert.Contains(t, mismatch.Detail, "element 0")
}

func TestWriteBelowFrontier(t *testing.T) {
	h := newHarness(t)
	err := h.CheckSeed(MustWrap(t, stashLow{}), prng.RandomSeed())

	var mismatch *MismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, AspectMemoryDiscipline, mismatch.Aspect)
	assert.Contains(t, mismatch.Detail, "below the allocation frontier")
}

func TestMemoryIgnoresZeroCells(t *testing.T) {
	a := snippet.Memory{field.New(3): field.Zero, field.New(4): field.New(9)}
	b := snippet.Memory{field.New(4): field.New(9)}
	assert.Empty(t, diffMemory(a, b))

	b[field.New(5)] = field.One
	assert.Contains(t, diffMemory(a, b), "m[5]")
}

func TestAssertionFailure(t *testing.T) {
	h := newHarness(t)
	shadow := MustWrap(t, assertOne{})

	state, err := shadow.InitialState(prng.RandomSeed(), nil)
	require.NoError(t, err)
	require.NoError(t, h.CheckEquivalence(shadow, state))

	state.Stack[len(state.Stack)-1] = field.New(5)
	h.TestAssertionFailure(t, shadow, state, 7)
	h.TestFailure(t, shadow, state)
	assert.Error(t, h.CheckAssertionFailure(shadow, state, 8))
}

func TestAssertionFailureRequiresSameID(t *testing.T) {
	h := newHarness(t)
	shadow := MustWrap(t, mislabelled{})
	state, err := shadow.InitialState(prng.RandomSeed(), nil)
	require.NoError(t, err)
	state.Stack[len(state.Stack)-1] = field.Zero

	err = h.CheckAssertionFailure(shadow, state, 7, 8)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error id 8 in the reference and 7 in the VM")
}

func TestFailureRequiresBothSides(t *testing.T) {
	h := newHarness(t)
	shadow := MustWrap(t, double{})
	state, err := shadow.InitialState(prng.RandomSeed(), nil)
	require.NoError(t, err)
	assert.Error(t, h.CheckFailure(shadow, state))
}

func TestReferenceFailureIsReported(t *testing.T) {
	h := newHarness(t)
	shadow := MustWrap(t, double{})
	err := h.CheckEquivalence(shadow, newState(nil, nil, nil))

	var mismatch *MismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, AspectReference, mismatch.Aspect)
}

func TestBenchmarkReproducible(t *testing.T) {
	h := newHarness(t)
	shadow := MustWrap(t, boxed{})

	first, err := h.Benchmark(shadow)
	require.NoError(t, err)
	second, err := h.Benchmark(shadow)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, first, second)
	assert.Equal(t, bencher.CommonCase, first[0].Case)
	assert.Equal(t, bencher.WorstCase, first[1].Case)
	assert.NotEmpty(t, first[0].Fingerprint)
}

func TestRecordSavesResults(t *testing.T) {
	h := newHarness(t)
	shadow := MustWrap(t, double{})
	h.Bench(t, shadow)

	store, err := bencher.OpenStore(h.Config())
	require.NoError(t, err)
	defer store.Close()

	results, err := store.Load("test_double")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "test_double", results[0].Name)
	assert.Greater(t, results[0].ClockCycleCount, uint64(0))
}

func TestRecordReportsRegressions(t *testing.T) {
	h := newHarness(t)
	store, err := bencher.OpenStore(h.Config())
	require.NoError(t, err)
	stale := bencher.BenchmarkResult{Name: "test_double", ClockCycleCount: 1, Case: bencher.CommonCase}
	require.NoError(t, store.Save("test_double", []bencher.BenchmarkResult{stale}))
	require.NoError(t, store.Close())

	var buf bytes.Buffer
	prev := logger.Logger()
	logger.Set(zerolog.New(&buf))
	defer logger.Set(prev)

	_, err = h.Record(MustWrap(t, double{}))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "test_double/CommonCase clock_cycle_count regressed: 1 ->")
	assert.Contains(t, buf.String(), `"level":"warn"`)
}

func TestNewAppliesLogLevel(t *testing.T) {
	prev := logger.Logger()
	defer logger.Set(prev)

	var buf bytes.Buffer
	logger.Set(zerolog.New(&buf))
	_, err := New(config.DefaultConfig().WithBenchmarkDir(t.TempDir()).WithLogLevel("error"))
	require.NoError(t, err)

	log := logger.Logger()
	log.Info().Msg("suppressed")
	assert.Empty(t, buf.String())
	log.Error().Msg("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestDefaultReadsLogLevelFromEnv(t *testing.T) {
	prev := logger.Logger()
	defer logger.Set(prev)

	var buf bytes.Buffer
	logger.Set(zerolog.New(&buf))
	t.Setenv(config.EnvLogLevel, "error")
	t.Setenv(config.EnvBenchDir, t.TempDir())
	h := Default(t)
	assert.Equal(t, "error", h.Config().LogLevel)

	log := logger.Logger()
	log.Info().Msg("suppressed")
	assert.Empty(t, buf.String())
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	_, err := New(config.DefaultConfig().WithNumTestStates(0))
	assert.Error(t, err)
}
