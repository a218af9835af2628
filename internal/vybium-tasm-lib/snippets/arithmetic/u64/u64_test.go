package u64

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"

	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/harness"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/prng"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/snippet"
)

func TestEq(t *testing.T) {
	harness.Test(t, Eq{})
}

func TestDecr(t *testing.T) {
	harness.Test(t, Decr{})
}

func TestAnd(t *testing.T) {
	harness.Test(t, And{})
}

func TestPow2(t *testing.T) {
	harness.Test(t, Pow2{})
}

func TestLeadingZeros(t *testing.T) {
	harness.Test(t, LeadingZeros{})
}

func TestDecrZeroCrashes(t *testing.T) {
	h := harness.Default(t)
	shadow := harness.MustWrap(t, Decr{})
	state, err := shadow.InitialState(snippetSeed(), nil)
	require.NoError(t, err)

	n := len(state.Stack)
	state.Stack[n-1], state.Stack[n-2] = field.Zero, field.Zero
	h.TestAssertionFailure(t, shadow, state, DecrOverflowErrorID)
}

func TestPow2ExponentTooLarge(t *testing.T) {
	h := harness.Default(t)
	shadow := harness.MustWrap(t, Pow2{})
	for _, e := range []uint64{64, 65, 1000, 1<<32 - 1} {
		state, err := shadow.InitialState(snippetSeed(), nil)
		require.NoError(t, err)
		state.Stack[len(state.Stack)-1] = field.New(e)
		h.TestAssertionFailure(t, shadow, state, Pow2ExponentTooLargeErrorID)
	}
}

func TestAndRejectsNonU32Halves(t *testing.T) {
	h := harness.Default(t)
	shadow := harness.MustWrap(t, And{})
	state, err := shadow.InitialState(snippetSeed(), nil)
	require.NoError(t, err)
	state.Stack[len(state.Stack)-1] = field.New(1 << 33)
	h.TestFailure(t, shadow, state)
}

func TestLeadingZerosReference(t *testing.T) {
	cases := map[uint64]uint64{0: 64, 1: 63, 1 << 31: 32, 1 << 32: 31, 1<<64 - 1: 0}
	for v, want := range cases {
		stack := stackWith(v)
		require.NoError(t, LeadingZeros{}.Reference(&stack))
		assert.Equal(t, want, stack[len(stack)-1].Value(), "clz(%d)", v)
	}
}

func TestDecrReference(t *testing.T) {
	stack := snippet.EmptyStack()
	snippet.PushU64(&stack, 5)
	require.NoError(t, Decr{}.Reference(&stack))
	v, err := snippet.PopU64(&stack)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), v)
}

func TestBenchmarks(t *testing.T) {
	h := harness.Default(t)
	for _, s := range []snippet.BasicSnippet{Eq{}, Decr{}, And{}, Pow2{}, LeadingZeros{}} {
		first, err := h.Benchmark(harness.MustWrap(t, s))
		require.NoError(t, err)
		second, err := h.Benchmark(harness.MustWrap(t, s))
		require.NoError(t, err)
		assert.Equal(t, first, second, s.Entrypoint())
	}
}

func snippetSeed() prng.Seed {
	return prng.Seed{1, 2, 3}
}
