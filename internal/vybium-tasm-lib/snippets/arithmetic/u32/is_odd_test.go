package u32

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"

	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/harness"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/snippet"
)

func TestIsOdd(t *testing.T) {
	harness.Test(t, IsOdd{})
}

func TestIsOddReference(t *testing.T) {
	for v, want := range map[uint64]uint64{0: 0, 7: 1, 10: 0, 4294967295: 1} {
		stack := snippet.EmptyStack(field.New(v))
		require.NoError(t, IsOdd{}.Reference(&stack))
		require.Equal(t, want, stack[len(stack)-1].Value())
	}
}

// TestIsOddRejectsNonU32 tests that both sides fail on a value above u32
func TestIsOddRejectsNonU32(t *testing.T) {
	h := harness.Default(t)
	shadow := harness.MustWrap(t, IsOdd{})
	state, err := shadow.InitialState([32]byte{}, nil)
	require.NoError(t, err)
	state.Stack[len(state.Stack)-1] = field.New(1 << 40)
	h.TestFailure(t, shadow, state)
}

func TestIsOddBenchmark(t *testing.T) {
	results, err := harness.Default(t).Benchmark(harness.MustWrap(t, IsOdd{}))
	require.NoError(t, err)
	require.Len(t, results, 2)
}
