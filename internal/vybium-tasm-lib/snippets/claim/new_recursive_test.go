package claim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"

	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/core"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/harness"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/library"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/prng"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/snippet"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/vm"
)

func TestNewRecursive(t *testing.T) {
	for _, c := range []NewRecursive{{0, 0}, {3, 1}, {10, 5}} {
		t.Run(c.Entrypoint(), func(t *testing.T) {
			harness.Test(t, c)
		})
	}
}

func TestClaimLayout(t *testing.T) {
	c := NewRecursive{InputSize: 2, OutputSize: 1}
	digest := prng.New(prng.Seed{1}).Digest()
	tokens := []field.Element{field.New(10), field.New(11), field.New(12)}

	stack := vm.DefaultStack(digest)
	mem := make(snippet.Memory)
	_, err := c.Reference(&stack, mem, vm.NewNonDeterminism(tokens), nil, nil)
	require.NoError(t, err)

	p, err := snippet.Pop(&stack)
	require.NoError(t, err)
	assert.True(t, p.Equal(field.Zero.Sub(field.New(uint64(c.Words())))))
	assert.True(t, snippet.LoadDigest(mem, p).Equal(digest))

	at := func(i uint64) uint64 { return snippet.Load(mem, p.Add(field.New(i))).Value() }
	assert.Equal(t, uint64(2), at(core.DigestLen))
	assert.Equal(t, uint64(10), at(core.DigestLen+1))
	assert.Equal(t, uint64(11), at(core.DigestLen+2))
	assert.Equal(t, uint64(1), at(core.DigestLen+3))
	assert.Equal(t, uint64(12), at(core.DigestLen+4))
}

func TestClaimReservesStaticMemory(t *testing.T) {
	c := NewRecursive{InputSize: 4, OutputSize: 4}
	lib := library.New()
	lib.Import(c)

	allocations := lib.StaticAllocations()
	require.Len(t, allocations, 1)
	assert.Equal(t, uint32(c.Words()), allocations[0].Size)
	assert.True(t, allocations[0].Base.Equal(c.Address()))
}

func TestNewRecursiveMissingTokens(t *testing.T) {
	h := harness.Default(t)
	shadow := harness.MustWrap(t, NewRecursive{InputSize: 3, OutputSize: 3})
	state, err := shadow.InitialState(prng.Seed{2}, nil)
	require.NoError(t, err)
	state.NonDeterminism.IndividualTokens = state.NonDeterminism.IndividualTokens[:4]
	h.TestFailure(t, shadow, state)
}
