package hashing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"

	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/core"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/harness"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/library"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/linker"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/memory"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/prng"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/snippet"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/snippets/list"
)

func TestEqDigest(t *testing.T) {
	harness.Test(t, EqDigest{})
}

func TestMerkleRoot(t *testing.T) {
	harness.Test(t, MerkleRoot{})
}

func TestHashVarlen(t *testing.T) {
	harness.Test(t, HashVarlen{})
}

func TestSpongeAbsorb(t *testing.T) {
	harness.Test(t, SpongeAbsorb{})
}

func TestSqueezeRepeatedly(t *testing.T) {
	for _, n := range []int{0, 1, 3, 8} {
		harness.Test(t, SqueezeRepeatedly{N: n})
	}
}

func TestLoadAuthPathFromStdIn(t *testing.T) {
	harness.Test(t, LoadAuthPathFromStdIn{})
}

// TestMerkleRootSmallTrees tests the root law on one and two leaves
func TestMerkleRootSmallTrees(t *testing.T) {
	rng := prng.New(prng.Seed{3})
	a, b := rng.Digest(), rng.Digest()

	for _, tc := range []struct {
		leafs []core.Digest
		want  core.Digest
	}{
		{[]core.Digest{a}, a},
		{[]core.Digest{a, b}, core.HashPair(a, b)},
	} {
		mem := make(snippet.Memory)
		p := list.RandomPointer(rng)
		list.StoreDigests(mem, p, tc.leafs)
		stack := snippet.EmptyStack(p)

		require.NoError(t, MerkleRoot{}.Reference(&stack, mem))
		root, err := snippet.PopDigest(&stack)
		require.NoError(t, err)
		assert.True(t, root.Equal(tc.want))
	}
}

func TestMerkleRootRejectsOddLeafCount(t *testing.T) {
	rng := prng.New(prng.Seed{4})
	mem := make(snippet.Memory)
	p := list.RandomPointer(rng)
	list.StoreDigests(mem, p, rng.Digests(3))
	stack := snippet.EmptyStack(p)
	assert.Error(t, MerkleRoot{}.Reference(&stack, mem))
}

func TestHashVarlenMatchesCore(t *testing.T) {
	rng := prng.New(prng.Seed{5})
	input := rng.Elements(23)
	mem := make(snippet.Memory)
	p := list.RandomPointer(rng)
	for i, w := range input {
		mem[p.Add(field.New(uint64(i)))] = w
	}

	stack := snippet.EmptyStack(p, field.New(uint64(len(input))))
	var sponge *core.Sponge
	_, err := HashVarlen{}.Reference(&stack, mem, nil, nil, &sponge)
	require.NoError(t, err)
	digest, err := snippet.PopDigest(&stack)
	require.NoError(t, err)
	assert.True(t, digest.Equal(core.HashVarlen(input)))
}

func TestSpongeAbsorbNeedsInitialisedSponge(t *testing.T) {
	h := harness.Default(t)
	shadow := harness.MustWrap(t, SpongeAbsorb{})
	state, err := shadow.InitialState(prng.Seed{6}, nil)
	require.NoError(t, err)
	state.Sponge = nil
	h.TestFailure(t, shadow, state)
}

func TestLoadAuthPathRoundTrip(t *testing.T) {
	rng := prng.New(prng.Seed{8})
	path := rng.Digests(4)
	stack := snippet.EmptyStack()
	mem := make(snippet.Memory)

	_, err := LoadAuthPathFromStdIn{}.Reference(&stack, mem, nil, EncodeAuthPath(path), nil)
	require.NoError(t, err)
	p, err := snippet.Pop(&stack)
	require.NoError(t, err)
	assert.True(t, p.Equal(memory.FirstDynamicAddress))
	assert.Equal(t, path, list.LoadDigests(mem, p))
}

func TestLoadAuthPathTruncatedInput(t *testing.T) {
	h := harness.Default(t)
	shadow := harness.MustWrap(t, LoadAuthPathFromStdIn{})
	state, err := shadow.InitialState(prng.Seed{9}, nil)
	require.NoError(t, err)
	state.PublicInput = EncodeAuthPath(prng.New(prng.Seed{9}).Digests(3))[:12]
	h.TestFailure(t, shadow, state)
}

// TestSharedDependencyLinkedOnce tests that snippets sharing the allocator
// link a single copy of it
func TestSharedDependencyLinkedOnce(t *testing.T) {
	lib := library.New()
	lib.Import(MerkleRoot{})
	lib.Import(SqueezeRepeatedly{N: 2})

	code, err := linker.Link(LoadAuthPathFromStdIn{}, lib)
	require.NoError(t, err)

	malloc := memory.DynMalloc{}.Entrypoint()
	calls := 0
	for _, li := range code {
		if li.IsCall() && li.Label == malloc {
			calls++
		}
	}
	assert.Equal(t, 4, lib.Len())
	assert.Equal(t, 3, calls)
}

func TestBenchmarks(t *testing.T) {
	h := harness.Default(t)
	for _, s := range []snippet.BasicSnippet{MerkleRoot{}, HashVarlen{}, SqueezeRepeatedly{N: 4}} {
		results, err := h.Benchmark(harness.MustWrap(t, s))
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.LessOrEqual(t, results[0].ClockCycleCount, results[1].ClockCycleCount, s.Entrypoint())
	}
}
