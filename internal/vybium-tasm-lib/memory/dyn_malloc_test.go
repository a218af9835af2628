package memory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"

	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/harness"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/memory"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/snippet"
)

func TestDynMalloc(t *testing.T) {
	harness.Test(t, memory.DynMalloc{})
}

func TestDynMallocBenchmark(t *testing.T) {
	h := harness.Default(t)
	results, err := h.Benchmark(harness.MustWrap(t, memory.DynMalloc{}))
	assert.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestAllocateFirstAddress(t *testing.T) {
	mem := make(snippet.Memory)
	first := memory.Allocate(mem, 5)
	second := memory.Allocate(mem, 3)

	assert.True(t, first.Equal(memory.FirstDynamicAddress))
	assert.Equal(t, uint64(6), second.Value())
	assert.Equal(t, uint64(9), mem[memory.DynMallocAddress].Value())
}

func TestAllocateZeroSize(t *testing.T) {
	mem := snippet.Memory{memory.DynMallocAddress: field.New(100)}
	assert.Equal(t, uint64(100), memory.Allocate(mem, 0).Value())
	assert.Equal(t, uint64(100), memory.Allocate(mem, 0).Value())
}
