package bencher

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/config"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/vm"
)

func sampleResults(name string, cycles uint64) []BenchmarkResult {
	heights := vm.TableHeights{Processor: cycles, Hash: 12, U32: 3, OpStack: 40, RAM: 9, JumpStack: 2, ProgramHash: 6}
	return []BenchmarkResult{
		NewBenchmarkResult(name, CommonCase, heights, "fp"),
		NewBenchmarkResult(name, WorstCase, heights, "fp"),
	}
}

func TestBenchmarkCaseJSON(t *testing.T) {
	data, err := json.Marshal(sampleResults("tasmlib_x", 10)[1])
	require.NoError(t, err)
	assert.Contains(t, string(data), `"case":"WorstCase"`)
	assert.Contains(t, string(data), `"clock_cycle_count":10`)

	var decoded BenchmarkResult
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, WorstCase, decoded.Case)

	var c BenchmarkCase
	assert.Error(t, json.Unmarshal([]byte(`"AverageCase"`), &c))
}

func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	defer store.Close()

	_, err := store.Load("tasmlib_missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Save("tasmlib_b", sampleResults("tasmlib_b", 20)))
	require.NoError(t, store.Save("tasmlib_a", sampleResults("tasmlib_a", 10)))
	require.NoError(t, store.Save("tasmlib_a", sampleResults("tasmlib_a", 11)))

	loaded, err := store.Load("tasmlib_a")
	require.NoError(t, err)
	assert.Equal(t, sampleResults("tasmlib_a", 11), loaded)

	names, err := store.Entrypoints()
	require.NoError(t, err)
	assert.Equal(t, []string{"tasmlib_a", "tasmlib_b"}, names)
}

func TestJSONStore(t *testing.T) {
	store, err := OpenJSONStore(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "tasmlib_a.json", filepath.Base(store.Path("tasmlib_a")))
	exerciseStore(t, store)
}

func TestBoltStore(t *testing.T) {
	store, err := OpenBoltStore(filepath.Join(t.TempDir(), "bench.db"))
	require.NoError(t, err)
	exerciseStore(t, store)

	_, err = store.Load("tasmlib_a")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestBadgerStore(t *testing.T) {
	store, err := OpenBadgerStore("", true)
	require.NoError(t, err)
	exerciseStore(t, store)
}

func TestOpenStore(t *testing.T) {
	for _, backend := range []string{config.StoreJSON, config.StoreBolt, config.StoreBadger} {
		cfg := config.DefaultConfig().WithBenchmarkDir(t.TempDir()).WithStoreBackend(backend)
		store, err := OpenStore(cfg)
		require.NoError(t, err, backend)
		require.NoError(t, store.Close())
	}

	_, err := OpenStore(config.DefaultConfig().WithStoreBackend("csv"))
	assert.Error(t, err)
}

func TestCompare(t *testing.T) {
	old := sampleResults("tasmlib_a", 100)
	current := sampleResults("tasmlib_a", 90)
	current[1].RAMTableHeight = 20

	changes := Compare(old, current)
	require.Len(t, changes, 3)
	assert.False(t, changes[0].Regression())
	assert.Equal(t, "clock_cycle_count", changes[0].Metric)
	assert.True(t, changes[2].Regression())
	assert.Contains(t, Report(changes), "tasmlib_a/WorstCase ram_table_height regressed: 9 -> 20")

	assert.Empty(t, Compare(old, old))
}
