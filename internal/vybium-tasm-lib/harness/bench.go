package harness

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/bencher"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/library"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/logger"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/prng"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/snippet"
)

// Benchmark runs the snippet on the canonical common and worst case states
// and returns one result per case. The states come from a stream seeded
// with the configured bench seed, so results are reproducible.
func (h *Harness) Benchmark(shadow Shadow) ([]bencher.BenchmarkResult, error) {
	name := shadow.Snippet().Entrypoint()
	l, err := h.link(shadow)
	if err != nil {
		return nil, err
	}
	fingerprint := library.FingerprintOf(l.code).String()

	rng := prng.New(h.cfg.BenchSeed)
	results := make([]bencher.BenchmarkResult, 0, len(bencher.Cases))
	for _, benchCase := range bencher.Cases {
		seed := rng.Seed()
		state, err := shadow.InitialState(seed, &benchCase)
		if err != nil {
			return nil, fmt.Errorf("failed to draw %s state for %s: %w", benchCase, name, err)
		}
		final, err := l.run(state, h.cfg.MaxCycles)
		if err != nil {
			return nil, fmt.Errorf("failed to run %s on %s: %w", name, benchCase, err)
		}
		results = append(results, bencher.NewBenchmarkResult(name, benchCase, final.Heights(), fingerprint))
	}
	return results, nil
}

// Record benchmarks the snippet and saves the results to the configured
// store
func (h *Harness) Record(shadow Shadow) ([]bencher.BenchmarkResult, error) {
	results, err := h.Benchmark(shadow)
	if err != nil {
		return nil, err
	}
	store, err := bencher.OpenStore(h.cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open benchmark store: %w", err)
	}
	defer store.Close()

	log := logger.Logger()
	name := shadow.Snippet().Entrypoint()
	previous, err := store.Load(name)
	switch {
	case err == nil:
		for _, c := range bencher.Compare(previous, results) {
			if c.Regression() {
				log.Warn().Str("entrypoint", name).Msg(c.String())
			} else {
				log.Info().Str("entrypoint", name).Msg(c.String())
			}
		}
	case !errors.Is(err, bencher.ErrNotFound):
		return nil, fmt.Errorf("failed to load benchmark of %s: %w", name, err)
	}

	if err := store.Save(name, results); err != nil {
		return nil, fmt.Errorf("failed to save benchmark of %s: %w", name, err)
	}

	for _, r := range results {
		log.Info().
			Str("entrypoint", name).
			Str("case", r.Case.String()).
			Uint64("cycles", r.ClockCycleCount).
			Uint64("hash", r.HashTableHeight).
			Uint64("u32", r.U32TableHeight).
			Msg("benchmark recorded")
	}
	return results, nil
}

// Bench records the benchmark of shadow, failing t on error
func (h *Harness) Bench(t testing.TB, shadow Shadow) {
	t.Helper()
	_, err := h.Record(shadow)
	require.NoError(t, err)
}

// Bench records the benchmark of s with the default harness
func Bench(t testing.TB, s snippet.BasicSnippet) {
	t.Helper()
	Default(t).Bench(t, MustWrap(t, s))
}
