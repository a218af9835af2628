package bencher

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/config"
)

// ErrNotFound is returned when no benchmark is stored for an entrypoint
var ErrNotFound = errors.New("benchmark not found")

// ErrClosed is returned when a store is used after Close
var ErrClosed = errors.New("store closed")

// Store persists benchmark results keyed by entrypoint. Implementations are
// safe for concurrent use.
type Store interface {
	// Save replaces the results stored for entrypoint
	Save(entrypoint string, results []BenchmarkResult) error

	// Load returns the results stored for entrypoint, or ErrNotFound
	Load(entrypoint string) ([]BenchmarkResult, error)

	// Entrypoints lists every entrypoint with stored results
	Entrypoints() ([]string, error)

	Close() error
}

// OpenStore opens the backend selected by cfg under cfg.BenchmarkDir
func OpenStore(cfg *config.Config) (Store, error) {
	switch cfg.StoreBackend {
	case config.StoreJSON:
		return OpenJSONStore(cfg.BenchmarkDir)
	case config.StoreBolt:
		return OpenBoltStore(filepath.Join(cfg.BenchmarkDir, "benchmarks.db"))
	case config.StoreBadger:
		return OpenBadgerStore(filepath.Join(cfg.BenchmarkDir, "badger"), false)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}
