// Package config holds the settings of the test and benchmark harness
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/prng"
)

// Store backends
const (
	StoreJSON   = "json"
	StoreBolt   = "bolt"
	StoreBadger = "badger"
)

// Environment variables read by FromEnv
const (
	EnvBenchDir   = "TASMLIB_BENCH_DIR"
	EnvStore      = "TASMLIB_STORE"
	EnvLogLevel   = "TASMLIB_LOG_LEVEL"
	EnvTestStates = "TASMLIB_TEST_STATES"
)

// BenchSeedHex is the fixed seed every benchmark run starts from
const BenchSeedHex = "73a24b6b8b32e4d7d563a4d9a85f476573a24b6b8b32e4d7d563a4d9a85f4765"

// Config represents the configuration of the harness
type Config struct {
	// Number of pseudorandom states per correctness test
	NumTestStates int

	// Seed of the benchmark stream
	BenchSeed prng.Seed

	// Benchmark persistence
	BenchmarkDir string
	StoreBackend string // "json", "bolt" or "badger"

	// VM limits
	MaxCycles uint64

	// Logging
	LogLevel string
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	seed, err := prng.ParseSeed(BenchSeedHex)
	if err != nil {
		panic(err)
	}
	return &Config{
		NumTestStates: 5,
		BenchSeed:     seed,
		BenchmarkDir:  "benchmarks",
		StoreBackend:  StoreJSON,
		MaxCycles:     1 << 24,
		LogLevel:      "info",
	}
}

// FromEnv returns the default configuration overlaid with the environment
func FromEnv() (*Config, error) {
	c := DefaultConfig()
	if v := os.Getenv(EnvBenchDir); v != "" {
		c.BenchmarkDir = v
	}
	if v := os.Getenv(EnvStore); v != "" {
		c.StoreBackend = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvTestStates); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", EnvTestStates, err)
		}
		c.NumTestStates = n
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.NumTestStates <= 0 {
		return fmt.Errorf("number of test states must be positive")
	}

	if c.BenchmarkDir == "" {
		return fmt.Errorf("benchmark directory must not be empty")
	}

	if c.StoreBackend != StoreJSON && c.StoreBackend != StoreBolt && c.StoreBackend != StoreBadger {
		return fmt.Errorf("store backend must be '%s', '%s', or '%s', got '%s'",
			StoreJSON, StoreBolt, StoreBadger, c.StoreBackend)
	}

	if c.MaxCycles == 0 {
		return fmt.Errorf("max cycles must be positive")
	}

	switch c.LogLevel {
	case "trace", "debug", "info", "warn", "error", "disabled":
	default:
		return fmt.Errorf("unknown log level '%s'", c.LogLevel)
	}

	return nil
}

// WithNumTestStates sets the number of pseudorandom states per test
func (c *Config) WithNumTestStates(n int) *Config {
	c.NumTestStates = n
	return c
}

// WithBenchSeed sets the benchmark seed
func (c *Config) WithBenchSeed(seed prng.Seed) *Config {
	c.BenchSeed = seed
	return c
}

// WithBenchmarkDir sets the benchmark directory
func (c *Config) WithBenchmarkDir(dir string) *Config {
	c.BenchmarkDir = dir
	return c
}

// WithStoreBackend sets the benchmark store backend
func (c *Config) WithStoreBackend(backend string) *Config {
	c.StoreBackend = backend
	return c
}

// WithMaxCycles sets the VM cycle limit
func (c *Config) WithMaxCycles(n uint64) *Config {
	c.MaxCycles = n
	return c
}

// WithLogLevel sets the log level
func (c *Config) WithLogLevel(level string) *Config {
	c.LogLevel = level
	return c
}

// Clone creates a copy of the configuration
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}
