package config

import (
	"testing"
)

// TestDefaultConfig tests the DefaultConfig function
func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config == nil {
		t.Fatal("DefaultConfig() returned nil")
	}

	if config.NumTestStates != 5 {
		t.Errorf("NumTestStates = %d, want 5", config.NumTestStates)
	}

	if config.BenchSeed.String() != BenchSeedHex {
		t.Errorf("BenchSeed = %s, want %s", config.BenchSeed, BenchSeedHex)
	}

	if err := config.Validate(); err != nil {
		t.Errorf("DefaultConfig() should be valid: %v", err)
	}
}

// TestConfigValidate tests the Validate method
func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name      string
		config    *Config
		expectErr bool
	}{
		{
			name:      "valid default config",
			config:    DefaultConfig(),
			expectErr: false,
		},
		{
			name:      "no test states",
			config:    DefaultConfig().WithNumTestStates(0),
			expectErr: true,
		},
		{
			name:      "empty benchmark dir",
			config:    DefaultConfig().WithBenchmarkDir(""),
			expectErr: true,
		},
		{
			name:      "unknown store",
			config:    DefaultConfig().WithStoreBackend("postgres"),
			expectErr: true,
		},
		{
			name:      "bolt store",
			config:    DefaultConfig().WithStoreBackend(StoreBolt),
			expectErr: false,
		},
		{
			name:      "zero cycles",
			config:    DefaultConfig().WithMaxCycles(0),
			expectErr: true,
		},
		{
			name:      "bad log level",
			config:    DefaultConfig().WithLogLevel("chatty"),
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.expectErr {
				t.Errorf("Validate() error = %v, expectErr %v", err, tt.expectErr)
			}
		})
	}
}

// TestFromEnv tests the environment overlay
func TestFromEnv(t *testing.T) {
	t.Setenv(EnvBenchDir, "/tmp/bench")
	t.Setenv(EnvStore, StoreBadger)
	t.Setenv(EnvTestStates, "9")

	config, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv() failed: %v", err)
	}
	if config.BenchmarkDir != "/tmp/bench" || config.StoreBackend != StoreBadger || config.NumTestStates != 9 {
		t.Errorf("environment not applied: %+v", config)
	}

	t.Setenv(EnvTestStates, "many")
	if _, err := FromEnv(); err == nil {
		t.Error("expected error for non-numeric test states")
	}
}

// TestClone tests that clones are independent
func TestClone(t *testing.T) {
	original := DefaultConfig()
	clone := original.Clone().WithNumTestStates(42)
	if clone.NumTestStates != 42 {
		t.Errorf("expected clone to hold 42 test states, got %d", clone.NumTestStates)
	}
	if original.NumTestStates != 5 {
		t.Errorf("modifying the clone changed the original to %d test states", original.NumTestStates)
	}
}
