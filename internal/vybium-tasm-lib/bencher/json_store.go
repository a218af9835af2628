package bencher

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/juju/fslock"
)

// JSONStore keeps one pretty-printed <entrypoint>.json file per entrypoint.
// Writers in other processes are excluded by a lock file in the directory.
type JSONStore struct {
	dir  string
	lock *fslock.Lock
	mu   sync.Mutex
}

// OpenJSONStore creates the directory if needed
func OpenJSONStore(dir string) (*JSONStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create directory: %w", err)
	}
	return &JSONStore{
		dir:  dir,
		lock: fslock.New(filepath.Join(dir, ".lock")),
	}, nil
}

// Path returns the file results for entrypoint are stored in
func (s *JSONStore) Path(entrypoint string) string {
	return filepath.Join(s.dir, entrypoint+".json")
}

// Save writes the results through a temporary file
func (s *JSONStore) Save(entrypoint string, results []BenchmarkResult) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", entrypoint, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("lock %s: %w", s.dir, err)
	}
	defer s.lock.Unlock()

	tmp := s.Path(entrypoint) + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.Path(entrypoint)); err != nil {
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	return nil
}

// Load reads the results of one entrypoint
func (s *JSONStore) Load(entrypoint string) ([]BenchmarkResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.Path(entrypoint))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, entrypoint)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", entrypoint, err)
	}

	var results []BenchmarkResult
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, fmt.Errorf("decode %s: %w", entrypoint, err)
	}
	return results, nil
}

// Entrypoints lists the stored entrypoints in lexical order
func (s *JSONStore) Entrypoints() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(names)
	return names, nil
}

// Close is a no-op; files are written eagerly
func (s *JSONStore) Close() error {
	return nil
}
