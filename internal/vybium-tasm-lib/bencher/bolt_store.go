package bencher

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
)

var bucketBenchmarks = []byte("benchmarks")

// BoltStore keeps zstd-compressed JSON results in a bbolt bucket
type BoltStore struct {
	db     *bolt.DB
	mu     sync.RWMutex
	closed bool
}

// OpenBoltStore creates or opens the database file at path
func OpenBoltStore(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketBenchmarks)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init buckets: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// Save stores the results of one entrypoint
func (s *BoltStore) Save(entrypoint string, results []BenchmarkResult) error {
	data, err := encodeResults(results, true)
	if err != nil {
		return fmt.Errorf("encode %s: %w", entrypoint, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketBenchmarks).Put([]byte(entrypoint), data)
	})
}

// Load reads the results of one entrypoint
func (s *BoltStore) Load(entrypoint string) ([]BenchmarkResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketBenchmarks).Get([]byte(entrypoint))
		if v == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, entrypoint)
		}
		data = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	results, err := decodeResults(data, true)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", entrypoint, err)
	}
	return results, nil
}

// Entrypoints lists the stored entrypoints in key order
func (s *BoltStore) Entrypoints() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	var names []string
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketBenchmarks).ForEach(func(k, _ []byte) error {
			names = append(names, string(k))
			return nil
		})
	})
	return names, err
}

// Close closes the database
func (s *BoltStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
