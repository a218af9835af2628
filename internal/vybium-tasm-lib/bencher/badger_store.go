package bencher

import (
	"errors"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"
)

var prefixBench = []byte("bench/")

// BadgerStore keeps JSON results in badger under bench/<entrypoint>
type BadgerStore struct {
	db     *badger.DB
	mu     sync.RWMutex
	closed bool
}

// OpenBadgerStore opens a store at path. An in-memory store ignores path.
func OpenBadgerStore(path string, inMemory bool) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

func benchKey(entrypoint string) []byte {
	key := make([]byte, 0, len(prefixBench)+len(entrypoint))
	key = append(key, prefixBench...)
	return append(key, entrypoint...)
}

// Save stores the results of one entrypoint
func (s *BadgerStore) Save(entrypoint string, results []BenchmarkResult) error {
	data, err := encodeResults(results, false)
	if err != nil {
		return fmt.Errorf("encode %s: %w", entrypoint, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(benchKey(entrypoint), data)
	})
}

// Load reads the results of one entrypoint
func (s *BadgerStore) Load(entrypoint string) ([]BenchmarkResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	var results []BenchmarkResult
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(benchKey(entrypoint))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: %s", ErrNotFound, entrypoint)
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			decoded, err := decodeResults(val, false)
			if err != nil {
				return fmt.Errorf("decode %s: %w", entrypoint, err)
			}
			results = decoded
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// Entrypoints lists the stored entrypoints in key order
func (s *BadgerStore) Entrypoints() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	var names []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefixBench
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			names = append(names, string(it.Item().Key()[len(prefixBench):]))
		}
		return nil
	})
	return names, err
}

// Close closes the database
func (s *BadgerStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
