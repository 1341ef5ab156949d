// Package memory provides an in-memory key-value store.
// Writes can be made to fail per key, which tests use to simulate an
// unavailable device.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/simaogato/caixinha-backend/internal/domain"
)

// Store is a mutex-guarded map implementing domain.BatchStore
type Store struct {
	mu        sync.Mutex
	data      map[string][]byte
	failWrite map[string]error
	failRead  map[string]error
}

// NewStore creates an empty Store
func NewStore() *Store {
	return &Store{
		data:      make(map[string][]byte),
		failWrite: make(map[string]error),
		failRead:  make(map[string]error),
	}
}

// Get returns a copy of the value stored under key
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.failRead[key]; err != nil {
		return nil, false, fmt.Errorf("read %q: %w", key, err)
	}

	value, ok := s.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), value...), true, nil
}

// Set stores a copy of value under key
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.failWrite[key]; err != nil {
		return fmt.Errorf("write %q: %w", key, err)
	}

	s.data[key] = append([]byte(nil), value...)
	return nil
}

// SetMany stores all entries, or none when any key is set to fail
func (s *Store) SetMany(ctx context.Context, entries map[string][]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, key := range sortedKeys(entries) {
		if err := s.failWrite[key]; err != nil {
			return fmt.Errorf("write %q: %w", key, err)
		}
	}

	for key, value := range entries {
		s.data[key] = append([]byte(nil), value...)
	}
	return nil
}

// FailOn makes every subsequent write touching key return err.
// A nil err clears the failure.
func (s *Store) FailOn(key string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err == nil {
		delete(s.failWrite, key)
		return
	}
	s.failWrite[key] = err
}

// FailReadOn makes every subsequent Get of key return err.
// A nil err clears the failure.
func (s *Store) FailReadOn(key string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err == nil {
		delete(s.failRead, key)
		return
	}
	s.failRead[key] = err
}

func sortedKeys(m map[string][]byte) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Compile-time check: ensure Store implements BatchStore interface
var _ domain.BatchStore = (*Store)(nil)
