// Package facestore persists the mapping from employee id to face
// encoding. The whole table is small (tens to low thousands of entries)
// and is rewritten as a unit on every change; a mutex serializes the
// load-modify-save sequence.
package facestore

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// Store is a file-backed map from employee id to face encoding.
type Store struct {
	mu        sync.Mutex
	path      string
	encodings map[string][]float32
	index     *Index // optional HNSW index, nil unless EnableIndex is called
}

// Open loads the store from the given path. A missing file starts an
// empty store; an unreadable or corrupt file also starts empty and logs
// a warning instead of failing startup.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("encoding store path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}

	s := &Store{
		path:      path,
		encodings: make(map[string][]float32),
	}

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		log.Printf("Warning: cannot read encoding store %s, starting empty: %v", path, err)
		return s, nil
	}
	defer f.Close()

	encodings, err := decode(f)
	if err != nil {
		log.Printf("Warning: encoding store %s is corrupt, starting empty: %v", path, err)
		return s, nil
	}
	s.encodings = encodings
	return s, nil
}

// Put inserts or replaces the encoding for the employee and persists the
// full mapping atomically.
func (s *Store) Put(employeeID string, encoding []float32) error {
	vec := make([]float32, len(encoding))
	copy(vec, encoding)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.encodings[employeeID] = vec
	if err := s.saveLocked(); err != nil {
		return err
	}
	if s.index != nil {
		s.index.Put(employeeID, vec)
	}
	return nil
}

// Remove deletes the entry for the employee; no-op if absent.
func (s *Store) Remove(employeeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.encodings[employeeID]; !ok {
		return nil
	}
	delete(s.encodings, employeeID)
	if err := s.saveLocked(); err != nil {
		return err
	}
	if s.index != nil {
		s.index.Remove(employeeID)
	}
	return nil
}

// GetAll returns a snapshot of the mapping for matching. The vectors are
// shared; Put replaces vectors rather than mutating them, so the snapshot
// stays consistent.
func (s *Store) GetAll() map[string][]float32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := make(map[string][]float32, len(s.encodings))
	for id, vec := range s.encodings {
		snapshot[id] = vec
	}
	return snapshot
}

// Count returns the number of enrolled encodings.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.encodings)
}

// saveLocked writes the full mapping to a temporary file in the same
// directory and renames it over the store file, so a crash mid-write can
// never leave the store unreadable. Caller holds s.mu.
func (s *Store) saveLocked() error {
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp encoding file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := encode(tmp, s.encodings); err != nil {
		tmp.Close()
		return fmt.Errorf("writing encodings: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing encoding file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing encoding file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replacing encoding file: %w", err)
	}
	return nil
}
