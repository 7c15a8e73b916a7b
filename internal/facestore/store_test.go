package facestore

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func testStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "encodings.bin")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	return s, path
}

func TestPutGetRemove(t *testing.T) {
	s, _ := testStore(t)

	if err := s.Put("emp-1", []float32{0.1, 0.2, 0.3}); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	if err := s.Put("emp-2", []float32{0.4, 0.5, 0.6}); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	all := s.GetAll()
	if len(all) != 2 {
		t.Fatalf("expected 2 encodings, got %d", len(all))
	}
	if all["emp-1"][0] != 0.1 {
		t.Errorf("unexpected encoding for emp-1: %v", all["emp-1"])
	}

	if err := s.Remove("emp-1"); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if s.Count() != 1 {
		t.Errorf("expected 1 encoding after remove, got %d", s.Count())
	}

	// Removing a missing entry is a no-op, not an error.
	if err := s.Remove("emp-1"); err != nil {
		t.Errorf("removing absent entry should be a no-op, got %v", err)
	}
}

func TestPutReplacesEncoding(t *testing.T) {
	s, _ := testStore(t)

	if err := s.Put("emp-1", []float32{1, 1, 1}); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	if err := s.Put("emp-1", []float32{2, 2, 2}); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	all := s.GetAll()
	if len(all) != 1 {
		t.Fatalf("expected 1 encoding, got %d", len(all))
	}
	if all["emp-1"][0] != 2 {
		t.Errorf("re-enrollment should replace the encoding, got %v", all["emp-1"])
	}
}

func TestPersistenceRoundtrip(t *testing.T) {
	s, path := testStore(t)

	if err := s.Put("emp-1", []float32{0.25, -0.5}); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	if err := s.Put("emp-2", []float32{1.5, 2.5}); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("failed to reopen store: %v", err)
	}

	all := reopened.GetAll()
	if len(all) != 2 {
		t.Fatalf("expected 2 encodings after reopen, got %d", len(all))
	}
	if all["emp-1"][1] != -0.5 {
		t.Errorf("unexpected encoding after reopen: %v", all["emp-1"])
	}
}

func TestCorruptFileStartsEmpty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "encodings.bin")
	if err := os.WriteFile(path, []byte("this is not an encoding file"), 0o644); err != nil {
		t.Fatalf("failed to write corrupt file: %v", err)
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("corrupt file must not fail startup: %v", err)
	}
	if s.Count() != 0 {
		t.Errorf("expected empty store from corrupt file, got %d entries", s.Count())
	}

	// The store must be usable and persist over the corrupt file.
	if err := s.Put("emp-1", []float32{1}); err != nil {
		t.Fatalf("put after corrupt load failed: %v", err)
	}
	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("failed to reopen store: %v", err)
	}
	if reopened.Count() != 1 {
		t.Errorf("expected 1 encoding after rewrite, got %d", reopened.Count())
	}
}

func TestTruncatedFileStartsEmpty(t *testing.T) {
	s, path := testStore(t)
	if err := s.Put("emp-1", []float32{0.1, 0.2, 0.3, 0.4}); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read store file: %v", err)
	}
	if err := os.WriteFile(path, data[:len(data)-3], 0o644); err != nil {
		t.Fatalf("failed to truncate store file: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("truncated file must not fail startup: %v", err)
	}
	if reopened.Count() != 0 {
		t.Errorf("expected empty store from truncated file, got %d entries", reopened.Count())
	}
}

func TestConcurrentPuts(t *testing.T) {
	s, path := testStore(t)

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := string(rune('a' + i))
			if err := s.Put("emp-"+id, []float32{float32(i)}); err != nil {
				t.Errorf("concurrent put failed: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if s.Count() != 10 {
		t.Fatalf("expected 10 encodings, got %d", s.Count())
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("failed to reopen store: %v", err)
	}
	if reopened.Count() != 10 {
		t.Errorf("expected 10 persisted encodings, got %d", reopened.Count())
	}
}
