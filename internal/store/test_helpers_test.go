package store

import (
	"context"
	"path/filepath"
	"testing"
)

// createTestStore creates a new file-backed store in a temp dir.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRun writes a run and returns its id.
func createTestRun(t *testing.T, s *Store, id string) string {
	t.Helper()
	if err := s.WriteRun(context.Background(), Run{ID: id, Scenario: "scenario-" + id}); err != nil {
		t.Fatalf("WriteRun() failed: %v", err)
	}
	return id
}
