package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/ownerchain/internal/ir"
)

// createTestStore creates a new store in a temporary directory for testing.
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

// putTestEntry stores a profile entry and fails the test on error.
func putTestEntry(t *testing.T, s *Store, author ir.OwnerKey, predecessor ir.Hash, payload string) ir.Entry {
	t.Helper()
	e, err := s.PutEntry(context.Background(), EntryInput{
		Author:      author,
		Kind:        ir.KindProfile,
		Predecessor: predecessor,
		Payload:     []byte(payload),
	})
	if err != nil {
		t.Fatalf("PutEntry() failed: %v", err)
	}
	return e
}

// addTestEdge links owner to target under the profile kind.
func addTestEdge(t *testing.T, s *Store, owner ir.OwnerKey, target ir.Hash) ir.Edge {
	t.Helper()
	e, err := s.AddEdge(context.Background(), EdgeInput{
		Owner:  owner,
		Kind:   ir.KindProfile,
		Target: target,
	})
	if err != nil {
		t.Fatalf("AddEdge() failed: %v", err)
	}
	return e
}
