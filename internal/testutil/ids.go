package testutil

import (
	"fmt"
	"sync"
)

// SequentialIDGenerator generates predictable ids for tests.
//
// This enables deterministic test execution and golden snapshot comparison:
// the same scenario produces byte-identical analytics ids and bundles.
//
// Thread-safety: SequentialIDGenerator is safe for concurrent use via internal mutex.
type SequentialIDGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequentialIDGenerator creates a generator returning prefix-0001,
// prefix-0002, ... If prefix is empty, "test-id" is used.
func NewSequentialIDGenerator(prefix string) *SequentialIDGenerator {
	if prefix == "" {
		prefix = "test-id"
	}
	return &SequentialIDGenerator{prefix: prefix}
}

// Generate returns the next id.
func (g *SequentialIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%04d", g.prefix, g.n)
}
