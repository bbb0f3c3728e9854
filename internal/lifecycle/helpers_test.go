package lifecycle

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/ownerchain/internal/ir"
	"github.com/roach88/ownerchain/internal/store"
	"github.com/roach88/ownerchain/internal/testutil"
)

const (
	ownerA ir.OwnerKey = "owner-a"
	ownerB ir.OwnerKey = "owner-b"
)

type testEnv struct {
	store *store.Store
	clock *testutil.DeterministicClock
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "lifecycle.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	clock := testutil.NewDeterministicClock(testutil.Epoch)
	clock.SetStep(time.Millisecond)
	return &testEnv{store: s, clock: clock}
}

func (e *testEnv) manager(owner ir.OwnerKey, opts ...Option) *Manager {
	base := []Option{
		WithClock(e.clock),
		WithIDGenerator(testutil.NewSequentialIDGenerator("alias")),
	}
	return New(e.store, owner, append(base, opts...)...)
}

func newTestManager(t *testing.T) (*Manager, *testEnv) {
	t.Helper()
	env := newTestEnv(t)
	return env.manager(ownerA), env
}

func edgeCount(t *testing.T, m *Manager, kind ir.Kind) int {
	t.Helper()
	edges, err := m.store.ListEdges(context.Background(), m.Owner(), kind)
	require.NoError(t, err)
	return len(edges)
}

// recordingCollector captures metrics calls for assertions.
type recordingCollector struct {
	mu     sync.Mutex
	ops    map[string]int
	errors map[string]int
	counts map[string]int64
}

func newRecordingCollector() *recordingCollector {
	return &recordingCollector{
		ops:    make(map[string]int),
		errors: make(map[string]int),
		counts: make(map[string]int64),
	}
}

func (r *recordingCollector) RecordOperation(_ context.Context, operation, status string, _ int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops[operation+"/"+status]++
}

func (r *recordingCollector) RecordStage(context.Context, string, string, int64) {}

func (r *recordingCollector) RecordError(_ context.Context, operation, errorType string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors[operation+"/"+errorType]++
}

func (r *recordingCollector) SetStorageCount(_ context.Context, storageType string, count int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts[storageType] = count
}
