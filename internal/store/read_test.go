package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ownerchain/internal/ir"
)

func TestGetEntry_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.GetEntry(context.Background(), "nope")
	require.Error(t, err)
	assert.Equal(t, ir.CodeNotFound, ir.CodeOf(err))
}

func TestGetWithSuccessors_OrderedBySeq(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	root := putTestEntry(t, s, "alice", "", `{"v":1}`)
	a := putTestEntry(t, s, "alice", root.Hash, `{"v":2}`)
	b := putTestEntry(t, s, "alice", root.Hash, `{"v":3}`)

	entry, successors, err := s.GetWithSuccessors(ctx, root.Hash)
	require.NoError(t, err)
	assert.Equal(t, root.Hash, entry.Hash)
	assert.Equal(t, []ir.Hash{a.Hash, b.Hash}, successors)

	_, successors, err = s.GetWithSuccessors(ctx, b.Hash)
	require.NoError(t, err)
	assert.NotNil(t, successors)
	assert.Empty(t, successors)
}

func TestGetWithSuccessors_SkipsDeleted(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	root := putTestEntry(t, s, "alice", "", `{"v":1}`)
	a := putTestEntry(t, s, "alice", root.Hash, `{"v":2}`)
	require.NoError(t, s.DeleteEntry(ctx, "alice", a.Hash))

	_, successors, err := s.GetWithSuccessors(ctx, root.Hash)
	require.NoError(t, err)
	assert.Empty(t, successors)
}

func TestListEdges_InsertionOrderPerOwner(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	var want []ir.Hash
	for i := 0; i < 3; i++ {
		e := putTestEntry(t, s, "alice", "", `{"v":1}`)
		addTestEdge(t, s, "alice", e.Hash)
		want = append(want, e.Hash)
	}
	other := putTestEntry(t, s, "bob", "", `{"v":1}`)
	addTestEdge(t, s, "bob", other.Hash)

	edges, err := s.ListEdges(ctx, "alice", ir.KindProfile)
	require.NoError(t, err)
	require.Len(t, edges, 3)
	for i, e := range edges {
		assert.Equal(t, want[i], e.Target)
		assert.Equal(t, ir.OwnerKey("alice"), e.Owner)
		if i > 0 {
			assert.Greater(t, e.Seq, edges[i-1].Seq)
		}
	}

	edges, err = s.ListEdges(ctx, "alice", ir.KindSecret)
	require.NoError(t, err)
	assert.NotNil(t, edges)
	assert.Empty(t, edges)
}

func TestListEdges_InstanceKey(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	e, err := s.PutEntry(ctx, EntryInput{Author: "alice", Kind: ir.KindServicePermission, Payload: []byte(`{"service_name":"mail"}`)})
	require.NoError(t, err)
	_, err = s.AddEdge(ctx, EdgeInput{Owner: "alice", Kind: ir.KindServicePermission, InstanceKey: "mail", Target: e.Hash})
	require.NoError(t, err)

	edges, err := s.ListEdges(ctx, "alice", ir.KindServicePermission)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, "mail", edges[0].InstanceKey)
}

func TestCountEdges(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		e := putTestEntry(t, s, "alice", "", `{"v":1}`)
		addTestEdge(t, s, "alice", e.Hash)
	}

	counts, err := s.CountEdges(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, map[ir.Kind]int64{ir.KindProfile: 2}, counts)

	counts, err = s.CountEdges(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, counts)
}
