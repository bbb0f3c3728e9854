package lifecycle

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/roach88/ownerchain/internal/chain"
	"github.com/roach88/ownerchain/internal/ir"
	"github.com/roach88/ownerchain/internal/registry"
	"github.com/roach88/ownerchain/internal/store"
)

// Create stores payload as the first revision of a new logical record and
// links it from the owner. Singleton uniqueness is not enforced here.
func (m *Manager) Create(ctx context.Context, kind ir.Kind, payload any) (h Head, err error) {
	start := time.Now()
	defer func() { m.observe(ctx, "create", start, err) }()

	spec, err := m.spec(kind, "")
	if err != nil {
		return Head{}, err
	}
	return m.create(ctx, spec, payload)
}

func (m *Manager) create(ctx context.Context, spec registry.KindSpec, payload any) (Head, error) {
	data, fields, err := m.encode(spec.Kind, payload)
	if err != nil {
		return Head{}, err
	}

	entry, err := m.store.PutEntry(ctx, store.EntryInput{
		Author:  m.owner,
		Kind:    spec.Kind,
		Payload: data,
	})
	if err != nil {
		return Head{}, fmt.Errorf("create %s: %w", spec.Kind, err)
	}

	edge, err := m.store.AddEdge(ctx, store.EdgeInput{
		Owner:       m.owner,
		Kind:        spec.Kind,
		InstanceKey: spec.InstanceKey(fields),
		Target:      entry.Hash,
	})
	if err != nil {
		return Head{}, fmt.Errorf("link %s: %w", spec.Kind, err)
	}

	m.logger.Debug("record created",
		"kind", spec.Kind,
		"hash", entry.Hash.Short(),
		"edge", edge.ID,
	)
	return Head{Entry: entry, Edge: edge}, nil
}

// Get resolves the current revision of a singleton kind.
//
// With no edge it returns NOT_FOUND. With one edge of a chain kind it follows
// the chain. With duplicate edges, or for replace kinds, the head with the
// greatest logical timestamp wins.
func (m *Manager) Get(ctx context.Context, kind ir.Kind) (h Head, err error) {
	start := time.Now()
	defer func() { m.observe(ctx, "get", start, err) }()

	spec, err := m.spec(kind, registry.Singleton)
	if err != nil {
		return Head{}, err
	}
	return m.get(ctx, spec)
}

func (m *Manager) get(ctx context.Context, spec registry.KindSpec) (Head, error) {
	edges, err := m.edges(ctx, spec.Kind)
	if err != nil {
		return Head{}, err
	}
	return m.resolveSingleton(ctx, spec, edges)
}

func (m *Manager) resolveSingleton(ctx context.Context, spec registry.KindSpec, edges []ir.Edge) (Head, error) {
	if len(edges) == 0 {
		return Head{}, ir.NewError(ir.CodeNotFound, "no record").WithKind(spec.Kind)
	}

	if len(edges) == 1 && spec.Policy == registry.PolicyChain {
		head, err := chain.ResolveHead(ctx, m.store, edges[0].Target)
		if err != nil {
			return Head{}, err
		}
		return Head{Entry: head, Edge: edges[0]}, nil
	}

	if len(edges) > 1 {
		m.warnDuplicate(ctx, spec.Kind, len(edges))
	}
	return m.resolveLatest(ctx, spec, edges)
}

func (m *Manager) resolveLatest(ctx context.Context, spec registry.KindSpec, edges []ir.Edge) (Head, error) {
	starts := make([]ir.Hash, len(edges))
	for i, e := range edges {
		starts[i] = e.Target
	}
	head, idx, err := chain.ResolveLatest(ctx, m.store, starts, spec.Timestamp)
	if err != nil {
		return Head{}, err
	}
	return Head{Entry: head, Edge: edges[idx]}, nil
}

func (m *Manager) warnDuplicate(ctx context.Context, kind ir.Kind, n int) {
	m.logger.Warn("singleton has duplicate edges",
		"code", ir.CodeDuplicateState,
		"kind", kind,
		"owner", m.owner,
		"edges", n,
	)
	m.metrics.RecordError(ctx, "resolve", string(ir.CodeDuplicateState))
}

// List resolves instances of a multi kind, newest edge first.
//
// Edges are filtered by opts.InstanceKey, then opts.Offset and opts.Limit are
// applied, then each remaining edge is resolved to its head. Edges whose
// chain cannot be resolved are skipped.
func (m *Manager) List(ctx context.Context, kind ir.Kind, opts ListOptions) (heads []Head, err error) {
	start := time.Now()
	defer func() { m.observe(ctx, "list", start, err) }()

	spec, err := m.spec(kind, registry.Multi)
	if err != nil {
		return nil, err
	}

	edges, err := m.edges(ctx, spec.Kind)
	if err != nil {
		return nil, err
	}
	slices.Reverse(edges)

	if opts.InstanceKey != "" {
		edges = slices.DeleteFunc(edges, func(e ir.Edge) bool {
			return e.InstanceKey != opts.InstanceKey
		})
	}

	return m.resolveEdges(ctx, spec.Kind, paginate(edges, opts.Offset, m.limit(opts.Limit)), false)
}

func (m *Manager) limit(n int) int {
	if n <= 0 {
		return m.pageSize
	}
	return n
}

// paginate returns edges[offset:offset+limit] clamped to the slice bounds.
func paginate(edges []ir.Edge, offset, limit int) []ir.Edge {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(edges) {
		return nil
	}
	limit = min(limit, len(edges)-offset)
	return edges[offset : offset+limit]
}

// ListAll resolves every instance of kind in edge insertion order.
// Unlike List, any unresolvable chain fails the whole call.
func (m *Manager) ListAll(ctx context.Context, kind ir.Kind) (heads []Head, err error) {
	start := time.Now()
	defer func() { m.observe(ctx, "list_all", start, err) }()

	spec, err := m.spec(kind, "")
	if err != nil {
		return nil, err
	}
	edges, err := m.edges(ctx, spec.Kind)
	if err != nil {
		return nil, err
	}
	return m.resolveEdges(ctx, spec.Kind, edges, true)
}

// resolveEdges resolves each edge to its head. When strict is false,
// unresolvable edges are logged and skipped.
func (m *Manager) resolveEdges(ctx context.Context, kind ir.Kind, edges []ir.Edge, strict bool) ([]Head, error) {
	heads := make([]Head, 0, len(edges))
	for _, e := range edges {
		head, err := chain.ResolveHead(ctx, m.store, e.Target)
		if err != nil {
			if strict || ctx.Err() != nil {
				return nil, fmt.Errorf("resolve %s edge %s: %w", kind, e.ID, err)
			}
			m.logger.Debug("skipping unresolvable edge",
				"kind", kind,
				"edge", e.ID,
				"error", err,
			)
			continue
		}
		heads = append(heads, Head{Entry: head, Edge: e})
	}
	return heads, nil
}

// Find resolves the instance of a multi kind with the given instance key.
// When several edges share the key, the head with the greatest logical
// timestamp wins. Returns NOT_FOUND when no edge carries the key.
func (m *Manager) Find(ctx context.Context, kind ir.Kind, instanceKey string) (h Head, err error) {
	start := time.Now()
	defer func() { m.observe(ctx, "find", start, err) }()

	spec, err := m.spec(kind, registry.Multi)
	if err != nil {
		return Head{}, err
	}
	if spec.InstanceKeyField == "" {
		return Head{}, ir.NewError(ir.CodeInvalidKind, "kind has no instance key").WithKind(kind)
	}
	return m.find(ctx, spec, instanceKey)
}

func (m *Manager) find(ctx context.Context, spec registry.KindSpec, instanceKey string) (Head, error) {
	edges, err := m.edges(ctx, spec.Kind)
	if err != nil {
		return Head{}, err
	}
	edges = slices.DeleteFunc(edges, func(e ir.Edge) bool {
		return e.InstanceKey != instanceKey
	})
	if len(edges) == 0 {
		return Head{}, ir.NewError(ir.CodeNotFound, fmt.Sprintf("no instance %q", instanceKey)).WithKind(spec.Kind)
	}
	if len(edges) == 1 {
		head, err := chain.ResolveHead(ctx, m.store, edges[0].Target)
		if err != nil {
			return Head{}, err
		}
		return Head{Entry: head, Edge: edges[0]}, nil
	}
	return m.resolveLatest(ctx, spec, edges)
}

// Update appends payload as a new revision of the singleton's current head.
// No edge is added. Returns NOT_FOUND when the record does not exist.
func (m *Manager) Update(ctx context.Context, kind ir.Kind, payload any) (h Head, err error) {
	start := time.Now()
	defer func() { m.observe(ctx, "update", start, err) }()

	spec, err := m.spec(kind, registry.Singleton)
	if err != nil {
		return Head{}, err
	}
	current, err := m.get(ctx, spec)
	if err != nil {
		return Head{}, err
	}
	return m.append(ctx, spec, current, payload)
}

// UpdateInstance appends payload as a new revision of a resolved instance.
func (m *Manager) UpdateInstance(ctx context.Context, current Head, payload any) (h Head, err error) {
	start := time.Now()
	defer func() { m.observe(ctx, "update", start, err) }()

	spec, err := m.spec(current.Entry.Kind, "")
	if err != nil {
		return Head{}, err
	}
	return m.append(ctx, spec, current, payload)
}

func (m *Manager) append(ctx context.Context, spec registry.KindSpec, current Head, payload any) (Head, error) {
	data, _, err := m.encode(spec.Kind, payload)
	if err != nil {
		return Head{}, err
	}

	entry, err := m.store.PutEntry(ctx, store.EntryInput{
		Author:      m.owner,
		Kind:        spec.Kind,
		Predecessor: current.Entry.Hash,
		Payload:     data,
	})
	if err != nil {
		return Head{}, fmt.Errorf("update %s: %w", spec.Kind, err)
	}

	m.logger.Debug("record updated",
		"kind", spec.Kind,
		"predecessor", current.Entry.Hash.Short(),
		"hash", entry.Hash.Short(),
	)
	return Head{Entry: entry, Edge: current.Edge}, nil
}

// Replace links payload as a fresh unchained entry and removes every edge
// the kind had before.
//
// The new edge is written before the old ones are removed. If removal fails
// part way, the owner is left with duplicate edges whose latest timestamp is
// the new entry, so reads already see the replacement.
func (m *Manager) Replace(ctx context.Context, kind ir.Kind, payload any) (h Head, err error) {
	start := time.Now()
	defer func() { m.observe(ctx, "replace", start, err) }()

	spec, err := m.spec(kind, registry.Singleton)
	if err != nil {
		return Head{}, err
	}

	old, err := m.edges(ctx, spec.Kind)
	if err != nil {
		return Head{}, err
	}

	head, err := m.create(ctx, spec, payload)
	if err != nil {
		return Head{}, err
	}

	for _, e := range old {
		if err := m.store.RemoveEdge(ctx, m.owner, e.ID); err != nil {
			return head, fmt.Errorf("replace %s: %w", spec.Kind, err)
		}
	}

	m.logger.Debug("record replaced",
		"kind", spec.Kind,
		"hash", head.Entry.Hash.Short(),
		"removed_edges", len(old),
	)
	return head, nil
}

// Delete removes every edge of a singleton kind and tombstones every revision
// reachable from them. Returns NOT_FOUND when there is nothing to delete.
func (m *Manager) Delete(ctx context.Context, kind ir.Kind) (err error) {
	start := time.Now()
	defer func() { m.observe(ctx, "delete", start, err) }()

	spec, err := m.spec(kind, registry.Singleton)
	if err != nil {
		return err
	}
	edges, err := m.edges(ctx, spec.Kind)
	if err != nil {
		return err
	}
	if len(edges) == 0 {
		return ir.NewError(ir.CodeNotFound, "no record").WithKind(kind)
	}
	for _, e := range edges {
		if err := m.deleteChain(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

// DeleteInstance removes one instance's edge and tombstones its chain.
func (m *Manager) DeleteInstance(ctx context.Context, h Head) (err error) {
	start := time.Now()
	defer func() { m.observe(ctx, "delete", start, err) }()

	return m.deleteChain(ctx, h.Edge)
}

// deleteChain removes the edge first so a partial failure never leaves an
// edge pointing at a tombstoned entry. Revisions are tombstoned head first.
func (m *Manager) deleteChain(ctx context.Context, e ir.Edge) error {
	entries, err := chain.Walk(ctx, m.store, e.Target)
	if err != nil {
		return fmt.Errorf("delete %s: %w", e.Kind, err)
	}
	if err := m.store.RemoveEdge(ctx, m.owner, e.ID); err != nil {
		return fmt.Errorf("delete %s: %w", e.Kind, err)
	}
	for i := len(entries) - 1; i >= 0; i-- {
		if err := m.store.DeleteEntry(ctx, m.owner, entries[i].Hash); err != nil {
			return fmt.Errorf("delete %s: %w", e.Kind, err)
		}
	}

	m.logger.Debug("record deleted",
		"kind", e.Kind,
		"edge", e.ID,
		"revisions", len(entries),
	)
	return nil
}

// Repair keeps only the edge whose head wins timestamp resolution for a
// singleton kind and removes the rest. Returns the number of edges removed.
// The losing chains are left in place, unlinked.
func (m *Manager) Repair(ctx context.Context, kind ir.Kind) (removed int, err error) {
	start := time.Now()
	defer func() { m.observe(ctx, "repair", start, err) }()

	spec, err := m.spec(kind, registry.Singleton)
	if err != nil {
		return 0, err
	}
	edges, err := m.edges(ctx, spec.Kind)
	if err != nil {
		return 0, err
	}
	if len(edges) <= 1 {
		return 0, nil
	}

	winner, err := m.resolveLatest(ctx, spec, edges)
	if err != nil {
		return 0, err
	}
	for _, e := range edges {
		if e.ID == winner.Edge.ID {
			continue
		}
		if err := m.store.RemoveEdge(ctx, m.owner, e.ID); err != nil {
			return removed, fmt.Errorf("repair %s: %w", kind, err)
		}
		removed++
	}

	m.logger.Info("repaired duplicate edges",
		"kind", kind,
		"kept", winner.Edge.ID,
		"removed", removed,
	)
	m.metrics.SetStorageCount(ctx, string(kind), 1)
	return removed, nil
}
