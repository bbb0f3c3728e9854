package lifecycle

import (
	"context"

	"github.com/roach88/ownerchain/internal/ir"
	"github.com/roach88/ownerchain/internal/record"
)

func decode[T any](h Head) (record.Resolved[T], error) {
	var v T
	if err := h.Entry.Decode(&v); err != nil {
		return record.Resolved[T]{}, err
	}
	return record.Resolved[T]{Value: v, Hash: h.Entry.Hash, Edge: h.Edge}, nil
}

// getOne resolves a singleton and decodes it. Absence is (nil, nil).
func getOne[T any](ctx context.Context, m *Manager, kind ir.Kind) (*record.Resolved[T], error) {
	h, err := m.Get(ctx, kind)
	if ir.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	r, err := decode[T](h)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// decodeAll decodes heads, skipping any whose payload does not fit T.
func decodeAll[T any](m *Manager, heads []Head) []record.Resolved[T] {
	out := make([]record.Resolved[T], 0, len(heads))
	for _, h := range heads {
		r, err := decode[T](h)
		if err != nil {
			m.logger.Debug("skipping undecodable entry",
				"kind", h.Entry.Kind,
				"hash", h.Entry.Hash.Short(),
				"error", err,
			)
			continue
		}
		out = append(out, r)
	}
	return out
}

func listTyped[T any](ctx context.Context, m *Manager, kind ir.Kind, opts ListOptions) ([]record.Resolved[T], error) {
	heads, err := m.List(ctx, kind, opts)
	if err != nil {
		return nil, err
	}
	return decodeAll[T](m, heads), nil
}

// Scan resolves every instance of kind in edge insertion order, skipping
// edges whose chain cannot be resolved.
func (m *Manager) Scan(ctx context.Context, kind ir.Kind) ([]Head, error) {
	if _, err := m.spec(kind, ""); err != nil {
		return nil, err
	}
	edges, err := m.edges(ctx, kind)
	if err != nil {
		return nil, err
	}
	return m.resolveEdges(ctx, kind, edges, false)
}

func allTyped[T any](ctx context.Context, m *Manager, kind ir.Kind) ([]record.Resolved[T], error) {
	heads, err := m.Scan(ctx, kind)
	if err != nil {
		return nil, err
	}
	return decodeAll[T](m, heads), nil
}
