package lifecycle

import (
	"context"

	"github.com/roach88/ownerchain/internal/ir"
	"github.com/roach88/ownerchain/internal/record"
)

// StoreSession links a session record. Sessions are deprecated and kept so
// older bundles import cleanly.
func (m *Manager) StoreSession(ctx context.Context, s record.Session) (Head, error) {
	now := m.clock.NowMicros()
	if s.CreatedAt == 0 {
		s.CreatedAt = now
	}
	if s.LastActive == 0 {
		s.LastActive = s.CreatedAt
	}
	return m.Create(ctx, ir.KindSession, s)
}

// ListSessions returns every session in creation order.
func (m *Manager) ListSessions(ctx context.Context) ([]record.Resolved[record.Session], error) {
	return allTyped[record.Session](ctx, m, ir.KindSession)
}

// DeleteSession deletes the session whose head or root revision is hash.
func (m *Manager) DeleteSession(ctx context.Context, hash ir.Hash) error {
	heads, err := m.Scan(ctx, ir.KindSession)
	if err != nil {
		return err
	}
	for _, h := range heads {
		if h.Entry.Hash == hash || h.Edge.Target == hash {
			return m.DeleteInstance(ctx, h)
		}
	}
	return ir.NewError(ir.CodeNotFound, "no such session").WithKind(ir.KindSession).WithHash(hash)
}
