package lifecycle

import (
	"context"

	"github.com/roach88/ownerchain/internal/ir"
	"github.com/roach88/ownerchain/internal/record"
)

// StoreProfile creates the owner's profile. Zero timestamps are stamped with
// the current time.
func (m *Manager) StoreProfile(ctx context.Context, p record.Profile) (Head, error) {
	now := m.clock.NowMicros()
	if p.CreatedAt == 0 {
		p.CreatedAt = now
	}
	if p.UpdatedAt == 0 {
		p.UpdatedAt = now
	}
	return m.Create(ctx, ir.KindProfile, p)
}

// GetProfile returns the current profile, or nil if none exists.
func (m *Manager) GetProfile(ctx context.Context) (*record.Resolved[record.Profile], error) {
	return getOne[record.Profile](ctx, m, ir.KindProfile)
}

// UpdateProfile appends a new profile revision. UpdatedAt is always set to a
// time later than the current head's.
func (m *Manager) UpdateProfile(ctx context.Context, p record.Profile) (Head, error) {
	current, err := m.GetProfile(ctx)
	if err != nil {
		return Head{}, err
	}
	if current == nil {
		return Head{}, ir.NewError(ir.CodeNotFound, "no profile to update").WithKind(ir.KindProfile)
	}
	if p.CreatedAt == 0 {
		p.CreatedAt = current.Value.CreatedAt
	}
	p.UpdatedAt = m.after(current.Value.UpdatedAt)
	return m.Update(ctx, ir.KindProfile, p)
}
