package lifecycle

import (
	"context"

	"github.com/roach88/ownerchain/internal/ir"
	"github.com/roach88/ownerchain/internal/record"
)

// CreateDefaultPrivacySettings links the default privacy settings. Fails with
// ALREADY_EXISTS if the owner has any privacy settings edge.
func (m *Manager) CreateDefaultPrivacySettings(ctx context.Context) (Head, error) {
	edges, err := m.edges(ctx, ir.KindPrivacySettings)
	if err != nil {
		return Head{}, err
	}
	if len(edges) > 0 {
		return Head{}, ir.NewError(ir.CodeAlreadyExists, "privacy settings already exist").WithKind(ir.KindPrivacySettings)
	}
	return m.Create(ctx, ir.KindPrivacySettings, record.DefaultPrivacySettings(m.clock.NowMicros()))
}

// GetPrivacySettings returns the stored settings, or nil if none exist.
func (m *Manager) GetPrivacySettings(ctx context.Context) (*record.Resolved[record.PrivacySettings], error) {
	return getOne[record.PrivacySettings](ctx, m, ir.KindPrivacySettings)
}

// EffectivePrivacySettings returns the stored settings, falling back to the
// defaults when the owner has none.
func (m *Manager) EffectivePrivacySettings(ctx context.Context) (record.PrivacySettings, error) {
	current, err := m.GetPrivacySettings(ctx)
	if err != nil {
		return record.PrivacySettings{}, err
	}
	if current == nil {
		return record.DefaultPrivacySettings(m.clock.NowMicros()), nil
	}
	return current.Value, nil
}

// UpdatePrivacySettings appends a new settings revision.
func (m *Manager) UpdatePrivacySettings(ctx context.Context, s record.PrivacySettings) (Head, error) {
	current, err := m.GetPrivacySettings(ctx)
	if err != nil {
		return Head{}, err
	}
	if current == nil {
		return Head{}, ir.NewError(ir.CodeNotFound, "no privacy settings to update").WithKind(ir.KindPrivacySettings)
	}
	if s.CreatedAt == 0 {
		s.CreatedAt = current.Value.CreatedAt
	}
	s.UpdatedAt = m.after(current.Value.UpdatedAt)
	return m.Update(ctx, ir.KindPrivacySettings, s)
}
