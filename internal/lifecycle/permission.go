package lifecycle

import (
	"context"
	"fmt"

	"github.com/roach88/ownerchain/internal/ir"
	"github.com/roach88/ownerchain/internal/record"
)

func (m *Manager) findPermission(ctx context.Context, service string) (*record.Resolved[record.ServicePermission], error) {
	h, err := m.Find(ctx, ir.KindServicePermission, service)
	if ir.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	r, err := decode[record.ServicePermission](h)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (m *Manager) updatePermission(ctx context.Context, current *record.Resolved[record.ServicePermission], p record.ServicePermission) (Head, error) {
	return m.UpdateInstance(ctx, Head{
		Entry: ir.Entry{Hash: current.Hash, Kind: ir.KindServicePermission},
		Edge:  current.Edge,
	}, p)
}

// GrantPermission grants service access to the owner's email. An existing
// permission for the service is updated in place; otherwise one is created.
func (m *Manager) GrantPermission(ctx context.Context, service, purpose string) (Head, error) {
	if service == "" {
		return Head{}, ir.NewError(ir.CodeInvalidPayload, "service name is required").WithKind(ir.KindServicePermission)
	}
	current, err := m.findPermission(ctx, service)
	if err != nil {
		return Head{}, err
	}
	now := m.clock.NowMicros()

	if current != nil {
		p := current.Value
		p.Granted = true
		p.GrantedAt = record.Ptr(now)
		p.RevokedAt = nil
		p.UpdatedAt = m.after(current.Value.UpdatedAt)
		return m.updatePermission(ctx, current, p)
	}

	return m.Create(ctx, ir.KindServicePermission, record.ServicePermission{
		ServiceName: service,
		Purpose:     purpose,
		Granted:     true,
		GrantedAt:   record.Ptr(now),
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

// RevokePermission revokes a granted permission. Returns NOT_FOUND when the
// service has no permission or it is already revoked.
func (m *Manager) RevokePermission(ctx context.Context, service string) (Head, error) {
	current, err := m.findPermission(ctx, service)
	if err != nil {
		return Head{}, err
	}
	if current == nil || !current.Value.Granted {
		return Head{}, ir.NewError(ir.CodeNotFound,
			fmt.Sprintf("permission for %q not found or already revoked", service)).WithKind(ir.KindServicePermission)
	}

	p := current.Value
	p.Granted = false
	p.RevokedAt = record.Ptr(m.clock.NowMicros())
	p.UpdatedAt = m.after(current.Value.UpdatedAt)
	return m.updatePermission(ctx, current, p)
}

// ListPermissions returns every permission in grant order.
func (m *Manager) ListPermissions(ctx context.Context) ([]record.Resolved[record.ServicePermission], error) {
	return allTyped[record.ServicePermission](ctx, m, ir.KindServicePermission)
}

// CheckPermission reports whether service currently holds a granted permission.
func (m *Manager) CheckPermission(ctx context.Context, service string) (bool, error) {
	current, err := m.findPermission(ctx, service)
	if err != nil {
		return false, err
	}
	granted := current != nil && current.Value.Granted
	m.logger.Debug("permission checked",
		"service", service,
		"granted", granted,
	)
	return granted, nil
}

// RecordPermissionUsage stamps LastUsedAt on a granted permission.
func (m *Manager) RecordPermissionUsage(ctx context.Context, service string) (Head, error) {
	current, err := m.findPermission(ctx, service)
	if err != nil {
		return Head{}, err
	}
	if current == nil || !current.Value.Granted {
		return Head{}, ir.NewError(ir.CodeNotFound,
			fmt.Sprintf("permission for %q not found or not granted", service)).WithKind(ir.KindServicePermission)
	}

	now := m.clock.NowMicros()
	p := current.Value
	p.LastUsedAt = record.Ptr(now)
	p.UpdatedAt = m.after(current.Value.UpdatedAt)
	return m.updatePermission(ctx, current, p)
}
