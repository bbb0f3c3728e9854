package lifecycle

import (
	"context"

	"github.com/roach88/ownerchain/internal/ir"
	"github.com/roach88/ownerchain/internal/record"
)

// StoreSecret links a new recovery secret. A zero CreatedAt is stamped with
// the current time.
func (m *Manager) StoreSecret(ctx context.Context, s record.Secret) (Head, error) {
	if s.CreatedAt == 0 {
		s.CreatedAt = m.clock.NowMicros()
	}
	return m.Create(ctx, ir.KindSecret, s)
}

// GetSecret returns the most recent secret, or nil if none exists.
func (m *Manager) GetSecret(ctx context.Context) (*record.Resolved[record.Secret], error) {
	return getOne[record.Secret](ctx, m, ir.KindSecret)
}

// MarkSecretVerified replaces the secret with a verified copy of itself.
// CreatedAt moves forward so the verified copy is the most recent.
func (m *Manager) MarkSecretVerified(ctx context.Context) (Head, error) {
	current, err := m.GetSecret(ctx)
	if err != nil {
		return Head{}, err
	}
	if current == nil {
		return Head{}, ir.NewError(ir.CodeNotFound, "no secret to verify").WithKind(ir.KindSecret)
	}

	next := current.Value
	next.Verified = true
	next.CreatedAt = m.after(current.Value.CreatedAt)
	return m.Replace(ctx, ir.KindSecret, next)
}

// RotateSecret replaces the secret with new ciphertext. CreatedAt is forced
// strictly above the current secret's so the rotation always wins resolution.
func (m *Manager) RotateSecret(ctx context.Context, s record.Secret) (Head, error) {
	current, err := m.GetSecret(ctx)
	if err != nil {
		return Head{}, err
	}
	var prev int64
	if current != nil {
		prev = current.Value.CreatedAt
	}
	if s.CreatedAt <= prev {
		s.CreatedAt = m.after(prev)
	}
	return m.Replace(ctx, ir.KindSecret, s)
}

// UpdateSecret appends a revision to the current secret's chain. Used by the
// password change flow, which re-encrypts the same mnemonic.
func (m *Manager) UpdateSecret(ctx context.Context, s record.Secret) (Head, error) {
	current, err := m.GetSecret(ctx)
	if err != nil {
		return Head{}, err
	}
	if current == nil {
		return Head{}, ir.NewError(ir.CodeNotFound, "no secret to update").WithKind(ir.KindSecret)
	}
	if s.CreatedAt <= current.Value.CreatedAt {
		s.CreatedAt = m.after(current.Value.CreatedAt)
	}
	return m.Update(ctx, ir.KindSecret, s)
}
