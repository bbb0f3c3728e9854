package lifecycle

import (
	"context"

	"github.com/roach88/ownerchain/internal/ir"
	"github.com/roach88/ownerchain/internal/record"
)

// AnalyticsAliasFor returns the owner's analytics id for appID, minting and
// storing a random one on first use.
func (m *Manager) AnalyticsAliasFor(ctx context.Context, appID string) (record.Resolved[record.AnalyticsAlias], error) {
	if appID == "" {
		return record.Resolved[record.AnalyticsAlias]{},
			ir.NewError(ir.CodeInvalidPayload, "app id is required").WithKind(ir.KindAnalyticsAlias)
	}

	h, err := m.Find(ctx, ir.KindAnalyticsAlias, appID)
	if err == nil {
		return decode[record.AnalyticsAlias](h)
	}
	if !ir.IsNotFound(err) {
		return record.Resolved[record.AnalyticsAlias]{}, err
	}

	h, err = m.Create(ctx, ir.KindAnalyticsAlias, record.AnalyticsAlias{
		AppID:       appID,
		AnalyticsID: m.ids.Generate(),
		CreatedAt:   m.clock.NowMicros(),
	})
	if err != nil {
		return record.Resolved[record.AnalyticsAlias]{}, err
	}
	m.logger.Info("analytics alias created", "app_id", appID)
	return decode[record.AnalyticsAlias](h)
}

// ListAnalyticsAliases returns every alias in creation order.
func (m *Manager) ListAnalyticsAliases(ctx context.Context) ([]record.Resolved[record.AnalyticsAlias], error) {
	return allTyped[record.AnalyticsAlias](ctx, m, ir.KindAnalyticsAlias)
}
