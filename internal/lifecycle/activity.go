package lifecycle

import (
	"context"

	"github.com/roach88/ownerchain/internal/ir"
	"github.com/roach88/ownerchain/internal/record"
)

// SummaryWindow is the trailing window counted by Summary.LoginsInWindow.
const SummaryWindow int64 = 30 * 24 * 60 * 60 * 1_000_000

// Summary aggregates the owner's activity logs.
type Summary struct {
	TotalLogins     int    `json:"total_logins" yaml:"total_logins"`
	LoginsInWindow  int    `json:"logins_last_30_days" yaml:"logins_last_30_days"`
	UniqueApps      int    `json:"unique_apps_used" yaml:"unique_apps_used"`
	DashboardVisits int    `json:"dashboard_visits" yaml:"dashboard_visits"`
	LastLogin       *int64 `json:"last_login,omitempty" yaml:"last_login,omitempty"`
}

// RecordLogin appends a login event. IP address and user agent are dropped
// when the owner's privacy settings disable tracking them.
func (m *Manager) RecordLogin(ctx context.Context, a record.LoginActivity) (Head, error) {
	privacy, err := m.EffectivePrivacySettings(ctx)
	if err != nil {
		return Head{}, err
	}
	if !privacy.TrackIPAddress {
		a.IPAddress = nil
	}
	if !privacy.TrackUserAgent {
		a.UserAgent = nil
	}

	now := m.clock.NowMicros()
	if a.Timestamp == 0 {
		a.Timestamp = now
	}
	if a.CreatedAt == 0 {
		a.CreatedAt = now
	}
	return m.Create(ctx, ir.KindLoginActivity, a)
}

// RecordDashboardVisit appends a dashboard visit event.
func (m *Manager) RecordDashboardVisit(ctx context.Context, a record.DashboardActivity) (Head, error) {
	now := m.clock.NowMicros()
	if a.VisitTimestamp == 0 {
		a.VisitTimestamp = now
	}
	if a.CreatedAt == 0 {
		a.CreatedAt = now
	}
	return m.Create(ctx, ir.KindDashboardActivity, a)
}

// RecordAppEvent appends a third-party app event.
func (m *Manager) RecordAppEvent(ctx context.Context, a record.AppActivity) (Head, error) {
	if a.AppID == "" {
		return Head{}, ir.NewError(ir.CodeInvalidPayload, "app id is required").WithKind(ir.KindAppActivity)
	}
	now := m.clock.NowMicros()
	if a.Timestamp == 0 {
		a.Timestamp = now
	}
	if a.CreatedAt == 0 {
		a.CreatedAt = now
	}
	return m.Create(ctx, ir.KindAppActivity, a)
}

// ListLogins returns login events newest first.
func (m *Manager) ListLogins(ctx context.Context, opts ListOptions) ([]record.Resolved[record.LoginActivity], error) {
	return listTyped[record.LoginActivity](ctx, m, ir.KindLoginActivity, opts)
}

// ListDashboardVisits returns dashboard visits newest first.
func (m *Manager) ListDashboardVisits(ctx context.Context, opts ListOptions) ([]record.Resolved[record.DashboardActivity], error) {
	return listTyped[record.DashboardActivity](ctx, m, ir.KindDashboardActivity, opts)
}

// ListAppEvents returns app events newest first.
func (m *Manager) ListAppEvents(ctx context.Context, opts ListOptions) ([]record.Resolved[record.AppActivity], error) {
	return listTyped[record.AppActivity](ctx, m, ir.KindAppActivity, opts)
}

// ListAppEventsByApp returns the events of one app newest first. Pagination
// applies after filtering.
func (m *Manager) ListAppEventsByApp(ctx context.Context, appID string, opts ListOptions) ([]record.Resolved[record.AppActivity], error) {
	opts.InstanceKey = appID
	return listTyped[record.AppActivity](ctx, m, ir.KindAppActivity, opts)
}

// ActivitySummary counts logins, dashboard visits and distinct apps.
// Dashboard visits count edges; the other figures count readable events.
func (m *Manager) ActivitySummary(ctx context.Context) (Summary, error) {
	var s Summary
	cutoff := m.clock.NowMicros() - SummaryWindow

	logins, err := allTyped[record.LoginActivity](ctx, m, ir.KindLoginActivity)
	if err != nil {
		return Summary{}, err
	}
	for _, l := range logins {
		s.TotalLogins++
		if l.Value.Timestamp >= cutoff {
			s.LoginsInWindow++
		}
		if s.LastLogin == nil || l.Value.Timestamp > *s.LastLogin {
			s.LastLogin = record.Ptr(l.Value.Timestamp)
		}
	}

	visits, err := m.edges(ctx, ir.KindDashboardActivity)
	if err != nil {
		return Summary{}, err
	}
	s.DashboardVisits = len(visits)

	apps, err := allTyped[record.AppActivity](ctx, m, ir.KindAppActivity)
	if err != nil {
		return Summary{}, err
	}
	seen := make(map[string]struct{})
	for _, a := range apps {
		seen[a.Value.AppID] = struct{}{}
	}
	s.UniqueApps = len(seen)

	return s, nil
}
