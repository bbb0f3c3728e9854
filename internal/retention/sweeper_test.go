package retention

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ownerchain/internal/ir"
	"github.com/roach88/ownerchain/internal/lifecycle"
	"github.com/roach88/ownerchain/internal/metrics"
	"github.com/roach88/ownerchain/internal/record"
	"github.com/roach88/ownerchain/internal/store"
	"github.com/roach88/ownerchain/internal/testutil"
)

func newTestManager(t *testing.T) (*lifecycle.Manager, *testutil.DeterministicClock) {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "retention.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	clock := testutil.NewDeterministicClock(testutil.Epoch)
	return lifecycle.New(s, "owner-a", lifecycle.WithClock(clock)), clock
}

func daysAgo(clock *testutil.DeterministicClock, days int) int64 {
	return clock.Current() - (time.Duration(days) * day).Microseconds()
}

func TestPurgeOlderThan(t *testing.T) {
	m, clock := newTestManager(t)
	ctx := context.Background()

	for _, age := range []int{5, 40, 95} {
		ts := daysAgo(clock, age)
		_, err := m.RecordLogin(ctx, record.LoginActivity{
			Timestamp:   ts,
			LoginMethod: "password",
			SessionID:   "s",
			CreatedAt:   ts,
		})
		require.NoError(t, err)
	}

	sweeper := New(m)
	n, err := sweeper.PurgeOlderThan(ctx, ir.KindLoginActivity, 90*day)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = sweeper.PurgeOlderThan(ctx, ir.KindLoginActivity, 90*day)
	require.NoError(t, err)
	assert.Zero(t, n, "a second sweep finds nothing")

	logins, err := m.ListLogins(ctx, lifecycle.ListOptions{})
	require.NoError(t, err)
	assert.Len(t, logins, 2)

	n, err = sweeper.PurgeOlderThan(ctx, ir.KindLoginActivity, 30*day)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestPurgeBoundaryIsStrict(t *testing.T) {
	m, clock := newTestManager(t)
	ctx := context.Background()

	ts := daysAgo(clock, 10)
	_, err := m.RecordDashboardVisit(ctx, record.DashboardActivity{VisitTimestamp: ts, PagePath: "/", CreatedAt: ts})
	require.NoError(t, err)

	n, err := New(m).PurgeOlderThan(ctx, ir.KindDashboardActivity, 10*day)
	require.NoError(t, err)
	assert.Zero(t, n, "an event exactly at the cutoff is kept")
}

func TestPurgeRejectsNonEventKinds(t *testing.T) {
	m, _ := newTestManager(t)

	_, err := New(m).PurgeOlderThan(context.Background(), ir.KindProfile, day)
	assert.Equal(t, ir.CodeInvalidKind, ir.CodeOf(err))
}

func TestPurgeByPolicy(t *testing.T) {
	m, clock := newTestManager(t)
	ctx := context.Background()

	recordAll := func(age int) {
		ts := daysAgo(clock, age)
		_, err := m.RecordLogin(ctx, record.LoginActivity{Timestamp: ts, LoginMethod: "password", SessionID: "s", CreatedAt: ts})
		require.NoError(t, err)
		_, err = m.RecordDashboardVisit(ctx, record.DashboardActivity{VisitTimestamp: ts, PagePath: "/", CreatedAt: ts})
		require.NoError(t, err)
		_, err = m.RecordAppEvent(ctx, record.AppActivity{Timestamp: ts, AppID: "app", AppName: "App", EventType: "authorize", CreatedAt: ts})
		require.NoError(t, err)
	}
	recordAll(20)
	recordAll(60)
	recordAll(120)

	sweeper := New(m)
	counts, err := sweeper.PurgeByPolicy(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[ir.Kind]int{
		ir.KindLoginActivity:     1,
		ir.KindDashboardActivity: 1,
		ir.KindAppActivity:       1,
	}, counts, "default policy keeps 90 days")

	_, err = m.CreateDefaultPrivacySettings(ctx)
	require.NoError(t, err)
	settings, err := m.GetPrivacySettings(ctx)
	require.NoError(t, err)
	next := settings.Value
	next.ActivityLogRetentionDays = 30
	_, err = m.UpdatePrivacySettings(ctx, next)
	require.NoError(t, err)

	counts, err = sweeper.PurgeByPolicy(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts[ir.KindLoginActivity])
	assert.Equal(t, 1, counts[ir.KindAppActivity])
}

func TestSweepMetrics(t *testing.T) {
	m, clock := newTestManager(t)
	ctx := context.Background()

	for _, age := range []int{1, 200} {
		ts := daysAgo(clock, age)
		_, err := m.RecordLogin(ctx, record.LoginActivity{Timestamp: ts, LoginMethod: "oauth", SessionID: "s", CreatedAt: ts})
		require.NoError(t, err)
	}

	collector := metrics.NewCollector()
	n, err := New(m, WithMetrics(collector)).PurgeOlderThan(ctx, ir.KindLoginActivity, 90*day)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// scan, delete and total series for the sweep operation
	count, err := promtest.GatherAndCount(collector.Registry(), "ownerchain_operation_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	count, err = promtest.GatherAndCount(collector.Registry(), "ownerchain_edges")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
