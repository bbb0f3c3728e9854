package migrate

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ownerchain/internal/ir"
	"github.com/roach88/ownerchain/internal/lifecycle"
	"github.com/roach88/ownerchain/internal/record"
	"github.com/roach88/ownerchain/internal/store"
	"github.com/roach88/ownerchain/internal/testutil"
)

const testOwner ir.OwnerKey = "owner-a"

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "migrate.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestManager(t *testing.T, s lifecycle.Store) *lifecycle.Manager {
	t.Helper()
	clock := testutil.NewDeterministicClock(testutil.Epoch)
	clock.SetStep(time.Millisecond)
	return lifecycle.New(s, testOwner,
		lifecycle.WithClock(clock),
		lifecycle.WithIDGenerator(testutil.NewSequentialIDGenerator("alias")),
	)
}

func seed(t *testing.T, m *lifecycle.Manager) {
	t.Helper()
	ctx := context.Background()

	_, err := m.StoreProfile(ctx, record.Profile{
		EncryptedEmail: "ZQ==",
		Nonce:          "bg==",
		Salt:           "cw==",
		Tag:            "dA==",
		Username:       record.Ptr("ada"),
		DisplayName:    "Ada",
	})
	require.NoError(t, err)
	_, err = m.UpdateProfile(ctx, record.Profile{DisplayName: "Ada L", Username: record.Ptr("ada")})
	require.NoError(t, err)

	_, err = m.StoreSecret(ctx, record.Secret{EncryptedMnemonic: "bQ=="})
	require.NoError(t, err)
	_, err = m.MarkSecretVerified(ctx)
	require.NoError(t, err)

	_, err = m.CreateDefaultPrivacySettings(ctx)
	require.NoError(t, err)
	_, err = m.GrantPermission(ctx, "mailer", "newsletters")
	require.NoError(t, err)
	_, err = m.RecordLogin(ctx, record.LoginActivity{LoginMethod: "password", SessionID: "s1", IPAddress: record.Ptr("10.0.0.1")})
	require.NoError(t, err)
	_, err = m.RecordDashboardVisit(ctx, record.DashboardActivity{PagePath: "/home", DurationSeconds: record.Ptr(int64(12))})
	require.NoError(t, err)
	_, err = m.RecordAppEvent(ctx, record.AppActivity{AppID: "app-1", AppName: "App One", EventType: "authorize"})
	require.NoError(t, err)
	_, err = m.AnalyticsAliasFor(ctx, "app-1")
	require.NoError(t, err)
	_, err = m.StoreSession(ctx, record.Session{DeviceInfo: "laptop", ConductorID: "c1"})
	require.NoError(t, err)
}

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := newTestManager(t, openTestStore(t))
	seed(t, src)

	exported, err := NewCodec(src, nil).Export(ctx)
	require.NoError(t, err)
	assert.Equal(t, Version1_9, exported.SchemaVersion)
	require.NotNil(t, exported.Profile)
	assert.Equal(t, "Ada L", exported.Profile.DisplayName)
	require.NotNil(t, exported.Secret)
	assert.True(t, exported.Secret.Verified)

	dst := newTestManager(t, openTestStore(t))
	report, err := NewCodec(dst, nil).Import(ctx, exported)
	require.NoError(t, err)
	require.NoError(t, report.Err())
	assert.Empty(t, report.Defaulted)
	assert.Equal(t, 1, report.Imported[ir.KindProfile])
	assert.Equal(t, 1, report.Imported[ir.KindLoginActivity])

	again, err := NewCodec(dst, nil).Export(ctx)
	require.NoError(t, err)

	again.ExportTimestamp = exported.ExportTimestamp
	assert.Equal(t, exported, again, "heads must survive a round trip field for field")

	d1, err := Digest(exported)
	require.NoError(t, err)
	d2, err := Digest(again)
	require.NoError(t, err)
	assert.Equal(t, d1, d2)
}

func TestImportTwice(t *testing.T) {
	ctx := context.Background()
	src := newTestManager(t, openTestStore(t))
	seed(t, src)
	exported, err := NewCodec(src, nil).Export(ctx)
	require.NoError(t, err)

	dst := newTestManager(t, openTestStore(t))
	codec := NewCodec(dst, nil)
	for i := 0; i < 2; i++ {
		report, err := codec.Import(ctx, exported)
		require.NoError(t, err)
		require.NoError(t, report.Err())
	}

	logins, err := dst.ListLogins(ctx, lifecycle.ListOptions{})
	require.NoError(t, err)
	assert.Len(t, logins, 2, "multi-instance kinds are not deduplicated")

	profile, err := dst.GetProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, *exported.Profile, profile.Value, "duplicate singletons resolve to the same payload")

	removed, err := dst.Repair(ctx, ir.KindProfile)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
}

func TestImportV1_0SynthesizesDefaults(t *testing.T) {
	ctx := context.Background()
	data, err := os.ReadFile(filepath.Join("testdata", "bundles", "v1_0.json"))
	require.NoError(t, err)

	b, err := Decode(data, FormatJSON)
	require.NoError(t, err)
	require.IsType(t, &BundleV1_0{}, b)

	m := newTestManager(t, openTestStore(t))
	report, err := NewCodec(m, nil).Import(ctx, b)
	require.NoError(t, err)
	require.NoError(t, report.Err())
	assert.Equal(t, Version1_0, report.SourceVersion)

	defaulted := make(map[ir.Kind]string)
	for _, d := range report.Defaulted {
		defaulted[d.Kind] = d.Field
		assert.Equal(t, ir.CodeMigrationFieldMissing, ir.CodeOf(d.Err()))
	}
	assert.Equal(t, "*", defaulted[ir.KindPrivacySettings])
	assert.Equal(t, "*", defaulted[ir.KindServicePermission])
	assert.Equal(t, "username", defaulted[ir.KindProfile])

	settings, err := m.GetPrivacySettings(ctx)
	require.NoError(t, err)
	require.NotNil(t, settings, "privacy settings must be synthesized, not skipped")
	assert.True(t, settings.Value.TrackIPAddress)
	assert.Equal(t, int64(record.DefaultRetentionDays), settings.Value.ActivityLogRetentionDays)
	assert.Equal(t, int64(1700000000000000), settings.Value.CreatedAt)

	profile, err := m.GetProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Ada", profile.Value.DisplayName)
	assert.Nil(t, profile.Value.Username)

	sessions, err := m.ListSessions(ctx)
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
}

func TestUpgradeV1_0Golden(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("testdata", "bundles", "v1_0.json"))
	require.NoError(t, err)
	b, err := Decode(data, FormatJSON)
	require.NoError(t, err)

	current, _, err := Upgrade(b)
	require.NoError(t, err)

	canonical, err := ir.MarshalCanonical(current)
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "upgrade_v1_0", canonical)
}

func TestImportV1_6YAMLKeepsPrivacySettings(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join("testdata", "bundles", "v1_6.yaml")
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	b, err := Decode(data, FormatFromPath(path))
	require.NoError(t, err)
	require.IsType(t, &BundleV1_6{}, b)

	m := newTestManager(t, openTestStore(t))
	report, err := NewCodec(m, nil).Import(ctx, b)
	require.NoError(t, err)
	require.NoError(t, report.Err())
	for _, d := range report.Defaulted {
		assert.NotEqual(t, ir.KindPrivacySettings, d.Kind)
	}

	settings, err := m.GetPrivacySettings(ctx)
	require.NoError(t, err)
	assert.False(t, settings.Value.TrackIPAddress)
	assert.Equal(t, int64(30), settings.Value.ActivityLogRetentionDays)

	ok, err := m.CheckPermission(ctx, "mailer")
	require.NoError(t, err)
	assert.True(t, ok)

	events, err := m.ListAppEventsByApp(ctx, "app-1", lifecycle.ListOptions{})
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestYAMLAndJSONDecodeToSameBundle(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, openTestStore(t))
	seed(t, m)
	exported, err := NewCodec(m, nil).Export(ctx)
	require.NoError(t, err)

	jsonData, err := Encode(exported, FormatJSON)
	require.NoError(t, err)
	yamlData, err := Encode(exported, FormatYAML)
	require.NoError(t, err)

	fromJSON, err := Decode(jsonData, FormatJSON)
	require.NoError(t, err)
	fromYAML, err := Decode(yamlData, FormatYAML)
	require.NoError(t, err)

	assert.Equal(t, fromJSON, fromYAML)
	assert.Equal(t, exported, fromJSON)
}

func TestDecodeRejectsUnknownVersion(t *testing.T) {
	_, err := Decode([]byte(`{"schema_version":"2.0","export_timestamp":1}`), FormatJSON)
	assert.Equal(t, ir.CodeUnsupportedVersion, ir.CodeOf(err))

	_, err = Decode([]byte(`{"export_timestamp":1}`), FormatJSON)
	assert.Equal(t, ir.CodeUnsupportedVersion, ir.CodeOf(err))
}

func TestFormatFromPath(t *testing.T) {
	assert.Equal(t, FormatYAML, FormatFromPath("backup.YAML"))
	assert.Equal(t, FormatYAML, FormatFromPath("backup.yml"))
	assert.Equal(t, FormatJSON, FormatFromPath("backup.json"))
	assert.Equal(t, FormatJSON, FormatFromPath("backup"))

	_, err := ParseFormat("toml")
	assert.Error(t, err)
}

// failingStore fails every entry write of one kind.
type failingStore struct {
	*store.Store
	kind ir.Kind
}

func (f failingStore) PutEntry(ctx context.Context, in store.EntryInput) (ir.Entry, error) {
	if in.Kind == f.kind {
		return ir.Entry{}, errors.New("disk full")
	}
	return f.Store.PutEntry(ctx, in)
}

func TestImportContinuesPastFailingKind(t *testing.T) {
	ctx := context.Background()
	src := newTestManager(t, openTestStore(t))
	seed(t, src)
	exported, err := NewCodec(src, nil).Export(ctx)
	require.NoError(t, err)

	dst := newTestManager(t, failingStore{Store: openTestStore(t), kind: ir.KindServicePermission})
	report, err := NewCodec(dst, nil).Import(ctx, exported)
	require.NoError(t, err)

	require.Error(t, report.Err())
	assert.Contains(t, report.Failed, ir.KindServicePermission)
	assert.Contains(t, report.Err().Error(), "service_permission")
	assert.Len(t, report.Failed, 1)

	profile, err := dst.GetProfile(ctx)
	require.NoError(t, err)
	assert.NotNil(t, profile, "kinds before the failure stay committed")
	logins, err := dst.ListLogins(ctx, lifecycle.ListOptions{})
	require.NoError(t, err)
	assert.Len(t, logins, 1, "kinds after the failure still import")
}
