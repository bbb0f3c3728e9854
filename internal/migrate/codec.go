package migrate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/roach88/ownerchain/internal/ir"
	"github.com/roach88/ownerchain/internal/lifecycle"
	"github.com/roach88/ownerchain/internal/record"
)

// Codec exports and imports one owner's records.
type Codec struct {
	m      *lifecycle.Manager
	logger *slog.Logger
}

// NewCodec creates a codec acting through m. A nil logger uses slog.Default().
func NewCodec(m *lifecycle.Manager, logger *slog.Logger) *Codec {
	if logger == nil {
		logger = slog.Default()
	}
	return &Codec{m: m, logger: logger}
}

// Report summarizes an import. Each kind is imported independently; a kind
// listed in Failed may still have some records committed.
type Report struct {
	SourceVersion string             `json:"source_version"`
	Imported      map[ir.Kind]int    `json:"imported"`
	Failed        map[ir.Kind]string `json:"failed,omitempty"`
	Defaulted     []FieldDefault     `json:"defaulted,omitempty"`

	errs map[ir.Kind]error
}

func newReport(version string) *Report {
	return &Report{
		SourceVersion: version,
		Imported:      make(map[ir.Kind]int),
		Failed:        make(map[ir.Kind]string),
		errs:          make(map[ir.Kind]error),
	}
}

func (r *Report) fail(kind ir.Kind, err error) {
	err = fmt.Errorf("import %s: %w", kind, err)
	r.errs[kind] = err
	r.Failed[kind] = err.Error()
}

// Err joins the per-kind failures in kind order. Nil when every kind imported.
func (r *Report) Err() error {
	kinds := make([]ir.Kind, 0, len(r.errs))
	for k := range r.errs {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)

	errs := make([]error, 0, len(kinds))
	for _, k := range kinds {
		errs = append(errs, r.errs[k])
	}
	return errors.Join(errs...)
}

// Export resolves the head of every kind into a current-version bundle.
// The first kind that cannot be resolved aborts the export.
func (c *Codec) Export(ctx context.Context) (*BundleV1_9, error) {
	b := &BundleV1_9{
		Header: Header{
			SchemaVersion:   c.m.Registry().Version(),
			ExportTimestamp: c.m.Now(),
		},
	}

	var err error
	if b.Profile, err = exportOne[record.Profile](ctx, c.m, ir.KindProfile); err != nil {
		return nil, err
	}
	if b.Secret, err = exportOne[record.Secret](ctx, c.m, ir.KindSecret); err != nil {
		return nil, err
	}
	if b.PrivacySettings, err = exportOne[record.PrivacySettings](ctx, c.m, ir.KindPrivacySettings); err != nil {
		return nil, err
	}
	if b.Sessions, err = exportAll[record.Session](ctx, c.m, ir.KindSession); err != nil {
		return nil, err
	}
	if b.ServicePermissions, err = exportAll[record.ServicePermission](ctx, c.m, ir.KindServicePermission); err != nil {
		return nil, err
	}
	if b.LoginActivities, err = exportAll[record.LoginActivity](ctx, c.m, ir.KindLoginActivity); err != nil {
		return nil, err
	}
	if b.DashboardActivities, err = exportAll[record.DashboardActivity](ctx, c.m, ir.KindDashboardActivity); err != nil {
		return nil, err
	}
	if b.AppActivities, err = exportAll[record.AppActivity](ctx, c.m, ir.KindAppActivity); err != nil {
		return nil, err
	}
	if b.AnalyticsAliases, err = exportAll[record.AnalyticsAlias](ctx, c.m, ir.KindAnalyticsAlias); err != nil {
		return nil, err
	}
	b.fillEmpty()

	c.logger.Info("export complete",
		"owner", c.m.Owner(),
		"schema_version", b.SchemaVersion,
		"permissions", len(b.ServicePermissions),
		"logins", len(b.LoginActivities),
	)
	return b, nil
}

func exportOne[T any](ctx context.Context, m *lifecycle.Manager, kind ir.Kind) (*T, error) {
	h, err := m.Get(ctx, kind)
	if ir.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("export %s: %w", kind, err)
	}
	var v T
	if err := h.Entry.Decode(&v); err != nil {
		return nil, fmt.Errorf("export %s: %w", kind, err)
	}
	return &v, nil
}

func exportAll[T any](ctx context.Context, m *lifecycle.Manager, kind ir.Kind) ([]T, error) {
	heads, err := m.ListAll(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("export %s: %w", kind, err)
	}
	out := make([]T, 0, len(heads))
	for _, h := range heads {
		var v T
		if err := h.Entry.Decode(&v); err != nil {
			return nil, fmt.Errorf("export %s: %w", kind, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// Import upgrades b to the current layout and recreates every record through
// the lifecycle Create operation. A failing kind is recorded in the report
// and the remaining kinds still import. The returned error is non-nil only
// when the bundle cannot be upgraded.
//
// Importing the same bundle twice duplicates multi-instance records and
// leaves singletons with duplicate edges that resolve by timestamp.
func (c *Codec) Import(ctx context.Context, b Bundle) (*Report, error) {
	current, defaults, err := Upgrade(b)
	if err != nil {
		return nil, err
	}

	report := newReport(b.Version())
	report.Defaulted = defaults

	if current.PrivacySettings == nil {
		settings := record.DefaultPrivacySettings(current.ExportTimestamp)
		current.PrivacySettings = &settings
		report.Defaulted = append(report.Defaulted, FieldDefault{
			From:    b.Version(),
			Kind:    ir.KindPrivacySettings,
			Field:   "*",
			Default: "default privacy settings",
		})
	}

	for _, d := range report.Defaulted {
		c.logger.Info("bundle field defaulted", "error", d.Err())
	}

	importOne(ctx, c, report, ir.KindProfile, current.Profile)
	importOne(ctx, c, report, ir.KindSecret, current.Secret)
	importOne(ctx, c, report, ir.KindPrivacySettings, current.PrivacySettings)
	importAll(ctx, c, report, ir.KindSession, current.Sessions)
	importAll(ctx, c, report, ir.KindServicePermission, current.ServicePermissions)
	importAll(ctx, c, report, ir.KindLoginActivity, current.LoginActivities)
	importAll(ctx, c, report, ir.KindDashboardActivity, current.DashboardActivities)
	importAll(ctx, c, report, ir.KindAppActivity, current.AppActivities)
	importAll(ctx, c, report, ir.KindAnalyticsAlias, current.AnalyticsAliases)

	if err := report.Err(); err != nil {
		c.logger.Warn("import finished with failures",
			"owner", c.m.Owner(),
			"source_version", report.SourceVersion,
			"failed", len(report.Failed),
		)
	} else {
		c.logger.Info("import complete",
			"owner", c.m.Owner(),
			"source_version", report.SourceVersion,
		)
	}
	return report, nil
}

func importOne[T any](ctx context.Context, c *Codec, r *Report, kind ir.Kind, v *T) {
	if v == nil {
		return
	}
	if _, err := c.m.Create(ctx, kind, v); err != nil {
		r.fail(kind, err)
		return
	}
	r.Imported[kind]++
}

// importAll stops at the first failing record of a kind. Records already
// created stay committed.
func importAll[T any](ctx context.Context, c *Codec, r *Report, kind ir.Kind, items []T) {
	for i := range items {
		if _, err := c.m.Create(ctx, kind, items[i]); err != nil {
			r.fail(kind, fmt.Errorf("record %d: %w", i, err))
			return
		}
		r.Imported[kind]++
	}
}
