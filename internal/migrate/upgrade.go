package migrate

import (
	"fmt"

	"github.com/roach88/ownerchain/internal/ir"
	"github.com/roach88/ownerchain/internal/record"
)

// FieldDefault records a value an older bundle lacked and the default it was
// given. Informational, never fatal.
type FieldDefault struct {
	// From is the bundle version the field was missing in.
	From  string  `json:"from"`
	Kind  ir.Kind `json:"kind"`
	Field string  `json:"field"`

	// Default describes the value used. A whole missing record kind is
	// reported with Field "*".
	Default string `json:"default"`
}

// Err returns the default as a MIGRATION_FIELD_MISSING error for logging.
func (d FieldDefault) Err() error {
	return ir.NewError(ir.CodeMigrationFieldMissing,
		fmt.Sprintf("%s bundle has no %s; using %s", d.From, d.Field, d.Default)).WithKind(d.Kind)
}

// Upgrade converts a bundle of any supported version to the current layout,
// applying one explicit transition per version step.
func Upgrade(b Bundle) (*BundleV1_9, []FieldDefault, error) {
	var defaults []FieldDefault
	step := func(d []FieldDefault) { defaults = append(defaults, d...) }

	switch v := b.(type) {
	case *BundleV1_0:
		b11, d := upgrade1_0to1_1(v)
		step(d)
		b16, d := upgrade1_1to1_6(b11)
		step(d)
		b19, d := upgrade1_6to1_9(b16)
		step(d)
		return b19, defaults, nil
	case *BundleV1_1:
		b16, d := upgrade1_1to1_6(v)
		step(d)
		b19, d := upgrade1_6to1_9(b16)
		step(d)
		return b19, defaults, nil
	case *BundleV1_6:
		b19, d := upgrade1_6to1_9(v)
		step(d)
		return b19, defaults, nil
	case *BundleV1_9:
		current := *v
		current.fillEmpty()
		return &current, nil, nil
	default:
		return nil, nil, ir.NewError(ir.CodeUnsupportedVersion,
			fmt.Sprintf("bundle schema version %q is not supported", b.Version()))
	}
}

// upgrade1_0to1_1 adds an empty permission list.
func upgrade1_0to1_1(b *BundleV1_0) (*BundleV1_1, []FieldDefault) {
	out := &BundleV1_1{
		Header:             Header{SchemaVersion: Version1_1, ExportTimestamp: b.ExportTimestamp},
		Profile:            b.Profile,
		Secret:             b.Secret,
		Sessions:           b.Sessions,
		ServicePermissions: []record.ServicePermission{},
	}
	return out, []FieldDefault{
		{From: Version1_0, Kind: ir.KindServicePermission, Field: "*", Default: "no permissions"},
	}
}

// upgrade1_1to1_6 adds empty activity logs. Privacy settings stay absent here;
// Import synthesizes them for every bundle that lacks them.
func upgrade1_1to1_6(b *BundleV1_1) (*BundleV1_6, []FieldDefault) {
	out := &BundleV1_6{
		Header:              Header{SchemaVersion: Version1_6, ExportTimestamp: b.ExportTimestamp},
		Profile:             b.Profile,
		Secret:              b.Secret,
		Sessions:            b.Sessions,
		ServicePermissions:  b.ServicePermissions,
		LoginActivities:     []record.LoginActivity{},
		DashboardActivities: []record.DashboardActivity{},
		AppActivities:       []record.AppActivity{},
	}
	return out, []FieldDefault{
		{From: Version1_1, Kind: ir.KindLoginActivity, Field: "*", Default: "no events"},
		{From: Version1_1, Kind: ir.KindDashboardActivity, Field: "*", Default: "no events"},
		{From: Version1_1, Kind: ir.KindAppActivity, Field: "*", Default: "no events"},
	}
}

// upgrade1_6to1_9 converts profiles to the username-aware layout and adds an
// empty alias list. The username stays unset.
func upgrade1_6to1_9(b *BundleV1_6) (*BundleV1_9, []FieldDefault) {
	out := &BundleV1_9{
		Header:              Header{SchemaVersion: Version1_9, ExportTimestamp: b.ExportTimestamp},
		Secret:              b.Secret,
		Sessions:            b.Sessions,
		ServicePermissions:  b.ServicePermissions,
		LoginActivities:     b.LoginActivities,
		DashboardActivities: b.DashboardActivities,
		AppActivities:       b.AppActivities,
		PrivacySettings:     b.PrivacySettings,
		AnalyticsAliases:    []record.AnalyticsAlias{},
	}
	defaults := []FieldDefault{
		{From: Version1_6, Kind: ir.KindAnalyticsAlias, Field: "*", Default: "no aliases"},
	}

	if p := b.Profile; p != nil {
		out.Profile = &record.Profile{
			EncryptedEmail: p.EncryptedEmail,
			Nonce:          p.Nonce,
			Salt:           p.Salt,
			Tag:            p.Tag,
			DisplayName:    p.DisplayName,
			CreatedAt:      p.CreatedAt,
			UpdatedAt:      p.UpdatedAt,
		}
		defaults = append(defaults, FieldDefault{
			From: Version1_6, Kind: ir.KindProfile, Field: "username", Default: "unset",
		})
	}

	out.fillEmpty()
	return out, defaults
}
