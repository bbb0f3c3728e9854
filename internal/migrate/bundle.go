package migrate

import (
	"github.com/roach88/ownerchain/internal/ir"
	"github.com/roach88/ownerchain/internal/record"
)

// Schema versions with a bundle layout.
const (
	Version1_0 = "1.0"
	Version1_1 = "1.1"
	Version1_6 = "1.6"
	Version1_9 = ir.SchemaVersion
)

// Bundle is an export snapshot of one schema version. The concrete types are
// BundleV1_0, BundleV1_1, BundleV1_6 and BundleV1_9.
type Bundle interface {
	Version() string
	header() Header
}

// Header carries the fields every bundle version shares.
type Header struct {
	SchemaVersion   string `json:"schema_version" yaml:"schema_version"`
	ExportTimestamp int64  `json:"export_timestamp" yaml:"export_timestamp"`
}

func (h Header) header() Header { return h }

// ProfileV1_0 is the profile layout before usernames existed.
type ProfileV1_0 struct {
	EncryptedEmail string `json:"encrypted_email" yaml:"encrypted_email"`
	Nonce          string `json:"nonce" yaml:"nonce"`
	Salt           string `json:"salt" yaml:"salt"`
	Tag            string `json:"tag" yaml:"tag"`
	DisplayName    string `json:"display_name" yaml:"display_name"`
	CreatedAt      int64  `json:"created_at" yaml:"created_at"`
	UpdatedAt      int64  `json:"updated_at" yaml:"updated_at"`
}

// BundleV1_0 holds profile, secret and sessions.
type BundleV1_0 struct {
	Header   `yaml:",inline"`
	Profile  *ProfileV1_0     `json:"profile,omitempty" yaml:"profile,omitempty"`
	Secret   *record.Secret   `json:"secret,omitempty" yaml:"secret,omitempty"`
	Sessions []record.Session `json:"sessions" yaml:"sessions"`
}

// Version returns Version1_0.
func (*BundleV1_0) Version() string { return Version1_0 }

// BundleV1_1 adds service permissions.
type BundleV1_1 struct {
	Header             `yaml:",inline"`
	Profile            *ProfileV1_0               `json:"profile,omitempty" yaml:"profile,omitempty"`
	Secret             *record.Secret             `json:"secret,omitempty" yaml:"secret,omitempty"`
	Sessions           []record.Session           `json:"sessions" yaml:"sessions"`
	ServicePermissions []record.ServicePermission `json:"service_permissions" yaml:"service_permissions"`
}

// Version returns Version1_1.
func (*BundleV1_1) Version() string { return Version1_1 }

// BundleV1_6 adds the activity logs and privacy settings.
type BundleV1_6 struct {
	Header              `yaml:",inline"`
	Profile             *ProfileV1_0               `json:"profile,omitempty" yaml:"profile,omitempty"`
	Secret              *record.Secret             `json:"secret,omitempty" yaml:"secret,omitempty"`
	Sessions            []record.Session           `json:"sessions" yaml:"sessions"`
	ServicePermissions  []record.ServicePermission `json:"service_permissions" yaml:"service_permissions"`
	LoginActivities     []record.LoginActivity     `json:"login_activities" yaml:"login_activities"`
	DashboardActivities []record.DashboardActivity `json:"dashboard_activities" yaml:"dashboard_activities"`
	AppActivities       []record.AppActivity       `json:"app_activities" yaml:"app_activities"`
	PrivacySettings     *record.PrivacySettings    `json:"privacy_settings,omitempty" yaml:"privacy_settings,omitempty"`
}

// Version returns Version1_6.
func (*BundleV1_6) Version() string { return Version1_6 }

// BundleV1_9 is the current layout: profiles gain an optional username and
// analytics aliases are added.
type BundleV1_9 struct {
	Header              `yaml:",inline"`
	Profile             *record.Profile            `json:"profile,omitempty" yaml:"profile,omitempty"`
	Secret              *record.Secret             `json:"secret,omitempty" yaml:"secret,omitempty"`
	Sessions            []record.Session           `json:"sessions" yaml:"sessions"`
	ServicePermissions  []record.ServicePermission `json:"service_permissions" yaml:"service_permissions"`
	LoginActivities     []record.LoginActivity     `json:"login_activities" yaml:"login_activities"`
	DashboardActivities []record.DashboardActivity `json:"dashboard_activities" yaml:"dashboard_activities"`
	AppActivities       []record.AppActivity       `json:"app_activities" yaml:"app_activities"`
	PrivacySettings     *record.PrivacySettings    `json:"privacy_settings,omitempty" yaml:"privacy_settings,omitempty"`
	AnalyticsAliases    []record.AnalyticsAlias    `json:"analytics_aliases" yaml:"analytics_aliases"`
}

// Version returns Version1_9.
func (*BundleV1_9) Version() string { return Version1_9 }

// fillEmpty replaces nil lists with empty ones so encoded bundles never
// carry null.
func (b *BundleV1_9) fillEmpty() {
	if b.Sessions == nil {
		b.Sessions = []record.Session{}
	}
	if b.ServicePermissions == nil {
		b.ServicePermissions = []record.ServicePermission{}
	}
	if b.LoginActivities == nil {
		b.LoginActivities = []record.LoginActivity{}
	}
	if b.DashboardActivities == nil {
		b.DashboardActivities = []record.DashboardActivity{}
	}
	if b.AppActivities == nil {
		b.AppActivities = []record.AppActivity{}
	}
	if b.AnalyticsAliases == nil {
		b.AnalyticsAliases = []record.AnalyticsAlias{}
	}
}
