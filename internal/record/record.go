// Package record defines the payload struct of every record kind.
//
// JSON field names are the persisted names and must not change: they appear
// in stored entries and in export bundles. Optional fields are pointers with
// omitempty so that an unset value is absent rather than null.
// All timestamps are microseconds since the Unix epoch.
package record

import "github.com/roach88/ownerchain/internal/ir"

// Profile is the owner's encrypted profile. Singleton, chain policy.
type Profile struct {
	EncryptedEmail string  `json:"encrypted_email" yaml:"encrypted_email"`
	Nonce          string  `json:"nonce" yaml:"nonce"`
	Salt           string  `json:"salt" yaml:"salt"`
	Tag            string  `json:"tag" yaml:"tag"`
	Username       *string `json:"username,omitempty" yaml:"username,omitempty"`
	DisplayName    string  `json:"display_name" yaml:"display_name"`
	CreatedAt      int64   `json:"created_at" yaml:"created_at"`
	UpdatedAt      int64   `json:"updated_at" yaml:"updated_at"`
}

// Secret is the owner's encrypted recovery phrase. Singleton, replace policy.
type Secret struct {
	EncryptedMnemonic string `json:"encrypted_mnemonic" yaml:"encrypted_mnemonic"`
	Nonce             string `json:"nonce" yaml:"nonce"`
	Salt              string `json:"salt" yaml:"salt"`
	Tag               string `json:"tag" yaml:"tag"`
	Verified          bool   `json:"verified" yaml:"verified"`
	CreatedAt         int64  `json:"created_at" yaml:"created_at"`
}

// ServicePermission records consent for a service to use the owner's email.
// Multi, keyed by ServiceName.
type ServicePermission struct {
	ServiceName string `json:"service_name" yaml:"service_name"`
	Purpose     string `json:"purpose" yaml:"purpose"`
	Granted     bool   `json:"granted" yaml:"granted"`
	GrantedAt   *int64 `json:"granted_at,omitempty" yaml:"granted_at,omitempty"`
	RevokedAt   *int64 `json:"revoked_at,omitempty" yaml:"revoked_at,omitempty"`
	LastUsedAt  *int64 `json:"last_used_at,omitempty" yaml:"last_used_at,omitempty"`
	CreatedAt   int64  `json:"created_at" yaml:"created_at"`
	UpdatedAt   int64  `json:"updated_at" yaml:"updated_at"`
}

// LoginActivity is one login event.
type LoginActivity struct {
	Timestamp   int64   `json:"timestamp" yaml:"timestamp"`
	LoginMethod string  `json:"login_method" yaml:"login_method"`
	IPAddress   *string `json:"ip_address,omitempty" yaml:"ip_address,omitempty"`
	UserAgent   *string `json:"user_agent,omitempty" yaml:"user_agent,omitempty"`
	SessionID   string  `json:"session_id" yaml:"session_id"`
	CreatedAt   int64   `json:"created_at" yaml:"created_at"`
}

// DashboardActivity is one dashboard page visit.
type DashboardActivity struct {
	VisitTimestamp  int64  `json:"visit_timestamp" yaml:"visit_timestamp"`
	PagePath        string `json:"page_path" yaml:"page_path"`
	DurationSeconds *int64 `json:"duration_seconds,omitempty" yaml:"duration_seconds,omitempty"`
	CreatedAt       int64  `json:"created_at" yaml:"created_at"`
}

// AppActivity is one third-party app event. Multi, keyed by AppID.
type AppActivity struct {
	Timestamp int64  `json:"timestamp" yaml:"timestamp"`
	AppID     string `json:"app_id" yaml:"app_id"`
	AppName   string `json:"app_name" yaml:"app_name"`
	EventType string `json:"event_type" yaml:"event_type"`
	CreatedAt int64  `json:"created_at" yaml:"created_at"`
}

// PrivacySettings controls what activity is recorded and for how long.
type PrivacySettings struct {
	TrackIPAddress           bool   `json:"track_ip_address" yaml:"track_ip_address"`
	TrackUserAgent           bool   `json:"track_user_agent" yaml:"track_user_agent"`
	ActivityLogRetentionDays int64  `json:"activity_log_retention_days" yaml:"activity_log_retention_days"`
	AutoAnonymizeAfterDays   *int64 `json:"auto_anonymize_after_days,omitempty" yaml:"auto_anonymize_after_days,omitempty"`
	CreatedAt                int64  `json:"created_at" yaml:"created_at"`
	UpdatedAt                int64  `json:"updated_at" yaml:"updated_at"`
}

// Privacy defaults applied when an owner has no settings record.
const (
	DefaultTrackIPAddress = true
	DefaultTrackUserAgent = true
	DefaultRetentionDays  = 90
)

// DefaultPrivacySettings returns the settings synthesized for owners that
// never configured privacy, stamped with now.
func DefaultPrivacySettings(now int64) PrivacySettings {
	return PrivacySettings{
		TrackIPAddress:           DefaultTrackIPAddress,
		TrackUserAgent:           DefaultTrackUserAgent,
		ActivityLogRetentionDays: DefaultRetentionDays,
		CreatedAt:                now,
		UpdatedAt:                now,
	}
}

// AnalyticsAlias maps an app to a random per-app analytics id.
// Multi, keyed by AppID.
type AnalyticsAlias struct {
	AppID       string `json:"app_id" yaml:"app_id"`
	AnalyticsID string `json:"analytics_id" yaml:"analytics_id"`
	CreatedAt   int64  `json:"created_at" yaml:"created_at"`
}

// Session is the deprecated session record, kept for older bundles.
type Session struct {
	UserAgent   string `json:"user_agent" yaml:"user_agent"`
	IPAddress   string `json:"ip_address" yaml:"ip_address"`
	DeviceInfo  string `json:"device_info" yaml:"device_info"`
	ConductorID string `json:"conductor_id" yaml:"conductor_id"`
	CreatedAt   int64  `json:"created_at" yaml:"created_at"`
	LastActive  int64  `json:"last_active" yaml:"last_active"`
}

// Resolved pairs a decoded payload with the entry it came from. Hash is the
// head hash; Edge is the edge the instance was reached through.
type Resolved[T any] struct {
	Value T
	Hash  ir.Hash
	Edge  ir.Edge
}

// Ptr returns a pointer to v. Used for optional payload fields.
func Ptr[T any](v T) *T {
	return &v
}
