package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Hash is the hex-encoded SHA-256 content address of an entry.
type Hash string

// String returns the hash as a plain string.
func (h Hash) String() string {
	return string(h)
}

// Short returns the first 12 characters of the hash for log output.
func (h Hash) Short() string {
	if len(h) <= 12 {
		return string(h)
	}
	return string(h[:12])
}

// OwnerKey identifies the single writer permitted to mutate its own records.
// Every link edge is based on an owner key.
type OwnerKey string

// Kind tags the payload shape and update policy of an entry.
type Kind string

// Record kinds. The three *_activity kinds are the ActivityEvent subtypes.
const (
	KindProfile           Kind = "profile"
	KindSecret            Kind = "secret"
	KindServicePermission Kind = "service_permission"
	KindLoginActivity     Kind = "login_activity"
	KindDashboardActivity Kind = "dashboard_activity"
	KindAppActivity       Kind = "app_activity"
	KindPrivacySettings   Kind = "privacy_settings"
	KindAnalyticsAlias    Kind = "analytics_alias"

	// KindSession is deprecated and retained only so older bundles import cleanly.
	KindSession Kind = "session"
)

// Entry is an immutable, content-addressed payload of one record kind.
//
// Predecessor is empty for the first revision of a record. Seq is assigned by
// the store at write time and defines insertion order; it is part of the hash
// so identical payloads written twice are distinct entries.
type Entry struct {
	Hash        Hash            `json:"hash"`
	Kind        Kind            `json:"kind"`
	Author      OwnerKey        `json:"author"`
	Predecessor Hash            `json:"predecessor,omitempty"`
	Seq         int64           `json:"seq"`
	Payload     json.RawMessage `json:"payload"`
	Deleted     bool            `json:"deleted,omitempty"`
}

// HasPredecessor reports whether the entry updates an earlier revision.
func (e Entry) HasPredecessor() bool {
	return e.Predecessor != ""
}

// Decode unmarshals the entry payload into v.
func (e Entry) Decode(v any) error {
	if len(e.Payload) == 0 {
		return NewError(CodeInvalidPayload, "entry has empty payload").WithHash(e.Hash)
	}
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("decode %s payload %s: %w", e.Kind, e.Hash.Short(), err)
	}
	return nil
}

// Fields returns the payload as a generic object with numbers preserved as json.Number.
func (e Entry) Fields() (map[string]any, error) {
	return DecodeObject(e.Payload)
}

// IntField reads an integer payload field. Missing fields are reported as an
// INVALID_PAYLOAD error so callers can skip or surface them.
func (e Entry) IntField(name string) (int64, error) {
	fields, err := e.Fields()
	if err != nil {
		return 0, err
	}
	raw, ok := fields[name]
	if !ok {
		return 0, NewError(CodeInvalidPayload, fmt.Sprintf("payload has no field %q", name)).
			WithKind(e.Kind).WithHash(e.Hash)
	}
	n, ok := raw.(json.Number)
	if !ok {
		return 0, NewError(CodeInvalidPayload, fmt.Sprintf("field %q is not a number", name)).
			WithKind(e.Kind).WithHash(e.Hash)
	}
	v, err := n.Int64()
	if err != nil {
		return 0, NewError(CodeInvalidPayload, fmt.Sprintf("field %q is not an integer", name)).
			WithKind(e.Kind).WithHash(e.Hash)
	}
	return v, nil
}

// Edge is a directed link (owner, kind[, instance key]) -> entry hash.
// Edges are listed in Seq order, which is insertion order per owner.
type Edge struct {
	ID          string   `json:"id"`
	Owner       OwnerKey `json:"owner"`
	Kind        Kind     `json:"kind"`
	InstanceKey string   `json:"instance_key,omitempty"`
	Target      Hash     `json:"target"`
	Seq         int64    `json:"seq"`
}

// DecodeObject parses a JSON object keeping numbers as json.Number so that
// int64 values above 2^53 survive a round trip.
func DecodeObject(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, fmt.Errorf("decode object: %w", err)
	}
	if obj == nil {
		return nil, NewError(CodeInvalidPayload, "payload is not a JSON object")
	}
	return obj, nil
}

// ToObject converts any JSON-marshalable value (typically a payload struct)
// into a generic object suitable for canonical marshaling.
func ToObject(v any) (map[string]any, error) {
	if obj, ok := v.(map[string]any); ok {
		return obj, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("to object: %w", err)
	}
	return DecodeObject(data)
}
