package registry

import (
	"fmt"

	"github.com/roach88/ownerchain/internal/ir"
)

// Cardinality is the number of logical instances a kind may have per owner.
type Cardinality string

const (
	Singleton Cardinality = "singleton"
	Multi     Cardinality = "multi"
)

// Policy is how a kind is mutated.
type Policy string

const (
	// PolicyChain updates by storing a new entry whose predecessor is the head.
	PolicyChain Policy = "chain"

	// PolicyReplace updates by removing every edge and linking a fresh entry.
	PolicyReplace Policy = "replace"
)

// FieldType is the JSON type of a payload field.
type FieldType string

const (
	TypeString FieldType = "string"
	TypeInt    FieldType = "int"
	TypeBool   FieldType = "bool"
)

// FieldSpec describes one payload field.
type FieldSpec struct {
	Name     string
	Type     FieldType
	Optional bool

	// Default is used when a required field is absent. Nil means the zero
	// value of Type.
	Default any
}

// ZeroValue returns the value written for the field when it is missing.
func (f FieldSpec) ZeroValue() any {
	if f.Default != nil {
		return f.Default
	}
	switch f.Type {
	case TypeInt:
		return int64(0)
	case TypeBool:
		return false
	default:
		return ""
	}
}

// KindSpec is the compiled declaration of one record kind.
type KindSpec struct {
	Kind        ir.Kind
	Link        string
	Cardinality Cardinality
	Policy      Policy

	// TimestampField names the int field compared when picking the most
	// recent of several heads.
	TimestampField string

	// InstanceKeyField names the string field that identifies an instance of
	// a multi kind. Empty when instances are anonymous.
	InstanceKeyField string

	// EventLog marks append-only activity kinds eligible for retention sweeps.
	EventLog   bool
	Deprecated bool

	Fields []FieldSpec
}

// IsSingleton reports whether the kind has at most one logical instance.
func (k KindSpec) IsSingleton() bool {
	return k.Cardinality == Singleton
}

// Field returns the named field spec.
func (k KindSpec) Field(name string) (FieldSpec, bool) {
	for _, f := range k.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// InstanceKey extracts the instance key from a normalized payload.
// Returns "" for kinds without an instance-key field.
func (k KindSpec) InstanceKey(fields map[string]any) string {
	if k.InstanceKeyField == "" {
		return ""
	}
	s, _ := fields[k.InstanceKeyField].(string)
	return s
}

// Timestamp reads the kind's logical timestamp from an entry payload.
func (k KindSpec) Timestamp(e ir.Entry) (int64, error) {
	return e.IntField(k.TimestampField)
}

// validate checks internal consistency of a compiled kind.
func (k KindSpec) validate() error {
	ts, ok := k.Field(k.TimestampField)
	if !ok {
		return fmt.Errorf("kind %s: timestamp field %q is not declared", k.Kind, k.TimestampField)
	}
	if ts.Type != TypeInt || ts.Optional {
		return fmt.Errorf("kind %s: timestamp field %q must be a required int", k.Kind, k.TimestampField)
	}
	if k.InstanceKeyField != "" {
		f, ok := k.Field(k.InstanceKeyField)
		if !ok || f.Type != TypeString {
			return fmt.Errorf("kind %s: instance key %q must be a declared string field", k.Kind, k.InstanceKeyField)
		}
		if k.Cardinality == Singleton {
			return fmt.Errorf("kind %s: singleton kinds cannot have an instance key", k.Kind)
		}
	}
	if k.EventLog && k.Cardinality == Singleton {
		return fmt.Errorf("kind %s: event log kinds must be multi", k.Kind)
	}
	for _, f := range k.Fields {
		if f.Default == nil {
			continue
		}
		if err := checkType(f, f.Default); err != nil {
			return fmt.Errorf("kind %s: default: %w", k.Kind, err)
		}
	}
	return nil
}
