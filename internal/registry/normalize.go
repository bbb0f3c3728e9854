package registry

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/roach88/ownerchain/internal/ir"
)

// Normalized is the result of Normalize.
type Normalized struct {
	// Fields holds only declared fields.
	Fields map[string]any
	// Defaulted names the required fields filled with their default.
	Defaulted []string
	// Dropped names the unknown fields removed, sorted.
	Dropped []string
}

// Normalize validates a payload against its kind.
//
// Missing required fields (absent or null) are filled with their declared
// default. Missing optional fields stay absent. Unknown fields are dropped.
// A present field of the wrong type is an INVALID_PAYLOAD error.
func (r *Registry) Normalize(kind ir.Kind, fields map[string]any) (Normalized, error) {
	spec, err := r.Lookup(kind)
	if err != nil {
		return Normalized{}, err
	}

	out := make(map[string]any, len(spec.Fields))
	var defaulted []string

	for _, f := range spec.Fields {
		v, ok := fields[f.Name]
		if !ok || v == nil {
			if f.Optional {
				continue
			}
			out[f.Name] = f.ZeroValue()
			defaulted = append(defaulted, f.Name)
			continue
		}
		if err := checkType(f, v); err != nil {
			return Normalized{}, ir.NewError(ir.CodeInvalidPayload, err.Error()).WithKind(kind)
		}
		out[f.Name] = v
	}

	var dropped []string
	for name := range fields {
		if _, ok := spec.Field(name); !ok {
			dropped = append(dropped, name)
		}
	}
	slices.Sort(dropped)

	return Normalized{Fields: out, Defaulted: defaulted, Dropped: dropped}, nil
}

// checkType verifies that v is a JSON value of the field's declared type.
func checkType(f FieldSpec, v any) error {
	switch f.Type {
	case TypeString:
		if _, ok := v.(string); ok {
			return nil
		}
	case TypeBool:
		if _, ok := v.(bool); ok {
			return nil
		}
	case TypeInt:
		switch n := v.(type) {
		case int, int64:
			return nil
		case json.Number:
			if _, err := n.Int64(); err == nil {
				return nil
			}
		}
	default:
		return fmt.Errorf("field %q has unknown type %q", f.Name, f.Type)
	}
	return fmt.Errorf("field %q must be %s, got %T", f.Name, f.Type, v)
}
