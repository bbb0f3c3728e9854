package registry

import (
	_ "embed"
	"fmt"
	"slices"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/ownerchain/internal/ir"
)

//go:embed schema.cue
var schemaCUE string

//go:embed registry.cue
var registryCUE string

// Registry is an immutable set of compiled kind declarations.
type Registry struct {
	version string
	kinds   map[ir.Kind]KindSpec
}

var (
	defaultOnce sync.Once
	defaultReg  *Registry
	defaultErr  error
)

// Load compiles the embedded registry document.
func Load() (*Registry, error) {
	defaultOnce.Do(func() {
		defaultReg, defaultErr = Compile(registryCUE)
	})
	return defaultReg, defaultErr
}

// Default returns the embedded registry and panics if it does not compile.
func Default() *Registry {
	r, err := Load()
	if err != nil {
		panic(fmt.Sprintf("registry: embedded document is invalid: %v", err))
	}
	return r
}

// Compile builds a registry from a CUE document. The document is unified
// with the registry schema before it is read.
//
//	reg, err := registry.Compile(`
//		version: "1.0"
//		kinds: profile: { ... }
//	`)
func Compile(src string) (*Registry, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(schemaCUE+"\n"+src, cue.Filename("registry.cue"))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	versionVal := v.LookupPath(cue.ParsePath("version"))
	version, err := versionVal.String()
	if err != nil {
		return nil, &CompileError{Field: "version", Message: "version is required", Pos: versionVal.Pos()}
	}

	kindsVal := v.LookupPath(cue.ParsePath("kinds"))
	iter, err := kindsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	reg := &Registry{version: version, kinds: make(map[ir.Kind]KindSpec)}
	for iter.Next() {
		spec, err := compileKind(ir.Kind(iter.Label()), iter.Value())
		if err != nil {
			return nil, err
		}
		if err := spec.validate(); err != nil {
			return nil, &CompileError{Field: "kinds." + iter.Label(), Message: err.Error(), Pos: iter.Value().Pos()}
		}
		reg.kinds[spec.Kind] = spec
	}

	if len(reg.kinds) == 0 {
		return nil, &CompileError{Field: "kinds", Message: "at least one kind is required", Pos: kindsVal.Pos()}
	}

	return reg, nil
}

// compileKind parses a single #Kind value.
func compileKind(kind ir.Kind, v cue.Value) (KindSpec, error) {
	spec := KindSpec{Kind: kind}

	var err error
	if spec.Link, err = requiredString(v, "link"); err != nil {
		return KindSpec{}, err
	}
	card, err := requiredString(v, "cardinality")
	if err != nil {
		return KindSpec{}, err
	}
	spec.Cardinality = Cardinality(card)

	policy, err := requiredString(v, "policy")
	if err != nil {
		return KindSpec{}, err
	}
	spec.Policy = Policy(policy)

	if spec.TimestampField, err = requiredString(v, "timestamp"); err != nil {
		return KindSpec{}, err
	}
	if spec.InstanceKeyField, err = optionalString(v, "instance_key"); err != nil {
		return KindSpec{}, err
	}
	if spec.EventLog, err = optionalBool(v, "event_log"); err != nil {
		return KindSpec{}, err
	}
	if spec.Deprecated, err = optionalBool(v, "deprecated"); err != nil {
		return KindSpec{}, err
	}

	fieldIter, err := v.LookupPath(cue.ParsePath("fields")).Fields()
	if err != nil {
		return KindSpec{}, formatCUEError(err)
	}
	for fieldIter.Next() {
		f, err := compileField(fieldIter.Label(), fieldIter.Value())
		if err != nil {
			return KindSpec{}, err
		}
		spec.Fields = append(spec.Fields, f)
	}

	return spec, nil
}

// compileField parses a single #Field value.
func compileField(name string, v cue.Value) (FieldSpec, error) {
	typ, err := requiredString(v, "type")
	if err != nil {
		return FieldSpec{}, err
	}
	f := FieldSpec{Name: name, Type: FieldType(typ)}

	if f.Optional, err = optionalBool(v, "optional"); err != nil {
		return FieldSpec{}, err
	}

	def := v.LookupPath(cue.ParsePath("default"))
	if !def.Exists() || !def.IsConcrete() {
		return f, nil
	}
	switch def.Kind() {
	case cue.StringKind:
		f.Default, err = def.String()
	case cue.IntKind:
		f.Default, err = def.Int64()
	case cue.BoolKind:
		f.Default, err = def.Bool()
	default:
		return FieldSpec{}, &CompileError{Field: name + ".default", Message: "unsupported default", Pos: def.Pos()}
	}
	if err != nil {
		return FieldSpec{}, formatCUEError(err)
	}
	return f, nil
}

func requiredString(v cue.Value, path string) (string, error) {
	f := v.LookupPath(cue.ParsePath(path))
	if !f.Exists() {
		return "", &CompileError{Field: path, Message: path + " is required", Pos: v.Pos()}
	}
	s, err := f.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func optionalString(v cue.Value, path string) (string, error) {
	f := v.LookupPath(cue.ParsePath(path))
	if !f.Exists() || !f.IsConcrete() {
		return "", nil
	}
	s, err := f.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func optionalBool(v cue.Value, path string) (bool, error) {
	f := v.LookupPath(cue.ParsePath(path))
	if !f.Exists() || !f.IsConcrete() {
		return false, nil
	}
	b, err := f.Bool()
	if err != nil {
		return false, formatCUEError(err)
	}
	return b, nil
}

// Version returns the schema version the registry describes.
func (r *Registry) Version() string {
	return r.version
}

// Lookup returns the declaration for a kind.
// Unknown kinds yield an INVALID_KIND error.
func (r *Registry) Lookup(kind ir.Kind) (KindSpec, error) {
	spec, ok := r.kinds[kind]
	if !ok {
		return KindSpec{}, ir.NewError(ir.CodeInvalidKind, "unknown record kind").WithKind(kind)
	}
	return spec, nil
}

// Kinds returns every declared kind sorted by name.
func (r *Registry) Kinds() []ir.Kind {
	kinds := make([]ir.Kind, 0, len(r.kinds))
	for k := range r.kinds {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	return kinds
}

// EventLogKinds returns the kinds eligible for retention sweeps, sorted.
func (r *Registry) EventLogKinds() []ir.Kind {
	var kinds []ir.Kind
	for _, k := range r.Kinds() {
		if r.kinds[k].EventLog {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

// CompileError is a registry document error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	positions := errors.Positions(first)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
