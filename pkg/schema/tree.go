package schema

import (
	"fmt"
	"sort"
)

// RefNameKey is the key that names the component behind an object reference.
const RefNameKey = "name"

// Lookup resolves the parameter schema of a named component of a given kind.
type Lookup interface {
	Schema(kind, name string) (Schema, bool)
}

// Checker is implemented by a Lookup whose components constrain several
// parameters together. Check runs on parameters that already passed their
// field validators. A returned *ValidationError keys the failure relative to
// the reference; any other error is reported at the reference itself.
type Checker interface {
	Check(kind, name string, params map[string]any) error
}

// ObjectType validates a nested mapping against a schema.
// Keys not declared in the schema are rejected.
type ObjectType struct {
	fields Schema
}

func (t *ObjectType) Name() string { return "mapping" }

// Fields returns the nested schema.
func (t *ObjectType) Fields() Schema { return t.fields }

func (t *ObjectType) Validate(value any) error {
	_, errs := t.Normalize("", value)
	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}

// Normalize returns a fresh mapping with defaults applied.
func (t *ObjectType) Normalize(path string, value any) (any, []error) {
	if value == nil {
		value = map[string]any{}
	}
	data, ok := value.(map[string]any)
	if !ok {
		return value, fail(path, fmt.Errorf("expected mapping, got %T", value), value)
	}

	var errs []error
	out := make(map[string]any, len(t.fields))

	for _, key := range sortedKeys(data) {
		if _, declared := t.fields[key]; !declared {
			errs = append(errs, &ValidationError{
				Key:    join(path, key),
				Reason: "unknown key",
				Value:  data[key],
			})
		}
	}

	for _, key := range sortedKeys(t.fields) {
		fieldType := t.fields[key]
		fieldPath := join(path, key)
		value, exists := data[key]
		if !exists || value == nil {
			opt, optional := fieldType.(*OptionalType)
			if !optional {
				errs = append(errs, &ValidationError{
					Key:    fieldPath,
					Reason: "required (expected " + fieldType.Name() + ")",
				})
				continue
			}
			if opt.def == nil {
				continue
			}
			value = Clone(opt.def)
		}

		normalized, fieldErrs := normalizeValue(fieldPath, fieldType, value)
		errs = append(errs, fieldErrs...)
		out[key] = normalized
	}

	return out, errs
}

// OptionalType marks a field as optional, with an optional default.
type OptionalType struct {
	inner Type
	def   any
}

func (t *OptionalType) Name() string { return t.inner.Name() }

// Default returns the default value, or nil when the field has none.
func (t *OptionalType) Default() any { return t.def }

func (t *OptionalType) Validate(value any) error { return t.inner.Validate(value) }

func (t *OptionalType) Normalize(path string, value any) (any, []error) {
	return normalizeValue(path, t.inner, value)
}

// FreeformType accepts any value verbatim.
type FreeformType struct{}

func (t *FreeformType) Name() string { return "any" }

func (t *FreeformType) Validate(value any) error { return nil }

func (t *FreeformType) Normalize(path string, value any) (any, []error) {
	return Clone(value), nil
}

// RefType validates an object reference: a mapping whose "name" key names a
// component of the given kind and whose remaining keys are its parameters.
// A bare string is accepted as shorthand for a reference without parameters.
type RefType struct {
	kind   string
	lookup Lookup
}

func (t *RefType) Name() string { return "ref(" + t.kind + ")" }

// Kind returns the component kind the reference points into.
func (t *RefType) Kind() string { return t.kind }

func (t *RefType) Validate(value any) error {
	_, errs := t.Normalize("", value)
	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}

// Normalize checks the reference shape and, when the component is known,
// validates its parameters. Unknown components keep their parameters as
// written so that construction can report them.
func (t *RefType) Normalize(path string, value any) (any, []error) {
	if s, ok := value.(string); ok {
		value = map[string]any{RefNameKey: s}
	}
	data, ok := value.(map[string]any)
	if !ok {
		return value, fail(path, fmt.Errorf("expected %s mapping, got %T", t.Name(), value), value)
	}

	name, ok := data[RefNameKey].(string)
	if !ok || name == "" {
		return value, fail(join(path, RefNameKey), fmt.Errorf("expected non-empty string naming a %s component", t.kind), data[RefNameKey])
	}

	params := make(map[string]any, len(data))
	for k, v := range data {
		if k != RefNameKey {
			params[k] = v
		}
	}

	var out map[string]any
	var errs []error
	if s, found := t.lookupSchema(name); found {
		normalized, paramErrs := (&ObjectType{fields: s}).Normalize(path, params)
		out, _ = normalized.(map[string]any)
		errs = paramErrs
		if len(errs) == 0 {
			errs = t.check(path, name, out)
		}
	} else {
		out, _ = Clone(params).(map[string]any)
	}
	if out == nil {
		out = map[string]any{}
	}
	out[RefNameKey] = name
	return out, errs
}

func (t *RefType) check(path, name string, params map[string]any) []error {
	c, ok := t.lookup.(Checker)
	if !ok {
		return nil
	}
	err := c.Check(t.kind, name, params)
	if err == nil {
		return nil
	}
	if ve, ok := err.(*ValidationError); ok {
		return []error{&ValidationError{Key: join(path, ve.Key), Reason: ve.Reason, Value: ve.Value}}
	}
	return fail(path, err, params)
}

func (t *RefType) lookupSchema(name string) (Schema, bool) {
	if t.lookup == nil {
		return nil, false
	}
	return t.lookup.Schema(t.kind, name)
}

// Object creates a nested mapping validator.
func Object(fields Schema) Type { return &ObjectType{fields: fields} }

// Optional marks t as optional. A nil def means the key is left out when absent.
func Optional(t Type, def any) Type { return &OptionalType{inner: t, def: def} }

// Freeform accepts any value without validation.
func Freeform() Type { return &FreeformType{} }

// Ref creates an object reference validator for components of kind.
func Ref(kind string, lookup Lookup) Type { return &RefType{kind: kind, lookup: lookup} }

// Unwrap strips Optional wrappers.
func Unwrap(t Type) Type {
	for {
		opt, ok := t.(*OptionalType)
		if !ok {
			return t
		}
		t = opt.inner
	}
}

// Normalize validates data against the schema and returns a normalized copy
// with defaults applied. On failure it returns an *AggregateError listing every
// offending key and never a partial result.
func Normalize(schema Schema, data map[string]any) (map[string]any, error) {
	out, errs := (&ObjectType{fields: schema}).Normalize("", data)
	if len(errs) > 0 {
		sortErrors(errs)
		return nil, &AggregateError{Errors: errs}
	}
	return out.(map[string]any), nil
}

// Clone deep-copies maps and slices produced by YAML decoding.
func Clone(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = Clone(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = Clone(item)
		}
		return out
	default:
		return v
	}
}

func normalizeValue(path string, t Type, value any) (any, []error) {
	if n, ok := t.(Normalizer); ok {
		return n.Normalize(path, value)
	}
	if err := t.Validate(value); err != nil {
		return value, fail(path, err, value)
	}
	return value, nil
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortErrors(errs []error) {
	sort.SliceStable(errs, func(i, j int) bool {
		return errorKey(errs[i]) < errorKey(errs[j])
	})
}

func errorKey(err error) string {
	if ve, ok := err.(*ValidationError); ok {
		return ve.Key
	}
	return ""
}
