package schema

import (
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strings"
)

// Type defines the contract for field validation.
// Implementations determine how values are validated against a type.
type Type interface {
	// Name returns the human-readable name of the type (e.g., "string", "int").
	Name() string
	// Validate checks if a value conforms to this type.
	Validate(value any) error
}

// Normalizer is implemented by types that rewrite the value they accept,
// such as numeric widening or nested trees. Errors carry the full key path.
type Normalizer interface {
	Normalize(path string, value any) (any, []error)
}

// --- Built-in Type Implementations ---

// StringType validates string values.
type StringType struct{}

func (t *StringType) Name() string { return "string" }

func (t *StringType) Validate(value any) error {
	_, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected string, got %T", value)
	}
	return nil
}

// IntType validates integer values.
type IntType struct{}

func (t *IntType) Name() string { return "int" }

func (t *IntType) Validate(value any) error {
	_, err := toInt(value)
	return err
}

// Normalize stores every accepted integer as int.
func (t *IntType) Normalize(path string, value any) (any, []error) {
	i, err := toInt(value)
	if err != nil {
		return value, fail(path, err, value)
	}
	return i, nil
}

func toInt(value any) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int8:
		return int(v), nil
	case int16:
		return int(v), nil
	case int32:
		return int(v), nil
	case int64:
		if v < math.MinInt || v > math.MaxInt {
			return 0, fmt.Errorf("expected int, got %d (out of range)", v)
		}
		return int(v), nil
	case uint:
		return uintToInt(uint64(v))
	case uint32:
		return uintToInt(uint64(v))
	case uint64:
		return uintToInt(v)
	case float64:
		// Accept floats that are whole numbers (from JSON unmarshaling)
		if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
			return 0, fmt.Errorf("expected int, got float %v (not a whole number)", v)
		}
		// float64(math.MinInt) is exact; -float64(math.MinInt) is one past MaxInt.
		if v < float64(math.MinInt) || v >= -float64(math.MinInt) {
			return 0, fmt.Errorf("expected int, got %v (out of range)", v)
		}
		return int(v), nil
	default:
		return 0, fmt.Errorf("expected int, got %T", value)
	}
}

func uintToInt(v uint64) (int, error) {
	if v > math.MaxInt {
		return 0, fmt.Errorf("expected int, got %d (out of range)", v)
	}
	return int(v), nil
}

// FloatType validates floating-point values.
type FloatType struct{}

func (t *FloatType) Name() string { return "float" }

func (t *FloatType) Validate(value any) error {
	_, err := toFloat(value)
	return err
}

// Normalize stores every accepted number as float64 so that ints written
// as "1" and floats written as "1.0" resolve to the same value.
func (t *FloatType) Normalize(path string, value any) (any, []error) {
	f, err := toFloat(value)
	if err != nil {
		return value, fail(path, err, value)
	}
	return f, nil
}

func toFloat(value any) (float64, error) {
	var f float64
	switch v := value.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int, int8, int16, int32, int64, uint, uint32, uint64:
		i, err := toInt(v)
		if err != nil {
			return 0, err
		}
		return float64(i), nil
	default:
		return 0, fmt.Errorf("expected float, got %T", value)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("expected finite float, got %v", f)
	}
	return f, nil
}

// BoolType validates boolean values.
type BoolType struct{}

func (t *BoolType) Name() string { return "bool" }

func (t *BoolType) Validate(value any) error {
	_, ok := value.(bool)
	if !ok {
		return fmt.Errorf("expected bool, got %T", value)
	}
	return nil
}

// SliceType validates slices of a specific element type.
// A negative length accepts any number of elements.
type SliceType struct {
	elemType Type
	length   int
}

func (t *SliceType) Name() string {
	if t.length >= 0 {
		return fmt.Sprintf("[%s] of length %d", t.elemType.Name(), t.length)
	}
	return fmt.Sprintf("[%s]", t.elemType.Name())
}

// Elem returns the element type.
func (t *SliceType) Elem() Type { return t.elemType }

func (t *SliceType) Validate(value any) error {
	_, errs := t.Normalize("", value)
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// Normalize validates each element and returns a fresh []any.
func (t *SliceType) Normalize(path string, value any) (any, []error) {
	rv := reflect.ValueOf(value)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return value, fail(path, fmt.Errorf("expected %s, got %T", t.Name(), value), value)
	}
	if t.length >= 0 && rv.Len() != t.length {
		return value, fail(path, fmt.Errorf("expected %s, got %d elements", t.Name(), rv.Len()), value)
	}

	out := make([]any, rv.Len())
	var errs []error
	for i := 0; i < rv.Len(); i++ {
		elemPath := fmt.Sprintf("%s[%d]", path, i)
		v, elemErrs := normalizeValue(elemPath, t.elemType, rv.Index(i).Interface())
		out[i] = v
		errs = append(errs, elemErrs...)
	}
	return out, errs
}

// CustomType applies a user-defined validation function.
type CustomType struct {
	name     string
	validate func(any) error
}

func (t *CustomType) Name() string { return t.name }

func (t *CustomType) Validate(value any) error {
	return t.validate(value)
}

// Bound is one end of a numeric interval.
type Bound struct {
	Value     float64
	Exclusive bool
	Unset     bool
}

// Inclusive returns a closed bound.
func Inclusive(v float64) Bound { return Bound{Value: v} }

// Exclusive returns an open bound.
func Exclusive(v float64) Bound { return Bound{Value: v, Exclusive: true} }

// Unbounded returns an open infinite bound.
func Unbounded() Bound { return Bound{Unset: true} }

type interval struct {
	lo, hi Bound
}

func (iv interval) String() string {
	var b strings.Builder
	switch {
	case iv.lo.Unset:
		b.WriteString("(-inf")
	case iv.lo.Exclusive:
		fmt.Fprintf(&b, "(%g", iv.lo.Value)
	default:
		fmt.Fprintf(&b, "[%g", iv.lo.Value)
	}
	b.WriteString(", ")
	switch {
	case iv.hi.Unset:
		b.WriteString("+inf)")
	case iv.hi.Exclusive:
		fmt.Fprintf(&b, "%g)", iv.hi.Value)
	default:
		fmt.Fprintf(&b, "%g]", iv.hi.Value)
	}
	return b.String()
}

func (iv interval) contains(v float64) bool {
	if !iv.lo.Unset {
		if v < iv.lo.Value || (iv.lo.Exclusive && v == iv.lo.Value) {
			return false
		}
	}
	if !iv.hi.Unset {
		if v > iv.hi.Value || (iv.hi.Exclusive && v == iv.hi.Value) {
			return false
		}
	}
	return true
}

// IntRangeType validates integers inside an interval.
type IntRangeType struct {
	iv interval
}

func (t *IntRangeType) Name() string { return "int in " + t.iv.String() }

func (t *IntRangeType) Validate(value any) error {
	_, errs := t.Normalize("", value)
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

func (t *IntRangeType) Normalize(path string, value any) (any, []error) {
	i, err := toInt(value)
	if err != nil {
		return value, fail(path, err, value)
	}
	if !t.iv.contains(float64(i)) {
		return value, fail(path, fmt.Errorf("expected %s, got %d", t.Name(), i), value)
	}
	return i, nil
}

// FloatRangeType validates floats inside an interval.
type FloatRangeType struct {
	iv interval
}

func (t *FloatRangeType) Name() string { return "float in " + t.iv.String() }

func (t *FloatRangeType) Validate(value any) error {
	_, errs := t.Normalize("", value)
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

func (t *FloatRangeType) Normalize(path string, value any) (any, []error) {
	f, err := toFloat(value)
	if err != nil {
		return value, fail(path, err, value)
	}
	if !t.iv.contains(f) {
		return value, fail(path, fmt.Errorf("expected %s, got %g", t.Name(), f), value)
	}
	return f, nil
}

// EnumType validates a string against a closed set of values.
type EnumType struct {
	values []string
}

func (t *EnumType) Name() string {
	return "one of [" + strings.Join(t.values, " ") + "]"
}

func (t *EnumType) Validate(value any) error {
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected string, got %T", value)
	}
	for _, v := range t.values {
		if v == s {
			return nil
		}
	}
	return fmt.Errorf("expected %s, got %q", t.Name(), s)
}

// PatternType validates a string against a regular expression.
type PatternType struct {
	name string
	re   *regexp.Regexp
}

func (t *PatternType) Name() string { return t.name }

func (t *PatternType) Validate(value any) error {
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected string, got %T", value)
	}
	if !t.re.MatchString(s) {
		return fmt.Errorf("expected %s matching %s, got %q", t.name, t.re.String(), s)
	}
	return nil
}

// --- Factory Functions ---

// String creates a string type validator.
func String() Type { return &StringType{} }

// Int creates an integer type validator.
func Int() Type { return &IntType{} }

// Float creates a float type validator.
func Float() Type { return &FloatType{} }

// Bool creates a boolean type validator.
func Bool() Type { return &BoolType{} }

// Slice creates a slice type validator for elements of the given type.
func Slice(elemType Type) Type {
	return &SliceType{elemType: elemType, length: -1}
}

// SliceLen creates a slice validator that also requires exactly n elements.
func SliceLen(elemType Type, n int) Type {
	return &SliceType{elemType: elemType, length: n}
}

// Custom creates a custom type validator with a user-defined function.
func Custom(name string, validate func(any) error) Type {
	return &CustomType{name: name, validate: validate}
}

// IntRange creates an integer validator bounded by lo and hi.
func IntRange(lo, hi Bound) Type {
	return &IntRangeType{iv: interval{lo: lo, hi: hi}}
}

// FloatRange creates a float validator bounded by lo and hi.
func FloatRange(lo, hi Bound) Type {
	return &FloatRangeType{iv: interval{lo: lo, hi: hi}}
}

// OneOf creates a string enumeration validator.
func OneOf(values ...string) Type {
	return &EnumType{values: values}
}

// Pattern creates a string validator backed by a regular expression.
func Pattern(name, expr string) Type {
	return &PatternType{name: name, re: regexp.MustCompile(expr)}
}

func fail(path string, err error, value any) []error {
	return []error{&ValidationError{Key: path, Reason: err.Error(), Value: value}}
}
