package schema

import (
	"encoding/json"
	"fmt"
)

// Describe renders each field as its type name, marking optional fields and
// their defaults. It is what `mcontrib components` prints.
func (s Schema) Describe() map[string]string {
	out := make(map[string]string, len(s))
	for key, typ := range s {
		if typ == nil {
			continue
		}
		opt, ok := typ.(*OptionalType)
		switch {
		case !ok:
			out[key] = typ.Name()
		case opt.def == nil:
			out[key] = typ.Name() + ", optional"
		default:
			out[key] = fmt.Sprintf("%s, default %v", typ.Name(), opt.def)
		}
	}
	return out
}

// MarshalJSON serializes the schema as a map of field names to type strings.
func (s Schema) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("null"), nil
	}
	for key, typ := range s {
		if typ == nil {
			return nil, fmt.Errorf("field %s: type is nil", key)
		}
	}
	return json.Marshal(s.Describe())
}
