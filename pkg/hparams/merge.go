package hparams

import "github.com/jayhusemi/mosaicml-mcontrib/pkg/schema"

// Merge returns a new tree with overlay applied on top of base. Mappings
// merge key by key; any other value in overlay replaces the base value.
// Neither input is modified.
func Merge(base, overlay map[string]any) map[string]any {
	out, _ := schema.Clone(base).(map[string]any)
	if out == nil {
		out = map[string]any{}
	}
	for key, value := range overlay {
		baseChild, baseIsMap := out[key].(map[string]any)
		overChild, overIsMap := value.(map[string]any)
		if baseIsMap && overIsMap {
			out[key] = Merge(baseChild, overChild)
			continue
		}
		out[key] = schema.Clone(value)
	}
	return out
}
