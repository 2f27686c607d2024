package components

import (
	"context"

	"github.com/jayhusemi/mosaicml-mcontrib/pkg/registry"
	"github.com/jayhusemi/mosaicml-mcontrib/pkg/schema"
)

// MLP is a fully connected classifier.
type MLP struct {
	InFeatures int   `mapstructure:"in_features"`
	Hidden     []int `mapstructure:"hidden"`
	NumClasses int   `mapstructure:"num_classes"`
}

// NumParams counts weights and biases of every layer.
func (m *MLP) NumParams() int {
	total := 0
	in := m.InFeatures
	for _, out := range append(append([]int(nil), m.Hidden...), m.NumClasses) {
		total += (in + 1) * out
		in = out
	}
	return total
}

func mlpComponent() registry.Component {
	positive := schema.IntRange(schema.Exclusive(0), schema.Unbounded())
	return registry.Component{
		Kind:        "models",
		Name:        "mlp",
		Description: "Fully connected classifier",
		Params: schema.Schema{
			"in_features": positive,
			"hidden":      schema.Optional(schema.Slice(positive), []any{}),
			"num_classes": schema.IntRange(schema.Inclusive(2), schema.Unbounded()),
		},
		New: func(ctx context.Context, params map[string]any) (any, error) {
			m := &MLP{}
			if err := registry.Decode(params, m); err != nil {
				return nil, err
			}
			return m, nil
		},
	}
}
