package components

import (
	"context"
	"math"

	"github.com/jayhusemi/mosaicml-mcontrib/pkg/registry"
	"github.com/jayhusemi/mosaicml-mcontrib/pkg/schema"
	"github.com/jayhusemi/mosaicml-mcontrib/pkg/trainer"
)

// Constant keeps the base learning rate.
type Constant struct{}

func (Constant) Factor(s *trainer.State) float64 { return 1 }

// CosineDecay anneals the learning rate to AlphaF times its base value over
// TMax, or over the whole run when TMax is empty.
type CosineDecay struct {
	TMax   string  `mapstructure:"t_max"`
	AlphaF float64 `mapstructure:"alpha_f"`

	horizon *trainer.Duration
}

func (c *CosineDecay) Factor(s *trainer.State) float64 {
	total := s.MaxBatches
	if c.horizon != nil {
		total = c.horizon.Batches(s.BatchesPerEpoch)
	}
	frac := 1.0
	if total > 0 {
		frac = math.Min(1, float64(s.Batch)/float64(total))
	}
	return c.AlphaF + (1-c.AlphaF)*0.5*(1+math.Cos(math.Pi*frac))
}

// Step multiplies the learning rate by Gamma every StepSize epochs.
type Step struct {
	StepSize int     `mapstructure:"step_size"`
	Gamma    float64 `mapstructure:"gamma"`
}

func (st *Step) Factor(s *trainer.State) float64 {
	return math.Pow(st.Gamma, float64(s.Epoch/st.StepSize))
}

func constantComponent() registry.Component {
	return registry.Component{
		Kind:        "schedulers",
		Name:        "constant",
		Description: "Constant learning rate",
		New: func(ctx context.Context, params map[string]any) (any, error) {
			return Constant{}, nil
		},
	}
}

func cosineDecayComponent() registry.Component {
	return registry.Component{
		Kind:        "schedulers",
		Name:        "cosine_decay",
		Description: "Cosine annealing",
		Params: schema.Schema{
			"t_max":   schema.Optional(trainer.DurationType(), nil),
			"alpha_f": schema.Optional(schema.FloatRange(schema.Inclusive(0), schema.Inclusive(1)), 0.0),
		},
		New: func(ctx context.Context, params map[string]any) (any, error) {
			c := &CosineDecay{}
			if err := registry.Decode(params, c); err != nil {
				return nil, err
			}
			if c.TMax != "" {
				d, err := trainer.ParseDuration(c.TMax)
				if err != nil {
					return nil, err
				}
				c.horizon = &d
			}
			return c, nil
		},
	}
}

func stepComponent() registry.Component {
	return registry.Component{
		Kind:        "schedulers",
		Name:        "step",
		Description: "Step decay every step_size epochs",
		Params: schema.Schema{
			"step_size": schema.IntRange(schema.Exclusive(0), schema.Unbounded()),
			"gamma":     schema.Optional(schema.FloatRange(schema.Exclusive(0), schema.Inclusive(1)), 0.1),
		},
		New: func(ctx context.Context, params map[string]any) (any, error) {
			st := &Step{}
			if err := registry.Decode(params, st); err != nil {
				return nil, err
			}
			return st, nil
		},
	}
}
