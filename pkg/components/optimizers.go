package components

import (
	"context"

	"github.com/jayhusemi/mosaicml-mcontrib/pkg/registry"
	"github.com/jayhusemi/mosaicml-mcontrib/pkg/schema"
	"github.com/jayhusemi/mosaicml-mcontrib/pkg/trainer"
)

// SGD is stochastic gradient descent with optional momentum.
type SGD struct {
	LearningRate float64 `mapstructure:"lr"`
	Momentum     float64 `mapstructure:"momentum"`
	WeightDecay  float64 `mapstructure:"weight_decay"`
	Nesterov     bool    `mapstructure:"nesterov"`

	steps int
}

func (o *SGD) LR() float64      { return o.LearningRate }
func (o *SGD) SetLR(lr float64) { o.LearningRate = lr }

// Steps returns how many updates were applied.
func (o *SGD) Steps() int { return o.steps }

func (o *SGD) Step(ctx context.Context, s *trainer.State) error {
	o.steps++
	return nil
}

// AdamW is Adam with decoupled weight decay.
type AdamW struct {
	LearningRate float64    `mapstructure:"lr"`
	Betas        [2]float64 `mapstructure:"betas"`
	Eps          float64    `mapstructure:"eps"`
	WeightDecay  float64    `mapstructure:"weight_decay"`

	steps int
}

func (o *AdamW) LR() float64      { return o.LearningRate }
func (o *AdamW) SetLR(lr float64) { o.LearningRate = lr }

// Steps returns how many updates were applied.
func (o *AdamW) Steps() int { return o.steps }

func (o *AdamW) Step(ctx context.Context, s *trainer.State) error {
	o.steps++
	return nil
}

func sgdComponent() registry.Component {
	return registry.Component{
		Kind:        "optimizers",
		Name:        "sgd",
		Description: "Stochastic gradient descent",
		Params: schema.Schema{
			"lr":           schema.FloatRange(schema.Exclusive(0), schema.Unbounded()),
			"momentum":     schema.Optional(schema.FloatRange(schema.Inclusive(0), schema.Exclusive(1)), 0.0),
			"weight_decay": schema.Optional(schema.FloatRange(schema.Inclusive(0), schema.Unbounded()), 0.0),
			"nesterov":     schema.Optional(schema.Bool(), false),
		},
		Check: checkNesterov,
		New: func(ctx context.Context, params map[string]any) (any, error) {
			o := &SGD{}
			if err := registry.Decode(params, o); err != nil {
				return nil, err
			}
			return o, nil
		},
	}
}

func adamwComponent() registry.Component {
	return registry.Component{
		Kind:        "optimizers",
		Name:        "adamw",
		Description: "Adam with decoupled weight decay",
		Params: schema.Schema{
			"lr":           schema.FloatRange(schema.Exclusive(0), schema.Unbounded()),
			"betas":        schema.Optional(schema.SliceLen(schema.FloatRange(schema.Inclusive(0), schema.Exclusive(1)), 2), []any{0.9, 0.999}),
			"eps":          schema.Optional(schema.FloatRange(schema.Exclusive(0), schema.Unbounded()), 1e-8),
			"weight_decay": schema.Optional(schema.FloatRange(schema.Inclusive(0), schema.Unbounded()), 0.01),
		},
		New: func(ctx context.Context, params map[string]any) (any, error) {
			o := &AdamW{}
			if err := registry.Decode(params, o); err != nil {
				return nil, err
			}
			return o, nil
		},
	}
}

func checkNesterov(params map[string]any) error {
	nesterov, _ := params["nesterov"].(bool)
	momentum, _ := params["momentum"].(float64)
	if nesterov && momentum == 0 {
		return &schema.ValidationError{
			Key:    "nesterov",
			Reason: "requires a non-zero momentum",
			Value:  nesterov,
		}
	}
	return nil
}
