// Package algorithms registers the training-time algorithms a run can
// enable. Each algorithm reacts to trainer events and records its effect in
// the shared training state.
package algorithms

import (
	"context"
	"math"

	"github.com/jayhusemi/mosaicml-mcontrib/pkg/registry"
	"github.com/jayhusemi/mosaicml-mcontrib/pkg/schema"
	"github.com/jayhusemi/mosaicml-mcontrib/pkg/trainer"
)

// Keys under which algorithms publish values in trainer.State.Extras.
const (
	ExtraLabelSmoothing = "label_smoothing"
	ExtraClipThreshold  = "clipping_threshold"
	ExtraEMAUpdates     = "ema_updates"
	ExtraEMASmoothing   = "ema_smoothing"
	ExtraResizeScale    = "resize_scale"
)

// LabelSmoothing mixes targets with a uniform distribution.
type LabelSmoothing struct {
	Smoothing float64 `mapstructure:"smoothing"`
}

func (a *LabelSmoothing) Match(e trainer.Event, s *trainer.State) bool {
	return e == trainer.EventFitStart
}

func (a *LabelSmoothing) Apply(ctx context.Context, e trainer.Event, s *trainer.State) error {
	s.Extras[ExtraLabelSmoothing] = a.Smoothing
	return nil
}

// GradientClipping bounds gradients after every backward pass.
type GradientClipping struct {
	ClippingType      string  `mapstructure:"clipping_type"`
	ClippingThreshold float64 `mapstructure:"clipping_threshold"`
}

func (a *GradientClipping) Match(e trainer.Event, s *trainer.State) bool {
	return e == trainer.EventBatchStart
}

func (a *GradientClipping) Apply(ctx context.Context, e trainer.Event, s *trainer.State) error {
	s.Extras[ExtraClipThreshold] = a.ClippingThreshold
	return nil
}

// EMA keeps an exponential moving average of the weights.
type EMA struct {
	HalfLife       string `mapstructure:"half_life"`
	UpdateInterval string `mapstructure:"update_interval"`

	halfLife trainer.Duration
	interval trainer.Duration
}

func (a *EMA) Match(e trainer.Event, s *trainer.State) bool {
	if e != trainer.EventBatchEnd {
		return false
	}
	every := a.interval.Batches(s.BatchesPerEpoch)
	return every > 0 && s.Batch%every == 0
}

func (a *EMA) Apply(ctx context.Context, e trainer.Event, s *trainer.State) error {
	n, _ := s.Extras[ExtraEMAUpdates].(int)
	s.Extras[ExtraEMAUpdates] = n + 1
	s.Extras[ExtraEMASmoothing] = a.Smoothing(s.BatchesPerEpoch)
	return nil
}

// Smoothing returns the decay applied at each update.
func (a *EMA) Smoothing(batchesPerEpoch int) float64 {
	half := float64(a.halfLife.Batches(batchesPerEpoch))
	every := float64(a.interval.Batches(batchesPerEpoch))
	return math.Pow(0.5, every/half)
}

// ProgressiveResizing trains on downscaled inputs early in training and
// grows them back to full size.
type ProgressiveResizing struct {
	InitialScale float64 `mapstructure:"initial_scale"`
	Finish       float64 `mapstructure:"finish"`
}

func (a *ProgressiveResizing) Match(e trainer.Event, s *trainer.State) bool {
	return e == trainer.EventBatchStart
}

func (a *ProgressiveResizing) Apply(ctx context.Context, e trainer.Event, s *trainer.State) error {
	s.Extras[ExtraResizeScale] = a.Scale(s.Progress())
	return nil
}

// Scale returns the input scale at the given fraction of training.
func (a *ProgressiveResizing) Scale(progress float64) float64 {
	if a.Finish <= 0 || progress >= a.Finish {
		return 1
	}
	return a.InitialScale + (1-a.InitialScale)*progress/a.Finish
}

func components() []registry.Component {
	duration := trainer.DurationType()
	return []registry.Component{
		{
			Name:        "label_smoothing",
			Description: "Smooth classification targets",
			Params: schema.Schema{
				"smoothing": schema.Optional(schema.FloatRange(schema.Inclusive(0), schema.Exclusive(1)), 0.1),
			},
			New: decodeInto(func() any { return &LabelSmoothing{} }),
		},
		{
			Name:        "gradient_clipping",
			Description: "Clip gradients by norm, value or adaptively",
			Params: schema.Schema{
				"clipping_type":      schema.Optional(schema.OneOf("norm", "value", "adaptive"), "norm"),
				"clipping_threshold": schema.FloatRange(schema.Exclusive(0), schema.Unbounded()),
			},
			New: decodeInto(func() any { return &GradientClipping{} }),
		},
		{
			Name:        "ema",
			Description: "Exponential moving average of model weights",
			Params: schema.Schema{
				"half_life":       schema.Optional(duration, "1000ba"),
				"update_interval": schema.Optional(duration, "1ba"),
			},
			New: func(ctx context.Context, params map[string]any) (any, error) {
				a := &EMA{}
				if err := registry.Decode(params, a); err != nil {
					return nil, err
				}
				var err error
				if a.halfLife, err = trainer.ParseDuration(a.HalfLife); err != nil {
					return nil, err
				}
				if a.interval, err = trainer.ParseDuration(a.UpdateInterval); err != nil {
					return nil, err
				}
				return a, nil
			},
		},
		{
			Name:        "progressive_resizing",
			Description: "Grow input resolution during training",
			Params: schema.Schema{
				"initial_scale": schema.Optional(schema.FloatRange(schema.Exclusive(0), schema.Inclusive(1)), 0.5),
				"finish":        schema.Optional(schema.FloatRange(schema.Inclusive(0), schema.Inclusive(1)), 0.6),
			},
			New: decodeInto(func() any { return &ProgressiveResizing{} }),
		},
	}
}

// RegisterAll adds every algorithm to reg and returns their names in
// registration order.
func RegisterAll(reg *registry.Registry) []string {
	var names []string
	for _, c := range components() {
		c.Kind = trainer.KindAlgorithms
		reg.Register(c)
		names = append(names, c.Name)
	}
	return names
}

func decodeInto(newFn func() any) registry.Factory {
	return func(ctx context.Context, params map[string]any) (any, error) {
		obj := newFn()
		if err := registry.Decode(params, obj); err != nil {
			return nil, err
		}
		return obj, nil
	}
}
