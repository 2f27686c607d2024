package trainer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jayhusemi/mosaicml-mcontrib/internal/logging"
)

// DataLoader holds the data loading parameters of a run.
type DataLoader struct {
	NumWorkers int  `mapstructure:"num_workers"`
	PinMemory  bool `mapstructure:"pin_memory"`
	DropLast   bool `mapstructure:"drop_last"`
}

// Spec is the materialized top-level configuration of a run: every object
// reference has already been replaced by the constructed component.
type Spec struct {
	RunName               string      `mapstructure:"run_name"`
	Seed                  int         `mapstructure:"seed"`
	MaxDuration           string      `mapstructure:"max_duration"`
	BatchSize             int         `mapstructure:"batch_size"`
	TrainSubsetNumBatches int         `mapstructure:"train_subset_num_batches"`
	Precision             string      `mapstructure:"precision"`
	Model                 Model       `mapstructure:"model"`
	Optimizer             Optimizer   `mapstructure:"optimizer"`
	Schedulers            []Scheduler `mapstructure:"schedulers"`
	Algorithms            []Algorithm `mapstructure:"algorithms"`
	Loggers               []any       `mapstructure:"loggers"`
	DataLoader            DataLoader  `mapstructure:"dataloader"`
	Tags                  any         `mapstructure:"tags"`
}

// Trainer runs the event loop of a single training run.
type Trainer struct {
	runName    string
	duration   Duration
	schedulers []Scheduler
	algorithms []Algorithm
	state      *State
	logger     *slog.Logger
}

// Option configures a Trainer.
type Option func(*Trainer)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Trainer) {
		t.logger = logger
	}
}

// New creates a Trainer from a materialized spec.
func New(spec Spec, opts ...Option) (*Trainer, error) {
	if spec.Model == nil {
		return nil, fmt.Errorf("trainer requires a model")
	}
	if spec.Optimizer == nil {
		return nil, fmt.Errorf("trainer requires an optimizer")
	}
	duration, err := ParseDuration(spec.MaxDuration)
	if err != nil {
		return nil, err
	}
	perEpoch := spec.TrainSubsetNumBatches
	if perEpoch <= 0 {
		perEpoch = 1
	}

	t := &Trainer{
		runName:    spec.RunName,
		duration:   duration,
		schedulers: spec.Schedulers,
		algorithms: spec.Algorithms,
		logger:     logging.NewNop(),
		state: &State{
			Seed:            spec.Seed,
			BatchSize:       spec.BatchSize,
			Precision:       spec.Precision,
			Model:           spec.Model,
			Optimizer:       spec.Optimizer,
			BaseLR:          spec.Optimizer.LR(),
			BatchesPerEpoch: perEpoch,
			MaxBatches:      duration.Batches(perEpoch),
			Extras:          make(map[string]any),
		},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// RunName returns the name of the run being trained.
func (t *Trainer) RunName() string { return t.runName }

// State returns the live training state.
func (t *Trainer) State() *State { return t.state }

// Fit trains for the configured duration. It stops at the first algorithm
// or optimizer error and when ctx is cancelled between batches.
func (t *Trainer) Fit(ctx context.Context) error {
	s := t.state
	t.logger.Info("Fit started",
		"run", t.runName,
		"max_duration", t.duration.String(),
		"batches", s.MaxBatches,
		"params", s.Model.NumParams(),
	)

	if err := t.fire(ctx, EventFitStart); err != nil {
		return err
	}
	for s.Batch < s.MaxBatches {
		s.BatchInEpoch = 0
		if err := t.fire(ctx, EventEpochStart); err != nil {
			return err
		}
		for s.BatchInEpoch < s.BatchesPerEpoch && s.Batch < s.MaxBatches {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := t.step(ctx); err != nil {
				return err
			}
		}
		s.Epoch++
		if err := t.fire(ctx, EventEpochEnd); err != nil {
			return err
		}
		t.logger.Debug("Epoch finished", "epoch", s.Epoch, "lr", s.Optimizer.LR())
	}
	if err := t.fire(ctx, EventFitEnd); err != nil {
		return err
	}

	t.logger.Info("Fit finished", "run", t.runName, "epochs", s.Epoch, "batches", s.Batch)
	return nil
}

func (t *Trainer) step(ctx context.Context) error {
	s := t.state
	if err := t.fire(ctx, EventBatchStart); err != nil {
		return err
	}

	lr := s.BaseLR
	for _, sched := range t.schedulers {
		lr *= sched.Factor(s)
	}
	s.Optimizer.SetLR(lr)
	if err := s.Optimizer.Step(ctx, s); err != nil {
		return fmt.Errorf("optimizer step at batch %d: %w", s.Batch, err)
	}

	s.Batch++
	s.BatchInEpoch++
	return t.fire(ctx, EventBatchEnd)
}

func (t *Trainer) fire(ctx context.Context, e Event) error {
	for i, alg := range t.algorithms {
		if !alg.Match(e, t.state) {
			continue
		}
		if err := alg.Apply(ctx, e, t.state); err != nil {
			return fmt.Errorf("algorithm %d on %s: %w", i, e, err)
		}
	}
	return nil
}
