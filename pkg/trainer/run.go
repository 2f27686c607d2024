package trainer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/jayhusemi/mosaicml-mcontrib/internal/logging"
	"github.com/jayhusemi/mosaicml-mcontrib/pkg/artifact"
	"github.com/jayhusemi/mosaicml-mcontrib/pkg/hparams"
	"github.com/jayhusemi/mosaicml-mcontrib/pkg/metrics"
	"github.com/jayhusemi/mosaicml-mcontrib/pkg/registry"
	"github.com/jayhusemi/mosaicml-mcontrib/pkg/schema"
	"github.com/jayhusemi/mosaicml-mcontrib/pkg/tracking"
	"github.com/mitchellh/mapstructure"
)

// Run is a fully materialized training run.
type Run struct {
	Trainer *Trainer
	// Artifacts fans uploads out to every logger that is an artifact.Sink.
	Artifacts *artifact.Multi
	// SideChannel is the first logger that is a tracking.SideChannel, or nil.
	SideChannel tracking.SideChannel

	closers []io.Closer
}

// Close releases loggers holding connections.
func (r *Run) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		errs = append(errs, r.closers[i].Close())
	}
	r.closers = nil
	return errors.Join(errs...)
}

// Materializer turns a resolved configuration into a Run.
type Materializer struct {
	registry *registry.Registry
	schema   schema.Schema
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// MaterializerOption configures a Materializer.
type MaterializerOption func(*Materializer)

// WithMaterializerLogger sets the logger passed down to the trainer.
func WithMaterializerLogger(logger *slog.Logger) MaterializerOption {
	return func(m *Materializer) {
		m.logger = logger
	}
}

// WithMetrics records construction and upload outcomes.
func WithMetrics(mt *metrics.Metrics) MaterializerOption {
	return func(m *Materializer) {
		m.metrics = mt
	}
}

// NewMaterializer creates a Materializer over reg using the top-level run
// schema.
func NewMaterializer(reg *registry.Registry, opts ...MaterializerOption) *Materializer {
	m := &Materializer{
		registry: reg,
		schema:   Schema(reg),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Materialize builds every component of cfg, leaves first, and assembles
// the trainer. Any failure is returned as a *registry.ConstructionError and
// nothing built so far is kept.
func (m *Materializer) Materialize(ctx context.Context, cfg *hparams.Config) (*Run, error) {
	tree := cfg.Tree()
	builder := registry.NewMaterializer(m.registry,
		registry.WithLogger(m.logger),
		registry.WithMetrics(m.metrics),
	)
	built, err := builder.Build(ctx, m.schema, tree)
	if err != nil {
		return nil, err
	}

	run := &Run{
		Artifacts: artifact.NewMulti(artifact.WithLogger(m.logger), artifact.WithMetrics(m.metrics)),
	}
	loggers, _ := built["loggers"].([]any)
	for _, l := range loggers {
		if c, ok := l.(io.Closer); ok {
			run.closers = append(run.closers, c)
		}
	}
	fail := func(err error) (*Run, error) {
		if cerr := run.Close(); cerr != nil {
			m.logger.Warn("Failed to release loggers", "error", cerr)
		}
		return nil, &registry.ConstructionError{Kind: "trainer", Name: cfg.RunName(), Err: err}
	}

	var spec Spec
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused: true,
		Result:      &spec,
	})
	if err != nil {
		return fail(err)
	}
	if err := dec.Decode(built); err != nil {
		return fail(fmt.Errorf("assembling trainer: %w", err))
	}

	names := loggerNames(tree)
	for i, l := range spec.Loggers {
		label := fmt.Sprintf("loggers[%d]", i)
		if i < len(names) && names[i] != "" {
			label = names[i]
		}
		if sink, ok := l.(artifact.Sink); ok {
			run.Artifacts.Add(label, sink)
		}
		if sc, ok := l.(tracking.SideChannel); ok {
			if run.SideChannel == nil {
				run.SideChannel = tracking.Redact(sc, tracking.SecretPatterns...)
			} else {
				m.logger.Warn("Ignoring additional tracking side channel", "logger", label)
			}
		}
	}

	t, err := New(spec, WithLogger(m.logger))
	if err != nil {
		return fail(err)
	}
	run.Trainer = t
	return run, nil
}

func loggerNames(tree map[string]any) []string {
	items, _ := tree["loggers"].([]any)
	names := make([]string, len(items))
	for i, item := range items {
		ref, _ := item.(map[string]any)
		name, _ := ref[schema.RefNameKey].(string)
		names[i] = name
	}
	return names
}
