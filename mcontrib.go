package mcontrib

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/jayhusemi/mosaicml-mcontrib/internal/logging"
	"github.com/jayhusemi/mosaicml-mcontrib/internal/presentation/tui"
	"github.com/jayhusemi/mosaicml-mcontrib/pkg/algorithms"
	"github.com/jayhusemi/mosaicml-mcontrib/pkg/components"
	"github.com/jayhusemi/mosaicml-mcontrib/pkg/dist"
	"github.com/jayhusemi/mosaicml-mcontrib/pkg/hparams"
	"github.com/jayhusemi/mosaicml-mcontrib/pkg/loggers"
	"github.com/jayhusemi/mosaicml-mcontrib/pkg/metrics"
	"github.com/jayhusemi/mosaicml-mcontrib/pkg/publish"
	"github.com/jayhusemi/mosaicml-mcontrib/pkg/registry"
	"github.com/jayhusemi/mosaicml-mcontrib/pkg/schema"
	"github.com/jayhusemi/mosaicml-mcontrib/pkg/trainer"
)

// NewRegistry returns a registry holding every built-in component.
func NewRegistry() *registry.Registry {
	reg := registry.NewRegistry()
	components.Register(reg)
	algorithms.RegisterAll(reg)
	loggers.RegisterAll(reg)
	return reg
}

// Launcher is the high-level entry point: it resolves, materializes,
// publishes and fits a run.
type Launcher struct {
	registry  *registry.Registry
	schema    schema.Schema
	logger    *slog.Logger
	metrics   *metrics.Metrics
	banner    io.Writer
	publisher []publish.Option
}

// Option defines a functional option for configuring the Launcher.
type Option func(*Launcher)

// WithLogger sets the logger shared by every step.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Launcher) {
		l.logger = logger
	}
}

// WithMetrics records resolution, construction, upload and publish outcomes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Launcher) {
		l.metrics = m
	}
}

// WithBanner prints the resolved configuration to w on local rank 0.
func WithBanner(w io.Writer) Option {
	return func(l *Launcher) {
		l.banner = w
	}
}

// WithPublishOptions forwards options to the publisher.
func WithPublishOptions(opts ...publish.Option) Option {
	return func(l *Launcher) {
		l.publisher = append(l.publisher, opts...)
	}
}

// New creates a Launcher over reg.
func New(reg *registry.Registry, opts ...Option) *Launcher {
	l := &Launcher{
		registry: reg,
		schema:   trainer.Schema(reg),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Schema returns the top-level run schema.
func (l *Launcher) Schema() schema.Schema { return l.schema }

// Resolve merges and validates the invocation's sources.
func (l *Launcher) Resolve(inv hparams.Invocation) (*hparams.Config, error) {
	r := hparams.NewResolver(l.schema, hparams.WithLogger(l.logger), hparams.WithMetrics(l.metrics))
	return r.Resolve(inv.SourcePath, inv.Overrides)
}

// Prepare resolves and materializes a run and publishes its configuration.
// The caller owns the returned run and must Close it.
func (l *Launcher) Prepare(ctx context.Context, inv hparams.Invocation, id dist.Identity) (*hparams.Config, *trainer.Run, error) {
	logger := logging.WithRank(l.logger, id)

	cfg, err := l.Resolve(inv)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("Configuration resolved", "run", cfg.RunName())

	if l.banner != nil && id.IsLocalLeader() {
		doc, err := cfg.ToYAML()
		if err != nil {
			return nil, nil, err
		}
		if err := tui.PrintConfig(l.banner, doc); err != nil {
			logger.Warn("Failed to print configuration", "error", err)
		}
	}

	m := trainer.NewMaterializer(l.registry,
		trainer.WithMaterializerLogger(logger),
		trainer.WithMetrics(l.metrics),
	)
	run, err := m.Materialize(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	p := publish.New(append([]publish.Option{
		publish.WithLogger(logger),
		publish.WithMetrics(l.metrics),
	}, l.publisher...)...)
	if err := p.Publish(ctx, cfg, run, id); err != nil {
		return nil, nil, errors.Join(err, run.Close())
	}
	return cfg, run, nil
}

// Launch prepares the run and fits it.
func (l *Launcher) Launch(ctx context.Context, inv hparams.Invocation, id dist.Identity) (err error) {
	_, run, err := l.Prepare(ctx, inv, id)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := run.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close run: %w", cerr)
		}
	}()
	return run.Trainer.Fit(ctx)
}
