// Package publish records a run's resolved configuration as a durable
// artifact and mirrors it into the tracking side channel.
package publish

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"

	"github.com/jayhusemi/mosaicml-mcontrib/internal/logging"
	"github.com/jayhusemi/mosaicml-mcontrib/pkg/artifact"
	"github.com/jayhusemi/mosaicml-mcontrib/pkg/dist"
	"github.com/jayhusemi/mosaicml-mcontrib/pkg/hparams"
	"github.com/jayhusemi/mosaicml-mcontrib/pkg/metrics"
	"github.com/jayhusemi/mosaicml-mcontrib/pkg/trainer"
)

// FileName is the name of the published configuration inside the run's
// artifact directory.
const FileName = "hparams.yaml"

// PublishError reports a failed publication.
type PublishError struct {
	Artifact string
	Err      error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("failed to publish %s: %v", e.Artifact, e.Err)
}

func (e *PublishError) Unwrap() error {
	return e.Err
}

// ArtifactName returns the artifact name the configuration of run is
// published under.
func ArtifactName(run string) string {
	return path.Join(run, FileName)
}

// Publisher writes the configuration once per run, from the leader rank.
type Publisher struct {
	logger  *slog.Logger
	metrics *metrics.Metrics
	tempDir string
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// WithMetrics records publish outcomes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Publisher) {
		p.metrics = m
	}
}

// WithTempDir sets the parent directory of the scratch directory. The
// default is the system temporary directory.
func WithTempDir(dir string) Option {
	return func(p *Publisher) {
		p.tempDir = dir
	}
}

// New creates a Publisher.
func New(opts ...Option) *Publisher {
	p := &Publisher{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Publish uploads the canonical YAML of cfg to run.Artifacts as
// "<run_name>/hparams.yaml" and, when run has an active side channel,
// merges the flattened configuration into the run's tracking metadata.
// Only the rank with GlobalRank 0 does anything; every other rank returns nil.
func (p *Publisher) Publish(ctx context.Context, cfg *hparams.Config, run *trainer.Run, id dist.Identity) error {
	if !id.IsLeader() {
		p.logger.Debug("Skipping config publication on non-leader rank", "rank", id.GlobalRank)
		p.metrics.ObservePublish(true, nil)
		return nil
	}

	err := p.publish(ctx, cfg, run)
	p.metrics.ObservePublish(false, err)
	return err
}

func (p *Publisher) publish(ctx context.Context, cfg *hparams.Config, run *trainer.Run) error {
	name := ArtifactName(cfg.RunName())

	data, err := cfg.ToYAML()
	if err != nil {
		return &PublishError{Artifact: name, Err: err}
	}

	dir, err := os.MkdirTemp(p.tempDir, "mcontrib-hparams-*")
	if err != nil {
		return &PublishError{Artifact: name, Err: fmt.Errorf("failed to create scratch directory: %w", err)}
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			p.logger.Warn("Failed to remove scratch directory", "dir", dir, "error", err)
		}
	}()

	local := filepath.Join(dir, FileName)
	if err := os.WriteFile(local, data, 0644); err != nil {
		return &PublishError{Artifact: name, Err: fmt.Errorf("failed to write %s: %w", local, err)}
	}

	if run.Artifacts != nil {
		if err := run.Artifacts.Upload(ctx, artifact.LevelFit, name, local, true); err != nil {
			return &PublishError{Artifact: name, Err: err}
		}
	}
	p.logger.Info("Configuration published", "artifact", name)

	if sc := run.SideChannel; sc != nil && sc.IsActive() {
		if err := sc.UpdateRunMetadata(ctx, cfg.RunName(), cfg.Flatten()); err != nil {
			return fmt.Errorf("failed to mirror configuration to tracker: %w", err)
		}
		p.logger.Debug("Configuration mirrored to tracker", "run", cfg.RunName())
	}
	return nil
}
