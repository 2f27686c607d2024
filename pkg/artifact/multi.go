package artifact

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jayhusemi/mosaicml-mcontrib/internal/logging"
	"github.com/jayhusemi/mosaicml-mcontrib/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

type namedSink struct {
	name string
	sink Sink
}

// Multi fans an upload out to every configured sink. With no sinks an
// upload is a no-op, like a run that has no artifact destinations.
type Multi struct {
	sinks   []namedSink
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// MultiOption configures a Multi.
type MultiOption func(*Multi)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) MultiOption {
	return func(m *Multi) {
		m.logger = logger
	}
}

// WithMetrics records upload outcomes per sink.
func WithMetrics(mt *metrics.Metrics) MultiOption {
	return func(m *Multi) {
		m.metrics = mt
	}
}

// NewMulti creates an empty fan-out sink.
func NewMulti(opts ...MultiOption) *Multi {
	m := &Multi{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Add registers a sink under a label used in logs and metrics.
func (m *Multi) Add(name string, s Sink) {
	m.sinks = append(m.sinks, namedSink{name: name, sink: s})
}

// Len returns the number of sinks.
func (m *Multi) Len() int { return len(m.sinks) }

// Upload sends the file to every sink concurrently and returns the first
// failure. It returns only after every sink has finished.
func (m *Multi) Upload(ctx context.Context, level Level, name, localPath string, overwrite bool) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if len(m.sinks) == 0 {
		m.logger.Debug("No artifact sinks configured", "artifact", name)
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, ns := range m.sinks {
		ns := ns
		g.Go(func() error {
			err := ns.sink.Upload(gctx, level, name, localPath, overwrite)
			m.metrics.ObserveUpload(ns.name, err)
			if err != nil {
				return fmt.Errorf("sink %s: %w", ns.name, err)
			}
			m.logger.Debug("Artifact uploaded", "sink", ns.name, "artifact", name, "level", level)
			return nil
		})
	}
	return g.Wait()
}
