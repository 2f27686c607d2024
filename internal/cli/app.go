// Package cli holds the process-level wiring shared by the mcontrib
// commands: environment, logging, metrics and exit codes.
package cli

import (
	"context"
	"io"
	"log/slog"

	"github.com/jayhusemi/mosaicml-mcontrib"
	"github.com/jayhusemi/mosaicml-mcontrib/internal/logging"
	"github.com/jayhusemi/mosaicml-mcontrib/pkg/metrics"
	"github.com/jayhusemi/mosaicml-mcontrib/pkg/registry"
	"github.com/prometheus/client_golang/prometheus"
)

// App bundles what every command needs.
type App struct {
	Env      Environment
	Logger   *slog.Logger
	Registry *registry.Registry
	Metrics  *metrics.Metrics
	Stdout   io.Writer
	Stderr   io.Writer

	gatherer *prometheus.Registry
}

// NewApp creates an App logging to stderr at the environment's level.
func NewApp(env Environment, stdout, stderr io.Writer) *App {
	gatherer := prometheus.NewRegistry()
	return &App{
		Env:      env,
		Logger:   logging.WithRank(logging.NewWithWriter(stderr, env.LogLevel), env.Identity),
		Registry: mcontrib.NewRegistry(),
		Metrics:  metrics.New(gatherer),
		Stdout:   stdout,
		Stderr:   stderr,
		gatherer: gatherer,
	}
}

// Launcher returns a launcher wired to the app.
func (a *App) Launcher(opts ...mcontrib.Option) *mcontrib.Launcher {
	base := []mcontrib.Option{
		mcontrib.WithLogger(a.Logger),
		mcontrib.WithMetrics(a.Metrics),
	}
	return mcontrib.New(a.Registry, append(base, opts...)...)
}

// ServeMetrics exposes /metrics when MCONTRIB_METRICS_ADDR is set. The
// server stops when ctx is done.
func (a *App) ServeMetrics(ctx context.Context) {
	if a.Env.MetricsAddr == "" {
		return
	}
	errCh := metrics.Serve(ctx, a.Env.MetricsAddr, a.gatherer, a.Logger)
	go func() {
		if err, ok := <-errCh; ok && err != nil {
			a.Logger.Error("Metrics server failed", "error", err)
		}
	}()
}
