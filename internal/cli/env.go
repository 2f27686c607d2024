package cli

import (
	"fmt"
	"log/slog"

	"github.com/jayhusemi/mosaicml-mcontrib/internal/logging"
	"github.com/jayhusemi/mosaicml-mcontrib/pkg/dist"
	"github.com/jayhusemi/mosaicml-mcontrib/pkg/hparams"
)

// Environment variables configuring the tool itself.
const (
	EnvLogLevel    = "MCONTRIB_LOG_LEVEL"
	EnvMetricsAddr = "MCONTRIB_METRICS_ADDR"
)

// Environment is the process-level configuration read once at startup.
type Environment struct {
	Identity    dist.Identity
	LogLevel    slog.Level
	MetricsAddr string
}

// LoadEnvironment reads the environment through lookup.
func LoadEnvironment(lookup func(string) (string, bool)) (Environment, error) {
	env := Environment{LogLevel: slog.LevelInfo}

	id, err := dist.FromLookup(lookup)
	if err != nil {
		return env, &hparams.ConfigurationError{Source: "environment", Err: err}
	}
	env.Identity = id

	if raw, ok := lookup(EnvLogLevel); ok && raw != "" {
		level, err := logging.ParseLevel(raw)
		if err != nil {
			return env, &hparams.ConfigurationError{Source: "environment", Err: fmt.Errorf("%s: %w", EnvLogLevel, err)}
		}
		env.LogLevel = level
	}
	env.MetricsAddr, _ = lookup(EnvMetricsAddr)
	return env, nil
}
