package cli

import (
	"context"
	"errors"

	"github.com/jayhusemi/mosaicml-mcontrib/pkg/hparams"
	"github.com/jayhusemi/mosaicml-mcontrib/pkg/publish"
	"github.com/jayhusemi/mosaicml-mcontrib/pkg/registry"
)

// Process exit codes.
const (
	ExitOK           = 0
	ExitUnexpected   = 1
	ExitConfig       = 2
	ExitConstruction = 3
	ExitPublish      = 4
	ExitInterrupted  = 130
)

// ExitCode maps an error returned by a command to the process exit code.
func ExitCode(err error) int {
	var (
		cfgErr   *hparams.ConfigurationError
		buildErr *registry.ConstructionError
		pubErr   *publish.PublishError
	)
	switch {
	case err == nil:
		return ExitOK
	case errors.As(err, &cfgErr):
		return ExitConfig
	case errors.As(err, &buildErr):
		return ExitConstruction
	case errors.As(err, &pubErr):
		return ExitPublish
	case errors.Is(err, context.Canceled):
		return ExitInterrupted
	default:
		return ExitUnexpected
	}
}
