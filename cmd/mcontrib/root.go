package main

import (
	"context"
	"fmt"
	"io"

	"github.com/jayhusemi/mosaicml-mcontrib/internal/cli"
	"github.com/spf13/cobra"
)

const usageArgs = `  -f, --file PATH        YAML file with the run configuration
  --key value            override a top-level key
  --key.nested value     override a nested key, e.g. --optimizer.lr 0.05
  --key=value            same as --key value
  --flag                 set a boolean key to true
`

// run executes the command line and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer, lookup func(string) (string, bool)) int {
	// A bare invocation prints the usage instead of failing validation.
	if len(args) == 0 {
		args = []string{"--help"}
	}

	env, err := cli.LoadEnvironment(lookup)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return cli.ExitCode(err)
	}
	app := cli.NewApp(env, stdout, stderr)

	sc := cli.NewSignalContext(ctx)
	defer sc.Cancel()
	app.ServeMetrics(sc)

	root := newRootCmd(app)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err = root.ExecuteContext(sc)
	if err != nil {
		if sig := sc.Signal(); sig != nil {
			app.Logger.Warn("Interrupted", "signal", sig.String())
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
	}
	return cli.ExitCode(err)
}

func newRootCmd(app *cli.App) *cobra.Command {
	root := &cobra.Command{
		Use:   "mcontrib [train] -f run.yaml [--key value ...]",
		Short: "Configure and launch a training run",
		Long: `mcontrib resolves a run configuration from a YAML file and command-line
overrides, builds the trainer, records the configuration on global rank 0
and starts training.

` + usageArgs,
		Args:               cobra.ArbitraryArgs,
		DisableFlagParsing: true,
		SilenceUsage:       true,
		SilenceErrors:      true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrain(cmd, app, args)
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true

	root.AddCommand(
		newTrainCmd(app),
		newValidateCmd(app),
		newComponentsCmd(app),
		newVersionCmd(),
	)
	return root
}
