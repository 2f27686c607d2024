package main

import (
	"github.com/jayhusemi/mosaicml-mcontrib"
	"github.com/jayhusemi/mosaicml-mcontrib/internal/cli"
	"github.com/jayhusemi/mosaicml-mcontrib/pkg/hparams"
	"github.com/spf13/cobra"
)

func newTrainCmd(app *cli.App) *cobra.Command {
	return &cobra.Command{
		Use:                "train -f run.yaml [--key value ...]",
		Short:              "Resolve the configuration and train",
		Long:               "Resolve the configuration, build the trainer, publish hparams.yaml on rank 0 and fit.\n\n" + usageArgs,
		Args:               cobra.ArbitraryArgs,
		DisableFlagParsing: true,
		SilenceUsage:       true,
		SilenceErrors:      true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrain(cmd, app, args)
		},
	}
}

func runTrain(cmd *cobra.Command, app *cli.App, args []string) error {
	inv, err := hparams.ParseArgs(args)
	if err != nil {
		return err
	}
	if inv.Help {
		return cmd.Help()
	}

	launcher := app.Launcher(mcontrib.WithBanner(app.Stdout))
	return launcher.Launch(cmd.Context(), inv, app.Env.Identity)
}
