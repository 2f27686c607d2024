package main

import (
	"fmt"

	"github.com/jayhusemi/mosaicml-mcontrib/internal/cli"
	"github.com/jayhusemi/mosaicml-mcontrib/pkg/hparams"
	"github.com/spf13/cobra"
)

func newValidateCmd(app *cli.App) *cobra.Command {
	return &cobra.Command{
		Use:                "validate -f run.yaml [--key value ...]",
		Short:              "Resolve and print the configuration without training",
		Long:               "Resolve the configuration and print its canonical YAML. Nothing is built or published.\n\n" + usageArgs,
		Args:               cobra.ArbitraryArgs,
		DisableFlagParsing: true,
		SilenceUsage:       true,
		SilenceErrors:      true,
		RunE: func(cmd *cobra.Command, args []string) error {
			inv, err := hparams.ParseArgs(args)
			if err != nil {
				return err
			}
			if inv.Help {
				return cmd.Help()
			}

			cfg, err := app.Launcher().Resolve(inv)
			if err != nil {
				return err
			}
			doc, err := cfg.ToYAML()
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), string(doc))
			return err
		},
	}
}
