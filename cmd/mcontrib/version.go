package main

import (
	"fmt"

	"github.com/jayhusemi/mosaicml-mcontrib"
	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of mcontrib",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "mcontrib version %s\n", mcontrib.Version)
		},
	}
}
