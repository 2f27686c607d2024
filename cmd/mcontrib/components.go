package main

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/jayhusemi/mosaicml-mcontrib/internal/cli"
	"github.com/spf13/cobra"
)

func newComponentsCmd(app *cli.App) *cobra.Command {
	return &cobra.Command{
		Use:   "components [kind]",
		Short: "List registered components and their parameters",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kinds := app.Registry.Kinds()
			if len(args) == 1 {
				if len(app.Registry.Names(args[0])) == 0 {
					return fmt.Errorf("unknown component kind %q (known: %s)", args[0], strings.Join(kinds, ", "))
				}
				kinds = args
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, kind := range kinds {
				fmt.Fprintf(w, "%s:\n", kind)
				for _, name := range app.Registry.Names(kind) {
					c, _ := app.Registry.Lookup(kind, name)
					fmt.Fprintf(w, "  %s\t%s\n", name, c.Description)
					params := c.Params.Describe()
					keys := make([]string, 0, len(params))
					for k := range params {
						keys = append(keys, k)
					}
					sort.Strings(keys)
					for _, k := range keys {
						fmt.Fprintf(w, "    %s\t%s\n", k, params[k])
					}
				}
			}
			return w.Flush()
		},
	}
}
