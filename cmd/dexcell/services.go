package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/bft-labs/dexcell/pkg/message"
)

func newServicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "services",
		Short: "List the known service codes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CODE\tNAME\tUNIT")
			for _, s := range message.Services() {
				fmt.Fprintf(tw, "%d\t%s\t%s\n", int(s), s.Name(), s.Unit())
			}
			return tw.Flush()
		},
	}
}
