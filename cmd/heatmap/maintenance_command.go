package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"heatmap/internal/daemonctl"
)

func newMaintenanceCommand(ctx *commandContext) *cobra.Command {
	maintenanceCmd := &cobra.Command{
		Use:   "maintenance",
		Short: "Staleness sweep controls",
	}

	var asJSON bool
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run one staleness sweep now and wait for it",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *daemonctl.Client) error {
				summary, err := client.RunMaintenance(cmd.Context())
				if err != nil {
					return err
				}
				return emit(cmd, asJSON, summary, func() error {
					out := cmd.OutOrStdout()
					fmt.Fprintf(out, "Swept %d show(s) in %s\n", summary.Shows, summary.Elapsed.Round(time.Millisecond))
					fmt.Fprintf(out, "  metadata refreshed: %d\n", summary.MetadataRefreshed)
					fmt.Fprintf(out, "  stale episodes:     %d (%d checked, %d resolved)\n",
						summary.EpisodesStale, summary.EpisodesChecked, summary.EpisodesResolved)
					if summary.Failures > 0 {
						fmt.Fprintf(out, "  failures:           %d (see daemon log)\n", summary.Failures)
					}
					return nil
				})
			})
		},
	}
	runCmd.Flags().BoolVar(&asJSON, "json", false, "Print the sweep summary as JSON")

	maintenanceCmd.AddCommand(runCmd)
	return maintenanceCmd
}
