package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"heatmap/internal/daemonctl"
)

func newRefreshCommand(ctx *commandContext) *cobra.Command {
	refreshCmd := &cobra.Command{
		Use:   "refresh",
		Short: "Re-read stored shows from the upstream sources",
	}
	refreshCmd.AddCommand(newRefreshMissingCommand(ctx))
	refreshCmd.AddCommand(newRefreshShowCommand(ctx))
	refreshCmd.AddCommand(newRefreshMetadataCommand(ctx))
	return refreshCmd
}

func newRefreshMissingCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "missing <imdb-id>",
		Short: "Re-check only episodes that have no rating",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *daemonctl.Client) error {
				result, err := client.RefreshMissing(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return emit(cmd, asJSON, result, func() error {
					fmt.Fprintf(cmd.OutOrStdout(), "Updated %d episode(s)\n", result.Updated)
					return nil
				})
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	return cmd
}

func newRefreshShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show <imdb-id>",
		Short: "Re-read every season of a show, ingesting it when unknown",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *daemonctl.Client) error {
				result, err := client.RefreshShow(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return emit(cmd, asJSON, result, func() error {
					out := cmd.OutOrStdout()
					if result.Ingested {
						fmt.Fprintln(out, "Show was not stored yet; ingested")
						return nil
					}
					fmt.Fprintf(out, "Updated %d season(s)\n", result.UpdatedSeasons)
					return nil
				})
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	return cmd
}

func newRefreshMetadataCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "metadata <imdb-id>",
		Short: "Refresh show-level details without touching episodes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *daemonctl.Client) error {
				result, err := client.RefreshMetadata(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return emit(cmd, asJSON, result, func() error {
					fmt.Fprintf(cmd.OutOrStdout(), "Metadata refresh: %s\n", result.Status)
					return nil
				})
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	return cmd
}

func newRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <imdb-id>",
		Short: "Delete a stored show and its episodes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *daemonctl.Client) error {
				result, err := client.Remove(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if !result.Removed {
					fmt.Fprintf(out, "%s was not stored\n", args[0])
					return nil
				}
				fmt.Fprintf(out, "Removed %s\n", args[0])
				return nil
			})
		},
	}
}
