package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"heatmap/internal/daemonctl"
)

func newDebugCommand(ctx *commandContext) *cobra.Command {
	debugCmd := &cobra.Command{
		Use:   "debug",
		Short: "Inspect catalog scraping without touching the store",
	}
	debugCmd.AddCommand(newParseSeasonCommand(ctx))
	debugCmd.AddCommand(newScrapeRatingCommand(ctx))
	debugCmd.AddCommand(newClearCacheCommand(ctx))
	return debugCmd
}

func newParseSeasonCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "parse-season <imdb-id> <season>",
		Short: "Fetch and parse one catalog season page, bypassing the cache",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			season, err := strconv.Atoi(args[1])
			if err != nil || season < 1 {
				return fmt.Errorf("invalid season %q", args[1])
			}
			return ctx.withClient(func(client *daemonctl.Client) error {
				result, err := client.ParseSeason(cmd.Context(), args[0], season)
				if err != nil {
					return err
				}
				return emit(cmd, asJSON, result, func() error {
					out := cmd.OutOrStdout()
					fmt.Fprintf(out, "%s season %d: %d episode(s), %d rated, %d with votes\n",
						result.IMDbID, result.Season, result.Count, result.Rated, result.WithVotes)
					if result.Count == 0 {
						return nil
					}
					rows := make([][]string, 0, len(result.Episodes))
					for _, ep := range result.Episodes {
						rows = append(rows, []string{
							strconv.Itoa(ep.Episode),
							ep.Title,
							formatRating(ep.Rating),
							formatVotes(ep.Votes),
							orDash(ep.AirDate),
							orDash(ep.EpisodeID),
						})
					}
					fmt.Fprint(out, renderTable(
						[]string{"Ep", "Title", "Rating", "Votes", "Aired", "Episode ID"},
						rows,
						[]columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignLeft, alignLeft},
					))
					return nil
				})
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the parse result as JSON")
	return cmd
}

func newScrapeRatingCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "scrape-rating <imdb-id>",
		Short: "Scrape the catalog rating of a single title",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *daemonctl.Client) error {
				result, err := client.ScrapeRating(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", result.IMDbID, formatRating(result.ScrapedRating))
				return nil
			})
		},
	}
}

func newClearCacheCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-cache <imdb-id>",
		Short: "Drop the cached catalog season pages of a show",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *daemonctl.Client) error {
				result, err := client.ClearSeasonCache(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d cached season(s)\n", result.Cleared)
				return nil
			})
		},
	}
}
