package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"heatmap/internal/daemonctl"
)

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	var page int
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search series by title",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *daemonctl.Client) error {
				results, err := client.Search(cmd.Context(), strings.Join(args, " "), page)
				if err != nil {
					return err
				}
				return emit(cmd, asJSON, results, func() error {
					out := cmd.OutOrStdout()
					if len(results) == 0 {
						fmt.Fprintln(out, "No matches")
						return nil
					}
					rows := make([][]string, 0, len(results))
					for _, r := range results {
						rows = append(rows, []string{r.IMDbID, r.Title, orDash(r.Year), r.Type})
					}
					fmt.Fprint(out, renderTable([]string{"IMDb ID", "Title", "Year", "Type"}, rows, nil))
					return nil
				})
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print results as JSON")
	cmd.Flags().IntVar(&page, "page", 1, "Result page")
	return cmd
}

func newTrendingCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "trending",
		Short: "List shows currently on the catalog popularity chart",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *daemonctl.Client) error {
				shows, err := client.Trending(cmd.Context())
				if err != nil {
					return err
				}
				return emit(cmd, asJSON, shows, func() error {
					out := cmd.OutOrStdout()
					if len(shows) == 0 {
						fmt.Fprintln(out, "Chart is empty")
						return nil
					}
					rows := make([][]string, 0, len(shows))
					for i, s := range shows {
						rows = append(rows, []string{strconv.Itoa(i + 1), s.IMDbID, s.Title, orDash(s.Year), formatRating(s.IMDbRating)})
					}
					fmt.Fprint(out, renderTable(
						[]string{"#", "IMDb ID", "Title", "Year", "Rating"},
						rows,
						[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight},
					))
					return nil
				})
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print results as JSON")
	return cmd
}

func newPopularCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	var limit int
	cmd := &cobra.Command{
		Use:   "popular",
		Short: "List the most viewed stored shows",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *daemonctl.Client) error {
				shows, err := client.Popular(cmd.Context(), limit)
				if err != nil {
					return err
				}
				return emit(cmd, asJSON, shows, func() error {
					out := cmd.OutOrStdout()
					if len(shows) == 0 {
						fmt.Fprintln(out, "No shows have been viewed yet")
						return nil
					}
					rows := make([][]string, 0, len(shows))
					for _, s := range shows {
						rows = append(rows, []string{s.IMDbID, s.Title, orDash(s.Year), formatRating(s.IMDbRating), orDash(s.Genres)})
					}
					fmt.Fprint(out, renderTable(
						[]string{"IMDb ID", "Title", "Year", "Rating", "Genres"},
						rows,
						[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
					))
					return nil
				})
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print results as JSON")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum shows to list (daemon default when 0)")
	return cmd
}
