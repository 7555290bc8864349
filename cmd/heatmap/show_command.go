package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"heatmap/internal/api"
	"heatmap/internal/daemonctl"
	"heatmap/internal/textutil"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	var noTrack bool
	var grid bool
	var season int

	cmd := &cobra.Command{
		Use:   "show <imdb-id | title>",
		Short: "Display the episode ratings of a show, ingesting it on first use",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *daemonctl.Client) error {
				id, err := resolveShowID(cmd.Context(), client, strings.Join(args, " "))
				if err != nil {
					return err
				}
				view, err := client.GetShow(cmd.Context(), id, !noTrack)
				if err != nil {
					return err
				}
				if season > 0 {
					view.Episodes = filterSeason(view.Episodes, season)
				}
				return emit(cmd, asJSON, view, func() error {
					out := cmd.OutOrStdout()
					colorize := shouldColorize(out)
					printShowHeader(out, view, colorize)
					if grid {
						fmt.Fprint(out, showGrid(view.Episodes, colorize))
						return nil
					}
					fmt.Fprint(out, episodeTable(view.Episodes))
					return nil
				})
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw show view as JSON")
	cmd.Flags().BoolVar(&noTrack, "no-track", false, "Do not count this lookup as a view")
	cmd.Flags().BoolVar(&grid, "grid", false, "Render ratings as a season by episode grid")
	cmd.Flags().IntVar(&season, "season", 0, "Only show one season")
	return cmd
}

// resolveShowID accepts an IMDb id directly and otherwise looks the title up.
func resolveShowID(ctx context.Context, client *daemonctl.Client, arg string) (string, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return "", fmt.Errorf("imdb id or title is required")
	}
	if id, ok := textutil.SanitizeIMDbID(arg); ok {
		return id, nil
	}
	show, err := client.LookupByTitle(ctx, arg)
	if err != nil {
		return "", fmt.Errorf("look up %q: %w", arg, err)
	}
	if show.IMDbID == "" {
		return "", fmt.Errorf("no show found for %q", arg)
	}
	return show.IMDbID, nil
}

func filterSeason(episodes []api.EpisodeView, season int) []api.EpisodeView {
	out := make([]api.EpisodeView, 0, len(episodes))
	for _, ep := range episodes {
		if ep.Season == season {
			out = append(out, ep)
		}
	}
	return out
}

func printShowHeader(out io.Writer, view *api.ShowView, colorize bool) {
	title := view.Title
	if view.Year != "" {
		title = fmt.Sprintf("%s (%s)", title, view.Year)
	}
	fmt.Fprintf(out, "%s  %s\n", title, view.IMDbID)
	fmt.Fprintf(out, "Rating:   %s (%s votes)\n", formatRating(view.Rating), formatVotes(view.Votes))
	if len(view.Genres) > 0 {
		fmt.Fprintf(out, "Genres:   %s\n", strings.Join(view.Genres, ", "))
	}
	fmt.Fprintf(out, "Seasons:  %d\n", view.TotalSeasons)
	fmt.Fprintf(out, "Views:    %d\n", view.ViewCount)
	fmt.Fprintf(out, "Updated:  %s (full refresh %s)\n", formatAge(view.LastUpdated), formatAge(view.LastFullRefresh))

	var notes []string
	if view.PartialData {
		notes = append(notes, renderStatusLine("Enrichment", statusInfo, "catalog enrichment still running", colorize))
	}
	if view.MissingRefreshInProgress {
		notes = append(notes, renderStatusLine("Missing refresh", statusInfo, "re-checking unrated episodes", colorize))
	}
	if view.Incomplete {
		notes = append(notes, renderStatusLine("Incomplete", statusWarn, "some episodes have no rating yet", colorize))
	}
	if view.MetadataStale {
		notes = append(notes, renderStatusLine("Metadata", statusWarn, "show details are stale", colorize))
	}
	if view.EpisodesStaleCount > 0 {
		notes = append(notes, renderStatusLine("Stale episodes", statusWarn, strconv.Itoa(view.EpisodesStaleCount), colorize))
	}
	for _, line := range notes {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintln(out)
}

func episodeTable(episodes []api.EpisodeView) string {
	if len(episodes) == 0 {
		return "No episodes stored\n"
	}
	rows := make([][]string, 0, len(episodes))
	for _, ep := range episodes {
		rows = append(rows, []string{
			strconv.Itoa(ep.Season),
			strconv.Itoa(ep.Episode),
			ep.Title,
			formatRating(ep.Rating),
			formatVotes(ep.Votes),
			orDash(ep.AirDate),
			episodeFlags(ep),
		})
	}
	return renderTable(
		[]string{"Season", "Ep", "Title", "Rating", "Votes", "Aired", "Flags"},
		rows,
		[]columnAlignment{alignRight, alignRight, alignLeft, alignRight, alignRight, alignLeft, alignLeft},
	)
}

func showGrid(episodes []api.EpisodeView, colorize bool) string {
	cells := make(map[int]map[int]gridCell)
	maxEpisode := 0
	for _, ep := range episodes {
		if cells[ep.Season] == nil {
			cells[ep.Season] = make(map[int]gridCell)
		}
		cells[ep.Season][ep.Episode] = gridCell{Rating: ep.Rating, Absent: ep.Absent}
		maxEpisode = max(maxEpisode, ep.Episode)
	}
	seasons := make([]int, 0, len(cells))
	for season := range cells {
		seasons = append(seasons, season)
	}
	sort.Ints(seasons)
	if len(seasons) == 0 {
		return "No episodes stored\n"
	}
	return renderGrid(seasons, cells, maxEpisode, colorize)
}
