package main

import (
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"heatmap/internal/api"
)

func formatRating(rating *float64) string {
	if rating == nil {
		return "-"
	}
	return strconv.FormatFloat(*rating, 'f', 1, 64)
}

func formatVotes(votes *int64) string {
	if votes == nil {
		return "-"
	}
	return humanize.Comma(*votes)
}

func formatCount(n int) string {
	return humanize.Comma(int64(n))
}

// formatAge renders an RFC3339 timestamp relative to now.
func formatAge(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "never"
	}
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return value
	}
	return humanize.Time(ts)
}

func episodeFlags(ep api.EpisodeView) string {
	var flags []string
	if ep.Absent {
		flags = append(flags, "absent")
	} else if ep.Missing {
		flags = append(flags, "missing")
	}
	if ep.Provisional {
		flags = append(flags, "provisional")
	}
	return strings.Join(flags, ",")
}

func orDash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}
