package extract

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"heatmap/internal/textutil"
)

var (
	titleHrefPattern  = regexp.MustCompile(`/title/(tt\d+)`)
	decimalPattern    = regexp.MustCompile(`^\d+(\.\d+)?$`)
	airDateLayouts    = []string{"Mon Jan 2 2006", "2 Jan 2006", "Jan 2 2006"}
	voteMultipliers   = map[byte]float64{'K': 1_000, 'M': 1_000_000}
	voteTrimCutset    = "() \t\n"
	airDateStripChars = strings.NewReplacer(",", "", ".", "")
)

// ParseVotes normalizes vote labels such as "(1.3K)", "12,345" or "987".
func ParseVotes(text string) *int64 {
	cleaned := strings.Trim(strings.TrimSpace(text), voteTrimCutset)
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	if cleaned == "" {
		return nil
	}
	last := cleaned[len(cleaned)-1]
	if mult, ok := voteMultipliers[last]; ok {
		number := cleaned[:len(cleaned)-1]
		if !decimalPattern.MatchString(number) {
			return nil
		}
		f, err := strconv.ParseFloat(number, 64)
		if err != nil {
			return nil
		}
		votes := int64(math.Round(f * mult))
		return &votes
	}
	return textutil.ParseCount(cleaned)
}

// ParseAirDate accepts "Fri Apr 3 2020", "3 Apr 2020" and "Apr 3 2020" once
// commas and periods are removed.
func ParseAirDate(text string) *time.Time {
	normalized := strings.Join(strings.Fields(airDateStripChars.Replace(text)), " ")
	if normalized == "" {
		return nil
	}
	for _, layout := range airDateLayouts {
		if parsed, err := time.Parse(layout, normalized); err == nil {
			return &parsed
		}
	}
	return nil
}

// ParseRating reads a numeric rating, returning nil for blanks and N/A.
func ParseRating(text string) *float64 {
	return textutil.ParseFloat(text)
}

// EpisodeIDFromHref pulls the tt identifier out of a title link.
func EpisodeIDFromHref(href string) string {
	if m := titleHrefPattern.FindStringSubmatch(href); m != nil {
		return m[1]
	}
	return ""
}

func seasonLabelPattern(season int) *regexp.Regexp {
	return regexp.MustCompile(`S` + strconv.Itoa(season) + `\.E(\d+)`)
}
