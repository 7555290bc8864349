package extract

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

const maxAncestorHops = 5

// HeuristicTier scans raw text for SxEy labels when no card markup matched.
type HeuristicTier struct{}

func (HeuristicTier) Name() string { return "heuristic" }

// Extract keeps the first match per episode number.
func (HeuristicTier) Extract(doc *Document, season int) ([]Episode, bool) {
	label := seasonLabelPattern(season)
	seen := make(map[int]struct{})
	var out []Episode

	eachText(doc.root, func(text *html.Node) bool {
		trimmed := strings.TrimSpace(text.Data)
		if trimmed == "" {
			return true
		}
		m := label.FindStringSubmatch(trimmed)
		if m == nil {
			return true
		}
		number, err := strconv.Atoi(m[1])
		if err != nil {
			return true
		}
		if _, dup := seen[number]; dup {
			return true
		}
		seen[number] = struct{}{}

		block := doc.Wrap(episodeContainer(text))
		title, id := titleLink(block, true)
		rating, votes := ratingAndVotes(firstOf(block, ratingGroupSelector, heuristicRatingSelector))
		out = append(out, Episode{
			Season:    season,
			Number:    number,
			Title:     title,
			Rating:    rating,
			Votes:     votes,
			EpisodeID: id,
		})
		return true
	})
	return out, len(out) > 0
}

// episodeContainer walks up to maxAncestorHops levels looking for an
// episodes-list-item card, falling back to the immediate parent.
func episodeContainer(text *html.Node) *html.Node {
	parent := text.Parent
	node := parent
	for hops := 0; node != nil && hops <= maxAncestorHops; hops++ {
		if node.Type == html.ElementNode && strings.HasPrefix(attr(node, "data-testid"), "episodes-list-item") {
			return node
		}
		node = node.Parent
	}
	return parent
}
