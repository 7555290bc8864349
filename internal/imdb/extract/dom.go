package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// episodeBlockSelectors run in order until one matches anything.
var episodeBlockSelectors = []string{
	`[data-testid="episodes-list"] [data-testid^="episodes-list-item"]`,
	`[data-testid^="episodes-list-item"]`,
	`li[data-testid^="episodes-list-item"], div[data-testid^="episodes-list-item"]`,
	`article.episode-item-wrapper`,
}

const (
	titleLinkSelector       = `a[href*="/title/tt"]`
	ratingGroupSelector     = `[data-testid="ratingGroup--container"]`
	legacyRatingSelector    = `[class*="ipl-rating-star"]`
	heuristicRatingSelector = `[class*="ipl-rating-star"], [class*="ratingGroup--imdb-rating"]`
	ratingValueSelector     = `span[class*="ipc-rating-star--rating"]`
	legacyValueSelector     = `span[class*="ipl-rating-star__rating"]`
	voteCountSelector       = `span[class*="voteCount"]`
	legacyVotesSelector     = `span[class*="ipl-rating-star__total-votes"]`
	airDateDivSelector      = `div[class*="airdate"]`
)

// DOMTier reads episode cards by their data-testid attributes.
type DOMTier struct{}

func (DOMTier) Name() string { return "dom" }

// Extract accepts any non-empty result.
func (DOMTier) Extract(doc *Document, season int) ([]Episode, bool) {
	var blocks *goquery.Selection
	for _, selector := range episodeBlockSelectors {
		if blocks = doc.Find(selector); blocks.Length() > 0 {
			break
		}
	}
	if blocks == nil || blocks.Length() == 0 {
		return nil, false
	}

	label := seasonLabelPattern(season)
	var out []Episode
	blocks.Each(func(_ int, block *goquery.Selection) {
		number, ok := labelNumber(block.Get(0), label)
		if !ok {
			return
		}
		title, id := titleLink(block, false)
		rating, votes := ratingAndVotes(firstOf(block, ratingGroupSelector, legacyRatingSelector))
		out = append(out, Episode{
			Season:    season,
			Number:    number,
			Title:     title,
			Rating:    rating,
			Votes:     votes,
			AirDate:   blockAirDate(block),
			EpisodeID: id,
		})
	})
	return out, len(out) > 0
}

// labelNumber finds the first text node under n matching label.
func labelNumber(n *html.Node, label *regexp.Regexp) (int, bool) {
	var (
		number int
		found  bool
	)
	eachText(n, func(text *html.Node) bool {
		m := label.FindStringSubmatch(strings.TrimSpace(text.Data))
		if m == nil {
			return true
		}
		parsed, err := strconv.Atoi(m[1])
		if err != nil {
			return true
		}
		number, found = parsed, true
		return false
	})
	return number, found
}

// titleLink returns the first title link's text and id. When requireText is
// set, links with blank text are skipped.
func titleLink(block *goquery.Selection, requireText bool) (string, string) {
	var link *goquery.Selection
	block.Find(titleLinkSelector).EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if requireText && strings.TrimSpace(a.Text()) == "" {
			return true
		}
		link = a
		return false
	})
	if link == nil {
		return UnknownTitle, ""
	}
	title := strings.TrimSpace(link.Text())
	if title == "" {
		title = UnknownTitle
	}
	href, _ := link.Attr("href")
	return title, EpisodeIDFromHref(href)
}

func firstOf(block *goquery.Selection, selectors ...string) *goquery.Selection {
	for _, selector := range selectors {
		if found := block.Find(selector).First(); found.Length() > 0 {
			return found
		}
	}
	return nil
}

func ratingAndVotes(container *goquery.Selection) (*float64, *int64) {
	if container == nil {
		return nil, nil
	}
	var (
		rating *float64
		votes  *int64
	)
	if span := firstOf(container, ratingValueSelector, legacyValueSelector); span != nil {
		rating = ParseRating(span.Text())
	}
	if span := firstOf(container, voteCountSelector, legacyVotesSelector); span != nil {
		votes = ParseVotes(span.Text())
	}
	return rating, votes
}

func blockAirDate(block *goquery.Selection) *time.Time {
	var date *time.Time
	block.Find("span").EachWithBreak(func(_ int, span *goquery.Selection) bool {
		date = ParseAirDate(span.Text())
		return date == nil
	})
	if date != nil {
		return date
	}
	if div := block.Find(airDateDivSelector).First(); div.Length() > 0 {
		return ParseAirDate(div.Text())
	}
	return nil
}
