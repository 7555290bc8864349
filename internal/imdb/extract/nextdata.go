package extract

import "time"

// nextDataPaths are the known locations of the season episode array.
var nextDataPaths = [][]string{
	{"props", "pageProps", "contentData", "episodes", "items"},
	{"props", "pageProps", "contentData", "section", "items"},
	{"props", "pageProps", "contentData", "items"},
}

var episodeKeys = []string{"episodeNumber", "episode", "titleText"}

const maxSearchDepth = 8

// NextDataTier reads the __NEXT_DATA__ JSON blob.
type NextDataTier struct{}

func (NextDataTier) Name() string { return "next_data" }

// Extract accepts its output only if something was rated or voted on, or at
// least one title resolved; a well-formed but empty blob falls through.
func (NextDataTier) Extract(doc *Document, season int) ([]Episode, bool) {
	data := doc.scriptJSON(`script#__NEXT_DATA__`)
	if data == nil {
		return nil, false
	}

	list := knownEpisodeList(data)
	if list == nil {
		list = bestEpisodeList(data, season)
	}
	if list == nil {
		return nil, false
	}

	var out []Episode
	for _, entry := range list.Items() {
		if ep, ok := episodeFromJSON(entry, season); ok {
			out = append(out, ep)
		}
	}
	if len(out) == 0 {
		return nil, false
	}
	stats := Summarize(out)
	if stats.Rated > 0 || stats.WithVotes > 0 || stats.UnknownTitles < stats.Count {
		return out, true
	}
	return nil, false
}

func knownEpisodeList(data *Value) *Value {
	for _, path := range nextDataPaths {
		if v := data.Path(path...); v.IsArray() {
			return v
		}
	}
	return nil
}

// bestEpisodeList scans the tree for arrays of episode-like objects and
// keeps the one with the most entries for the requested season.
func bestEpisodeList(data *Value, season int) *Value {
	var (
		best      *Value
		bestMatch int
	)
	Walk(data, maxSearchDepth, func(node *Value, _ int) {
		if !looksLikeEpisodeList(node) {
			return
		}
		matches := 0
		for _, entry := range node.Items() {
			if s, ok := entry.First("seasonNumber", "season").Int(); ok && s == season {
				matches++
			}
		}
		if matches > bestMatch {
			best, bestMatch = node, matches
		}
	})
	return best
}

func looksLikeEpisodeList(node *Value) bool {
	items := node.Items()
	if len(items) == 0 {
		return false
	}
	hits := 0
	for _, item := range items {
		if !item.IsObject() {
			return false
		}
		for _, key := range episodeKeys {
			if item.Has(key) {
				hits++
				break
			}
		}
	}
	return hits >= max(1, len(items)/4)
}

func episodeFromJSON(entry *Value, season int) (Episode, bool) {
	if content := entry.Get("content"); content.IsObject() {
		entry = content
	}
	if !entry.IsObject() {
		return Episode{}, false
	}
	entrySeason, ok := entry.First("seasonNumber", "season").Int()
	if !ok || entrySeason != season {
		return Episode{}, false
	}
	number, ok := entry.First("episodeNumber", "episode").Int()
	if !ok || number <= 0 {
		return Episode{}, false
	}

	ep := Episode{Season: season, Number: number, Title: jsonTitle(entry)}

	if summary := entry.Get("ratingsSummary"); summary.IsObject() {
		if rating, ok := summary.Get("aggregateRating").Float(); ok {
			ep.Rating = &rating
		}
		if count := summary.Get("voteCount"); count.Kind() == KindNumber {
			if f, ok := count.Float(); ok {
				votes := int64(f)
				ep.Votes = &votes
			}
		}
	}

	if date := entry.First("releaseDate", "airDate"); date.IsObject() {
		ep.AirDate = jsonDate(date)
	}

	if id, ok := entry.First("id", "tconst").Str(); ok {
		ep.EpisodeID = id
	}
	return ep, true
}

func jsonTitle(entry *Value) string {
	if text, ok := entry.Get("titleText").Get("text").Str(); ok && text != "" {
		return text
	}
	for _, key := range []string{"title", "parentTitle", "originalTitleText"} {
		field := entry.Get(key)
		if text, ok := field.Str(); ok && text != "" {
			return text
		}
		if text, ok := field.Get("text").Str(); ok && text != "" {
			return text
		}
	}
	return UnknownTitle
}

func jsonDate(date *Value) *time.Time {
	y, okY := date.Get("year").StrictInt()
	m, okM := date.Get("month").StrictInt()
	d, okD := date.Get("day").StrictInt()
	if !okY || !okM || !okD {
		return nil
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Year() != y || int(t.Month()) != m || t.Day() != d {
		return nil
	}
	return &t
}
