package extract

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ChartEntry is one row of the TV popularity chart.
type ChartEntry struct {
	IMDbID string
	Title  string
	Year   string
	Rating *float64
	Poster string
}

var chartPaths = [][]string{
	{"props", "pageProps", "pageData", "chartTitles", "edges"},
	{"props", "pageProps", "chartTitles", "edges"},
}

// ChartFromPage reads the popularity chart from embedded JSON, falling back
// to list markup.
func ChartFromPage(raw []byte) []ChartEntry {
	doc, err := NewDocument(raw)
	if err != nil {
		return nil
	}
	if entries := chartFromNextData(doc); len(entries) > 0 {
		return entries
	}
	return chartFromDOM(doc)
}

func chartFromNextData(doc *Document) []ChartEntry {
	data := doc.scriptJSON(`script#__NEXT_DATA__`)
	if data == nil {
		return nil
	}
	var edges []*Value
	for _, path := range chartPaths {
		if items := data.Path(path...).Items(); len(items) > 0 {
			edges = items
			break
		}
	}

	var out []ChartEntry
	for _, edge := range edges {
		node := edge
		if edge.Has("node") {
			node = edge.Get("node")
		}
		if !node.Truthy() {
			continue
		}
		id, _ := node.First("id", "tconst").Str()
		title, _ := node.Get("titleText").Get("text").Str()
		if title == "" {
			title, _ = node.Get("originalTitleText").Get("text").Str()
		}
		if id == "" || title == "" {
			continue
		}
		entry := ChartEntry{IMDbID: id, Title: title}
		if year, ok := node.Get("releaseYear").Get("year").Scalar(); ok {
			entry.Year = year
		}
		if rating, ok := node.Get("ratingsSummary").Get("aggregateRating").Float(); ok {
			entry.Rating = &rating
		}
		entry.Poster, _ = node.Get("primaryImage").Get("url").Str()
		out = append(out, entry)
	}
	return out
}

func chartFromDOM(doc *Document) []ChartEntry {
	items := doc.Find("li.ipc-metadata-list-summary-item")
	if items.Length() == 0 {
		items = doc.Find(".chart-container li")
	}
	var out []ChartEntry
	items.Each(func(_ int, item *goquery.Selection) {
		link := item.Find(`a[href*="/title/tt"]`).First()
		if link.Length() == 0 {
			return
		}
		href, _ := link.Attr("href")
		id := EpisodeIDFromHref(href)
		title := strings.TrimSpace(link.Text())
		if id == "" || title == "" {
			return
		}
		entry := ChartEntry{IMDbID: id, Title: title}
		if year := item.Find(`span[class*="year"], span[class*="date"]`).First(); year.Length() > 0 {
			entry.Year = strings.TrimSpace(year.Text())
		}
		if rating := item.Find(`span[class*="rating"]`).First(); rating.Length() > 0 {
			if f, err := strconv.ParseFloat(strings.TrimSpace(rating.Text()), 64); err == nil {
				entry.Rating = &f
			}
		}
		entry.Poster, _ = item.Find("img").First().Attr("src")
		out = append(out, entry)
	})
	return out
}

const seasonOptionSelector = `select[id*="season"] option, select[data-testid="episodes-season-select"] option, [data-testid="tab-season-entry"]`

// MaxSeasonFromPage returns the largest numeric option of the season
// selector on an episodes landing page.
func MaxSeasonFromPage(raw []byte) (int, bool) {
	doc, err := NewDocument(raw)
	if err != nil {
		return 0, false
	}
	best, found := 0, false
	doc.Find(seasonOptionSelector).Each(func(_ int, opt *goquery.Selection) {
		label, ok := opt.Attr("value")
		if !ok || strings.TrimSpace(label) == "" {
			label = opt.Text()
		}
		n, err := strconv.Atoi(strings.TrimSpace(label))
		if err != nil {
			return
		}
		if !found || n > best {
			best, found = n, true
		}
	})
	return best, found
}
