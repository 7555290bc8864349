package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	aggregateRatingPattern = regexp.MustCompile(`"aggregateRating"\s*:\s*\{[^}]*?"ratingValue"\s*:\s*"?(\d+\.?\d*)"?`)
	bareRatingPattern      = regexp.MustCompile(`^\d\.\d$`)
)

// RatingFromPage finds a title's aggregate rating, trying JSON-LD, a raw
// regex over the page, the ratingValue meta tag, and finally any span whose
// whole text looks like "8.1". The raw text of the winning source is returned.
func RatingFromPage(raw []byte) (string, bool) {
	doc, err := NewDocument(raw)
	if err != nil {
		return "", false
	}
	if value, ok := ratingFromJSONLD(doc); ok {
		return value, true
	}
	if m := aggregateRatingPattern.FindSubmatch(raw); m != nil {
		return string(m[1]), true
	}
	if content, ok := doc.Find(`meta[itemprop="ratingValue"]`).First().Attr("content"); ok && strings.TrimSpace(content) != "" {
		return strings.TrimSpace(content), true
	}
	var value string
	doc.Find("span").EachWithBreak(func(_ int, span *goquery.Selection) bool {
		text := strings.TrimSpace(span.Text())
		if bareRatingPattern.MatchString(text) {
			value = text
			return false
		}
		return true
	})
	return value, value != ""
}

func ratingFromJSONLD(doc *Document) (string, bool) {
	var value string
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, script *goquery.Selection) bool {
		data, err := Parse([]byte(strings.TrimSpace(script.Text())))
		if err != nil {
			return true
		}
		candidates := []*Value{data}
		if data.IsArray() {
			candidates = data.Items()
		}
		for _, obj := range candidates {
			agg := obj.Get("aggregateRating")
			if !agg.IsObject() {
				continue
			}
			if text, ok := agg.First("ratingValue", "rating").Scalar(); ok {
				value = text
				return false
			}
		}
		return true
	})
	return value, value != ""
}
