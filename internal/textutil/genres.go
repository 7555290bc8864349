package textutil

import (
	"strings"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// SplitGenres turns a comma separated genre string into a de-duplicated,
// title-cased list preserving first-seen order.
func SplitGenres(value string) []string {
	if strings.TrimSpace(value) == "" || strings.EqualFold(strings.TrimSpace(value), "n/a") {
		return nil
	}
	caser := cases.Title(language.English)
	seen := make(map[string]struct{})
	var out []string
	for _, part := range strings.Split(value, ",") {
		genre := strings.TrimSpace(part)
		if genre == "" {
			continue
		}
		genre = caser.String(strings.ToLower(genre))
		if _, ok := seen[genre]; ok {
			continue
		}
		seen[genre] = struct{}{}
		out = append(out, genre)
	}
	return out
}

// FoldKey transliterates to ASCII, case-folds, and collapses whitespace so
// equivalent searches share a cache entry ("Pokémon" and "pokemon" match).
func FoldKey(value string) string {
	ascii := unidecode.Unidecode(strings.TrimSpace(value))
	return strings.Join(strings.Fields(cases.Fold().String(ascii)), " ")
}
