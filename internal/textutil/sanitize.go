package textutil

import (
	"regexp"
	"strings"
)

var imdbIDPattern = regexp.MustCompile(`^tt\d{6,9}$`)

// SanitizeIMDbID trims surrounding whitespace and quotes from raw and reports
// whether the remainder is a well-formed title identifier (tt followed by six
// to nine digits). Values carrying path or control characters are rejected
// outright rather than trimmed.
func SanitizeIMDbID(raw string) (string, bool) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.Trim(cleaned, `"'`)
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return "", false
	}
	if strings.ContainsAny(cleaned, "/\\\r\n") {
		return "", false
	}
	if !imdbIDPattern.MatchString(cleaned) {
		return "", false
	}
	return cleaned, true
}

// IsEpisodeID reports whether value is a real catalog identifier as opposed
// to a synthesized placeholder key such as "tt0903747-S1E2".
func IsEpisodeID(value string) bool {
	return imdbIDPattern.MatchString(strings.TrimSpace(value))
}
