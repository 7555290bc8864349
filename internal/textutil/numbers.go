package textutil

import (
	"strconv"
	"strings"
)

// ParseFloat parses a decimal value, returning nil for blanks, "N/A", and any
// other non-numeric input.
func ParseFloat(value string) *float64 {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" || strings.EqualFold(trimmed, "n/a") {
		return nil
	}
	parsed, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return nil
	}
	return &parsed
}

// ParseCount parses a comma formatted integer such as "1,234". Anything that
// is not purely digits once separators are removed yields nil.
func ParseCount(value string) *int64 {
	digits := strings.ReplaceAll(strings.TrimSpace(value), ",", "")
	if digits == "" {
		return nil
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return nil
		}
	}
	parsed, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return nil
	}
	return &parsed
}
