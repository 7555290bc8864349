package logs

import (
	"encoding/json"
	"strconv"
	"strings"

	"heatmap/internal/logging"
)

// Filter narrows tailed lines. Empty fields match everything.
type Filter struct {
	// MinLevel drops lines below this level (debug, info, warn, error).
	MinLevel  string
	Component string
	ShowID    string
	EventType string
}

func (f Filter) empty() bool {
	return f.MinLevel == "" && f.Component == "" && f.ShowID == "" && f.EventType == ""
}

// Apply returns the matching lines in order.
func (f Filter) Apply(lines []string) []string {
	out := lines[:0:0]
	for _, line := range lines {
		if f.Match(line) {
			out = append(out, line)
		}
	}
	return out
}

// Match reports whether a single log line passes the filter.
func (f Filter) Match(line string) bool {
	if f.empty() {
		return true
	}
	entry, ok := parseLine(line)
	if !ok {
		return false
	}
	if f.MinLevel != "" && levelRank(entry.level) < levelRank(f.MinLevel) {
		return false
	}
	if f.Component != "" && !strings.EqualFold(entry.fields[logging.FieldComponent], f.Component) {
		return false
	}
	if f.ShowID != "" && entry.fields[logging.FieldShowID] != f.ShowID {
		return false
	}
	if f.EventType != "" && entry.fields[logging.FieldEventType] != f.EventType {
		return false
	}
	return true
}

type lineEntry struct {
	level  string
	fields map[string]string
}

func parseLine(line string) (lineEntry, bool) {
	line = strings.TrimSpace(line)
	if strings.HasPrefix(line, "{") {
		return parseJSONLine(line)
	}
	return parseConsoleLine(line)
}

func parseJSONLine(line string) (lineEntry, bool) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return lineEntry{}, false
	}
	entry := lineEntry{fields: make(map[string]string, len(raw))}
	for key, value := range raw {
		switch v := value.(type) {
		case string:
			entry.fields[key] = v
		case float64:
			entry.fields[key] = strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	entry.level = entry.fields["level"]
	return entry, true
}

// parseConsoleLine reads "<ts> <LEVEL> [component: ]message key=value ...".
// Quoted values that contain spaces are truncated at the first space.
func parseConsoleLine(line string) (lineEntry, bool) {
	tokens := strings.Fields(line)
	if len(tokens) < 3 {
		return lineEntry{}, false
	}
	entry := lineEntry{level: tokens[1], fields: map[string]string{}}
	if levelRank(entry.level) < 0 {
		return lineEntry{}, false
	}
	if component, ok := strings.CutSuffix(tokens[2], ":"); ok {
		entry.fields[logging.FieldComponent] = component
	}
	for _, token := range tokens[3:] {
		key, value, ok := strings.Cut(token, "=")
		if !ok || key == "" {
			continue
		}
		entry.fields[key] = strings.Trim(value, `"`)
	}
	return entry, true
}

func levelRank(level string) int {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return 0
	case "info":
		return 1
	case "warn", "warning":
		return 2
	case "error":
		return 3
	default:
		return -1
	}
}
