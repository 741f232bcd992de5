package adapters

import (
	"strings"
	"time"
)

// resolvedAtLayouts covers the SQLite strftime default plus the shapes
// written by datetime() and by Go's time.String.
var resolvedAtLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05 -0700 MST",
	"2006-01-02 15:04:05",
}

// parseResolvedAt yields the zero time for empty or unknown input. Retention
// never counts a zero time as recent.
func parseResolvedAt(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	for _, layout := range resolvedAtLayouts {
		parsed, err := time.Parse(layout, value)
		if err == nil {
			return parsed.UTC()
		}
	}
	return time.Time{}
}
