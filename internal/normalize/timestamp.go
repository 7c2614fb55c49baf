package normalize

import (
	"strconv"
	"strings"
	"time"
)

// minPlausible guards against zero or garbage epoch values that parse
// into valid-looking dates. Nothing tracked by this system predates it.
var minPlausible = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// isoLayouts cover ISO-8601 with and without a trailing zone marker.
// A missing zone means UTC.
var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// ParseTimestamp parses a raw timestamp candidate into a UTC instant.
// Accepted inputs are ISO-8601 strings and epoch seconds (number or
// numeric string). Anything else, and anything earlier than the
// plausibility floor, is rejected. Callers decide what rejection
// means: historical/aggregated reads drop the record; the ingest path
// stamps "now" because the write itself proves liveness.
func ParseTimestamp(raw any) (time.Time, bool) {
	switch v := raw.(type) {
	case float64:
		return sanitize(time.Unix(int64(v), 0))
	case int64:
		return sanitize(time.Unix(v, 0))
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return time.Time{}, false
		}
		if secs, err := strconv.ParseFloat(s, 64); err == nil {
			return sanitize(time.Unix(int64(secs), 0))
		}
		for _, layout := range isoLayouts {
			if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
				return sanitize(t)
			}
		}
	}
	return time.Time{}, false
}

func sanitize(t time.Time) (time.Time, bool) {
	t = t.UTC()
	if t.Before(minPlausible) {
		return time.Time{}, false
	}
	return t, true
}
