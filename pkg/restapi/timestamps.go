package restapi

import (
	"regexp"
	"time"
)

var timestampPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}`)

// timestampLayouts are tried in order; naive layouts are read as UTC.
// Fractional seconds are accepted by every layout.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05",
}

// QueryTimeLayout formats time parameters of query strings.
const QueryTimeLayout = "2006-01-02T15:04:05"

func parseTimestamp(s string) (time.Time, bool) {
	if !timestampPattern.MatchString(s) {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// convertTimestamps walks a decoded JSON value and replaces timestamp
// strings in place. Maps and slices are modified; the (possibly new) value
// is returned for the scalar case.
func convertTimestamps(v interface{}) interface{} {
	switch x := v.(type) {
	case map[string]interface{}:
		for k, item := range x {
			x[k] = convertTimestamps(item)
		}
		return x
	case []interface{}:
		for i, item := range x {
			x[i] = convertTimestamps(item)
		}
		return x
	case string:
		if t, ok := parseTimestamp(x); ok {
			return t
		}
		return x
	default:
		return v
	}
}
