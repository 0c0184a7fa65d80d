package survey

import (
	"strconv"
	"strings"
	"time"
)

// EpochSentinel replaces any upstream timestamp that is empty or unparsable.
const EpochSentinel = "1970-01-01 00:00:00"

// TimestampLayout is the normalized form of every stored timestamp.
const TimestampLayout = "2006-01-02 15:04:05"

var timestampInputLayouts = []string{
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// NormalizeTimestamp reformats an upstream ISO-8601 timestamp to
// TimestampLayout in UTC. A trailing literal Z is stripped first. Empty input
// or a parse failure yields EpochSentinel; normalization never fails the
// caller.
func NormalizeTimestamp(raw string) string {
	trimmed := strings.TrimSuffix(strings.TrimSpace(raw), "Z")
	if trimmed == "" {
		return EpochSentinel
	}

	for _, layout := range timestampInputLayouts {
		if ts, err := time.Parse(layout, trimmed); err == nil {
			return ts.UTC().Format(TimestampLayout)
		}
	}
	return EpochSentinel
}

// ParseGeometry splits an upstream geometry string on whitespace and reads
// the first two tokens as latitude then longitude. Fewer than two tokens or
// any parse failure yields nil for both; the pair is never half-populated.
func ParseGeometry(raw string) (*float64, *float64) {
	tokens := strings.Fields(raw)
	if len(tokens) < 2 {
		return nil, nil
	}

	lat, err := strconv.ParseFloat(tokens[0], 64)
	if err != nil {
		return nil, nil
	}
	lon, err := strconv.ParseFloat(tokens[1], 64)
	if err != nil {
		return nil, nil
	}
	return &lat, &lon
}

// CanonicalStatus maps a stored status through the fixed vocabulary,
// defaulting to StatusNew for anything outside it.
func CanonicalStatus(status string) string {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case StatusOpen:
		return StatusOpen
	case StatusWaiting:
		return StatusWaiting
	case StatusFixed:
		return StatusFixed
	default:
		return StatusNew
	}
}

// TextOrDefault returns the default when upstream omitted the field.
func TextOrDefault(value *string, def string) string {
	if value == nil || *value == "" {
		return def
	}
	return *value
}
