// Package format renders catalogue values for people: durations, counts,
// dates, tags, and the short failure messages shown after a failed action.
package format

import (
	"fmt"
	"strings"
	"time"
)

const (
	// NoDuration is shown for content without a length
	NoDuration = "—"
	// NoValue is shown for missing counts, dates and tags
	NoValue = "--"

	DefaultDescriptionLength = 100
)

// FormatDuration renders length in its units. Seconds become m:ss with
// unbounded minutes; other units are printed verbatim.
func FormatDuration(length *int, units *string) string {
	if length == nil {
		return NoDuration
	}
	if units == nil {
		return fmt.Sprintf("%d", *length)
	}
	if *units == "seconds" {
		return fmt.Sprintf("%d:%02d", *length/60, *length%60)
	}
	return fmt.Sprintf("%d %s", *length, *units)
}

// FormatCount abbreviates large counts: 999, 1.2K, 3.4M
func FormatCount(n *int64) string {
	if n == nil {
		return NoValue
	}

	v := *n
	switch {
	case v >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(v)/1_000_000)
	case v >= 1_000:
		return fmt.Sprintf("%.1fK", float64(v)/1_000)
	default:
		return fmt.Sprintf("%d", v)
	}
}

// FormatPublishDate renders an RFC 3339 timestamp as "Jan 2, 2006"
func FormatPublishDate(iso *string) string {
	if iso == nil || *iso == "" {
		return NoValue
	}
	t, err := time.Parse(time.RFC3339, *iso)
	if err != nil {
		return NoValue
	}
	return t.UTC().Format("Jan 2, 2006")
}

// FormatTags joins tags with a comma
func FormatTags(tags []string) string {
	if len(tags) == 0 {
		return NoValue
	}
	return strings.Join(tags, ", ")
}

// TruncateDescription cuts s to max runes and appends an ellipsis. An empty
// description renders as NoValue. max <= 0 uses DefaultDescriptionLength.
func TruncateDescription(s string, max int) string {
	if s == "" {
		return NoValue
	}
	if max <= 0 {
		max = DefaultDescriptionLength
	}
	return Truncate(s, max)
}

// Truncate cuts s to max runes and appends an ellipsis. Empty input stays
// empty.
func Truncate(s string, max int) string {
	r := []rune(s)
	if max <= 0 || len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}
