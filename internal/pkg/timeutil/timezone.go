package timeutil

import (
	"strconv"
	"time"
)

const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04"
)

// loadLocation resolves timezone, falling back to UTC when it is empty or
// invalid.
func loadLocation(timezone string) *time.Location {
	if timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// FromMillis converts a unix millisecond timestamp as used by the blog API.
// Non-positive values yield the zero time.
func FromMillis(ms int64) time.Time {
	if ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

// FormatMillis formats a unix millisecond timestamp in the user's timezone.
// An unset timestamp formats as the empty string.
func FormatMillis(ms int64, timezone, layout string) string {
	t := FromMillis(ms)
	if t.IsZero() {
		return ""
	}
	if layout == "" {
		layout = DateLayout
	}
	return t.In(loadLocation(timezone)).Format(layout)
}

// ConvertToUserTimezone converts a time to the user's timezone
func ConvertToUserTimezone(t time.Time, timezone string) time.Time {
	return t.In(loadLocation(timezone))
}

// IsValidTimezone checks if a timezone string is valid
func IsValidTimezone(timezone string) bool {
	if timezone == "" {
		return false
	}
	_, err := time.LoadLocation(timezone)
	return err == nil
}

// Ago renders a coarse relative time such as "3h ago" for list views.
func Ago(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return formatUnit(int(d/time.Minute), "m")
	case d < 24*time.Hour:
		return formatUnit(int(d/time.Hour), "h")
	case d < 30*24*time.Hour:
		return formatUnit(int(d/(24*time.Hour)), "d")
	default:
		return t.Format(DateLayout)
	}
}

func formatUnit(n int, unit string) string {
	return strconv.Itoa(n) + unit + " ago"
}
