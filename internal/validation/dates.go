package validation

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrUnparseableDate is returned when an applied date matches none of the
// accepted layouts.
var ErrUnparseableDate = errors.New("unable to parse date")

// dateLayouts are tried in order. Month-first wins for ambiguous slash dates.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
	"2006-01-02 15:04:05",
	"01/02/2006",
	"02/01/2006",
}

// ParseDate parses an applied date written in ISO-8601 or one of the common
// locale layouts. Values without a zone are read as UTC.
func ParseDate(value string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, fmt.Errorf("%w: empty value", ErrUnparseableDate)
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrUnparseableDate, trimmed)
}

// DaysBetween counts whole days from start to end. A zero start yields 0.
func DaysBetween(start, end time.Time) int {
	if start.IsZero() || end.Before(start) {
		return 0
	}
	return int(end.Sub(start).Hours() / 24)
}

// FormatAge renders a day count the way list output shows it.
func FormatAge(days int) string {
	switch {
	case days <= 0:
		return "Today"
	case days == 1:
		return "1 day ago"
	case days < 7:
		return fmt.Sprintf("%d days ago", days)
	case days < 30:
		return plural(days/7, "week")
	case days < 365:
		return plural(days/30, "month")
	default:
		return plural(days/365, "year")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}
