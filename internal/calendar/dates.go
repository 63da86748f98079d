// Package calendar is the in-process plan calendar engine: canonical date
// strings, month grid generation, the per-date entry index and the day/macro
// aggregations. Everything here is pure; storage and transport live elsewhere.
package calendar

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the canonical YYYY-MM-DD form used as the sole key for
// date-based grouping. Plain local dates, never timestamps: comparing
// timestamps across timezones shifts entries onto neighboring days.
const DateLayout = "2006-01-02"

// DateString converts t to its canonical date string in t's own location.
func DateString(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate parses a canonical date string into a UTC-midnight time.
// The returned time is only ever used for calendar arithmetic, so the
// concrete location is irrelevant as long as it is consistent.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// ValidDate reports whether s is a well-formed canonical date string.
func ValidDate(s string) bool {
	_, err := ParseDate(s)
	return err == nil
}

// ParseWeekday maps a grid start name to its weekday. Only monday and sunday
// are supported as week starts.
func ParseWeekday(s string) (time.Weekday, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "monday":
		return time.Monday, nil
	case "sunday":
		return time.Sunday, nil
	default:
		return time.Monday, fmt.Errorf("unsupported week start %q", s)
	}
}
