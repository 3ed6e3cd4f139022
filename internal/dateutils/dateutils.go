// Package dateutils provides the date parsing and calendar arithmetic used by
// the transaction sources and the baseline builder.
package dateutils

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Date layouts accepted for transaction dates.
const (
	DateLayoutISO      = "2006-01-02"
	DateLayoutFull     = "2006-01-02 15:04:05"
	DateLayoutEuropean = "02.01.2006"
)

// CommonFormats is the ordered list of layouts ParseDate tries.
var CommonFormats = []string{
	DateLayoutISO,
	DateLayoutFull,
	time.RFC3339,
	DateLayoutEuropean,
	"2006/01/02",
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// ParseDate parses a date string using the first matching layout in
// CommonFormats. The result is truncated to midnight UTC.
func ParseDate(dateStr string) (time.Time, error) {
	cleaned := CleanDateString(dateStr)
	if cleaned == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	for _, format := range CommonFormats {
		if t, err := time.Parse(format, cleaned); err == nil {
			return StartOfDay(t), nil
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse date: %s", dateStr)
}

// CleanDateString trims the string and collapses internal whitespace.
func CleanDateString(dateStr string) string {
	return whitespaceRun.ReplaceAllString(strings.TrimSpace(dateStr), " ")
}

// StartOfDay returns the calendar date of t at midnight UTC.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// EndOfMonth returns the last day of the month for a given date.
func EndOfMonth(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, date.Location()).AddDate(0, 1, -1)
}

// SubtractMonths moves date back by n calendar months. When the target month
// is shorter, the day is clamped to its last day (May 31 minus 3 months is
// February 28 or 29), unlike time.AddDate which would roll into March.
func SubtractMonths(date time.Time, n int) time.Time {
	firstOfTarget := time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, date.Location()).AddDate(0, -n, 0)
	day := date.Day()
	if last := EndOfMonth(firstOfTarget).Day(); day > last {
		day = last
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day,
		date.Hour(), date.Minute(), date.Second(), date.Nanosecond(), date.Location())
}

// FormatISO formats a date as YYYY-MM-DD, or "" for the zero time.
func FormatISO(date time.Time) string {
	if date.IsZero() {
		return ""
	}
	return date.Format(DateLayoutISO)
}
