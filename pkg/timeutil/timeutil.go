// Package timeutil normalizes the (date, hour) pairs used throughout the
// dashboard into canonical hour-aligned UTC instants.
package timeutil

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidDateFormat is returned when a date string is not YYYY-MM-DD.
var ErrInvalidDateFormat = errors.New("invalid date format, expected YYYY-MM-DD")

// ErrInvalidHour is returned when an hour falls outside 0..23.
var ErrInvalidHour = errors.New("hour must be between 0 and 23")

const (
	dateLayout = "2006-01-02"

	// TimestampLayout is the canonical on-disk timestamp format.
	TimestampLayout = "2006-01-02 15:04:05"
)

// timestampLayouts are the accepted read-side formats, tried in order. The
// feed historically mixed plain timestamps with +00:00 suffixed ones.
var timestampLayouts = []string{
	TimestampLayout,
	"2006-01-02 15:04:05-07:00",
	time.RFC3339,
	dateLayout,
}

// HourlyUTC returns the hour-aligned UTC instant for the given calendar date
// and hour. Minutes, seconds and sub-second fields are always zero.
func HourlyUTC(date string, hour int) (time.Time, error) {
	if hour < 0 || hour > 23 {
		return time.Time{}, fmt.Errorf("%w: %d", ErrInvalidHour, hour)
	}
	day, err := time.Parse(dateLayout, date)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDateFormat, date)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, time.UTC), nil
}

// PreviousHour returns the instant immediately preceding (date, hour). For
// hour 0 that is the previous calendar date at 23:00. The forecast path uses
// this to locate the boundary between known history and the horizon.
func PreviousHour(date string, hour int) (time.Time, error) {
	ts, err := HourlyUTC(date, hour)
	if err != nil {
		return time.Time{}, err
	}
	return ts.Add(-time.Hour), nil
}

// ParseTimestamp parses a row timestamp in any of the accepted formats,
// normalized to UTC.
func ParseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", s)
}

// FormatTimestamp renders an instant in the canonical on-disk format.
func FormatTimestamp(ts time.Time) string {
	return ts.UTC().Format(TimestampLayout)
}
