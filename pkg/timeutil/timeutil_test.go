package timeutil

import (
	"errors"
	"testing"
	"time"
)

func TestHourlyUTC(t *testing.T) {
	ts, err := HourlyUTC("2024-01-01", 5)
	if err != nil {
		t.Fatalf("HourlyUTC failed: %v", err)
	}

	want := time.Date(2024, 1, 1, 5, 0, 0, 0, time.UTC)
	if !ts.Equal(want) {
		t.Errorf("Expected %v, got %v", want, ts)
	}
	if ts.Minute() != 0 || ts.Second() != 0 || ts.Nanosecond() != 0 {
		t.Errorf("Instant not hour-aligned: %v", ts)
	}
}

func TestHourlyUTC_InvalidDate(t *testing.T) {
	cases := []string{"01-01-2024", "2024/01/01", "not-a-date", "2024-13-40"}
	for _, date := range cases {
		_, err := HourlyUTC(date, 0)
		if !errors.Is(err, ErrInvalidDateFormat) {
			t.Errorf("Expected ErrInvalidDateFormat for %q, got %v", date, err)
		}
	}
}

func TestHourlyUTC_InvalidHour(t *testing.T) {
	for _, hour := range []int{-1, 24, 100} {
		_, err := HourlyUTC("2024-01-01", hour)
		if !errors.Is(err, ErrInvalidHour) {
			t.Errorf("Expected ErrInvalidHour for %d, got %v", hour, err)
		}
	}
}

func TestPreviousHour(t *testing.T) {
	ts, err := PreviousHour("2024-01-01", 5)
	if err != nil {
		t.Fatalf("PreviousHour failed: %v", err)
	}
	want := time.Date(2024, 1, 1, 4, 0, 0, 0, time.UTC)
	if !ts.Equal(want) {
		t.Errorf("Expected %v, got %v", want, ts)
	}
}

func TestPreviousHour_MidnightRollsBack(t *testing.T) {
	ts, err := PreviousHour("2024-01-01", 0)
	if err != nil {
		t.Fatalf("PreviousHour failed: %v", err)
	}
	want := time.Date(2023, 12, 31, 23, 0, 0, 0, time.UTC)
	if !ts.Equal(want) {
		t.Errorf("Expected previous day 23:00, got %v", ts)
	}
}

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2024, 1, 1, 5, 0, 0, 0, time.UTC)

	cases := []string{
		"2024-01-01 05:00:00",
		"2024-01-01 05:00:00+00:00",
		"2024-01-01T05:00:00Z",
	}
	for _, s := range cases {
		ts, err := ParseTimestamp(s)
		if err != nil {
			t.Errorf("ParseTimestamp(%q) failed: %v", s, err)
			continue
		}
		if !ts.Equal(want) {
			t.Errorf("ParseTimestamp(%q) = %v, want %v", s, ts, want)
		}
	}
}

func TestParseTimestamp_Unparseable(t *testing.T) {
	if _, err := ParseTimestamp("garbage"); err == nil {
		t.Error("Expected error for unparseable timestamp")
	}
}

func TestFormatTimestamp(t *testing.T) {
	ts := time.Date(2024, 1, 1, 5, 0, 0, 0, time.UTC)
	if got := FormatTimestamp(ts); got != "2024-01-01 05:00:00" {
		t.Errorf("FormatTimestamp = %q", got)
	}
}
