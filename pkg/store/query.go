package store

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/loadboard/loadboard/pkg/series"
	"github.com/loadboard/loadboard/pkg/timeutil"
	"github.com/shopspring/decimal"
)

// Record is one row keyed by column name, ready for JSON serialization.
// Numeric fields become numbers, empty fields become null.
type Record map[string]interface{}

// Range returns all records whose timestamp falls inside [start, end],
// sorted ascending. Rows with unparseable timestamps are excluded from
// read-side views.
func (s *Store) Range(start, end time.Time) ([]Record, error) {
	snap, err := s.Read()
	if err != nil {
		return nil, err
	}

	names := series.ColumnNames(snap.Header)
	records := make([]Record, 0)
	type tsRecord struct {
		ts  time.Time
		rec Record
	}
	var matched []tsRecord

	for _, row := range snap.Rows {
		ts, ok := row.Time()
		if !ok || ts.Before(start) || ts.After(end) {
			continue
		}
		matched = append(matched, tsRecord{ts: ts, rec: rowRecord(row, names)})
	}

	sort.SliceStable(matched, func(i, j int) bool { return matched[i].ts.Before(matched[j].ts) })
	for _, m := range matched {
		records = append(records, m.rec)
	}
	return records, nil
}

// HourPoint is the data-input view of a single hour: the editable fields
// only, with missing values rendered as zero.
type HourPoint struct {
	Timestamp         string  `json:"timestamp"`
	Load              float64 `json:"load"`
	ForecastedLoad    float64 `json:"forecasted_load"`
	IsHoliday         int     `json:"is_holiday"`
	HolidayType       int     `json:"holiday_type"`
	NationalEventType int     `json:"national_event_type"`
}

// Day returns all 24 hourly slots for one calendar day, zero-filled where the
// store has no record. The categorical fields are taken from the first record
// of the day, matching the assumption that they are constant per day. A
// missing store yields a fully zero-filled day rather than an error.
func (s *Store) Day(day time.Time) []HourPoint {
	snap, err := s.Read()
	if err != nil && !errors.Is(err, ErrStoreNotFound) {
		snap = Snapshot{}
	}

	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	byHour := make(map[int]series.Row, 24)
	var isHoliday, holidayType, nationalEvent int
	haveCategoricals := false

	for _, row := range snap.Rows {
		ts, ok := row.Time()
		if !ok || !sameDay(ts, dayStart) {
			continue
		}
		if !haveCategoricals {
			isHoliday, holidayType, nationalEvent = row.Categoricals()
			haveCategoricals = true
		}
		if _, dup := byHour[ts.Hour()]; !dup {
			byHour[ts.Hour()] = row
		}
	}

	points := make([]HourPoint, 0, 24)
	for hour := 0; hour < 24; hour++ {
		ts := dayStart.Add(time.Duration(hour) * time.Hour)
		p := HourPoint{
			Timestamp:         timeutil.FormatTimestamp(ts) + "+00:00",
			IsHoliday:         isHoliday,
			HolidayType:       holidayType,
			NationalEventType: nationalEvent,
		}
		if row, ok := byHour[hour]; ok {
			if load, ok := row.Load(); ok {
				p.Load, _ = load.Float64()
			}
			if fcst, ok := row.ForecastedLoad(); ok {
				p.ForecastedLoad, _ = fcst.Float64()
			}
		}
		points = append(points, p)
	}
	return points
}

// MissingPoint is one unhealthy hourly slot in a health scan.
type MissingPoint struct {
	Timestamp string `json:"timestamp"`
	Reason    string `json:"reason"`
}

// HealthReport summarizes data completeness over a date range.
type HealthReport struct {
	MissingCount  int            `json:"missing_count"`
	MissingPoints []MissingPoint `json:"missing_points"`
}

// HealthScan checks every expected hourly point between the start and end
// days (inclusive). A point is unhealthy when no record exists or when load
// or forecasted load is zero/null.
func (s *Store) HealthScan(start, end time.Time) (HealthReport, error) {
	snap, err := s.Read()
	if err != nil {
		return HealthReport{}, err
	}

	byTime := make(map[time.Time]series.Row)
	for _, row := range snap.Rows {
		ts, ok := row.Time()
		if !ok {
			continue
		}
		if _, dup := byTime[ts]; !dup {
			byTime[ts] = row
		}
	}

	report := HealthReport{MissingPoints: []MissingPoint{}}
	dayStart := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	endFull := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)

	for ts := dayStart; ts.Before(endFull); ts = ts.Add(time.Hour) {
		row, exists := byTime[ts]
		if !exists {
			report.MissingPoints = append(report.MissingPoints, MissingPoint{
				Timestamp: timeutil.FormatTimestamp(ts),
				Reason:    "Missing record",
			})
			continue
		}

		var reasons []string
		if load, ok := row.Load(); !ok || load.IsZero() {
			reasons = append(reasons, "Zero/Null Load")
		}
		if fcst, ok := row.ForecastedLoad(); !ok || fcst.IsZero() {
			reasons = append(reasons, "Zero/Null Forecast")
		}
		if len(reasons) > 0 {
			report.MissingPoints = append(report.MissingPoints, MissingPoint{
				Timestamp: timeutil.FormatTimestamp(ts),
				Reason:    strings.Join(reasons, ", "),
			})
		}
	}

	report.MissingCount = len(report.MissingPoints)
	return report, nil
}

func rowRecord(row series.Row, names []string) Record {
	rec := make(Record, len(names))
	fields := row.Fields()
	for i, name := range names {
		if i >= len(fields) {
			break
		}
		rec[name] = fieldValue(fields[i], i)
	}
	return rec
}

// fieldValue renders a raw column for JSON: the timestamp column stays text,
// numeric columns become numbers, empty columns become null.
func fieldValue(raw string, col int) interface{} {
	if col == 0 {
		return raw
	}
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	if d, err := decimal.NewFromString(trimmed); err == nil {
		f, _ := d.Float64()
		return f
	}
	return raw
}

func sameDay(ts, dayStart time.Time) bool {
	return ts.Year() == dayStart.Year() && ts.Month() == dayStart.Month() && ts.Day() == dayStart.Day()
}
