package series

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

const sampleLine = "2024-01-01 05:00:00,100,0,0,0,25.1,20.3,80,0,180,3.4,1012,2,95.5"

func TestParseLine(t *testing.T) {
	row, err := ParseLine(sampleLine)
	if err != nil {
		t.Fatalf("ParseLine failed: %v", err)
	}

	if row.RawTimestamp() != "2024-01-01 05:00:00" {
		t.Errorf("RawTimestamp = %q", row.RawTimestamp())
	}

	ts, ok := row.Time()
	if !ok {
		t.Fatal("Expected parseable timestamp")
	}
	if !ts.Equal(time.Date(2024, 1, 1, 5, 0, 0, 0, time.UTC)) {
		t.Errorf("Parsed timestamp = %v", ts)
	}

	load, ok := row.Load()
	if !ok || load.String() != "100" {
		t.Errorf("Load = %v ok=%v", load, ok)
	}
	fcst, ok := row.ForecastedLoad()
	if !ok || fcst.String() != "95.5" {
		t.Errorf("ForecastedLoad = %v ok=%v", fcst, ok)
	}
}

func TestParseLine_TooFewFields(t *testing.T) {
	_, err := ParseLine("2024-01-01 05:00:00,100,0,0,0")
	if !errors.Is(err, ErrTooFewFields) {
		t.Errorf("Expected ErrTooFewFields, got %v", err)
	}
}

func TestParseLine_UnparseableTimestamp(t *testing.T) {
	line := "not-a-timestamp," + strings.TrimPrefix(sampleLine, "2024-01-01 05:00:00,")
	row, err := ParseLine(line)
	if err != nil {
		t.Fatalf("Rows with bad timestamps must still parse: %v", err)
	}
	if _, ok := row.Time(); ok {
		t.Error("Expected tsOK=false for unparseable timestamp")
	}
	if row.Line() != line {
		t.Errorf("Line round-trip changed content: %q", row.Line())
	}
}

func TestApplyUpdate_TouchesOnlyMutableColumns(t *testing.T) {
	row, err := ParseLine(sampleLine)
	if err != nil {
		t.Fatalf("ParseLine failed: %v", err)
	}

	row.ApplyUpdate(Update{
		Timestamp:      "2024-01-01 05:00:00",
		Load:           decimal.RequireFromString("150"),
		ForecastedLoad: decimal.RequireFromString("140"),
		IsHoliday:      1,
		HolidayType:    2,
		NationalEvent:  3,
	})

	want := "2024-01-01 05:00:00,150,1,2,3,25.1,20.3,80,0,180,3.4,1012,2,140"
	if row.Line() != want {
		t.Errorf("Line = %q, want %q", row.Line(), want)
	}
}

func TestApplyUpdate_PreservesExtraColumns(t *testing.T) {
	line := sampleLine + ",extra1,extra2"
	row, err := ParseLine(line)
	if err != nil {
		t.Fatalf("ParseLine failed: %v", err)
	}

	row.ApplyUpdate(Update{
		Timestamp:      "2024-01-01 05:00:00",
		Load:           decimal.RequireFromString("150"),
		ForecastedLoad: decimal.RequireFromString("140"),
	})

	if !strings.HasSuffix(row.Line(), ",extra1,extra2") {
		t.Errorf("Extra columns dropped: %q", row.Line())
	}
}

func TestNewRow(t *testing.T) {
	row := NewRow(Update{
		Timestamp:      "2024-01-02 00:00:00",
		Load:           decimal.RequireFromString("120.5"),
		ForecastedLoad: decimal.RequireFromString("118"),
		IsHoliday:      1,
		HolidayType:    0,
		NationalEvent:  0,
	})

	want := "2024-01-02 00:00:00,120.5,1,0,0,0,0,0,0,0,0,0,0,118"
	if row.Line() != want {
		t.Errorf("Line = %q, want %q", row.Line(), want)
	}
	if _, ok := row.Time(); !ok {
		t.Error("Expected parseable timestamp on synthesized row")
	}
}

func TestLoad_MissingValues(t *testing.T) {
	line := "2024-01-01 05:00:00,,0,0,0,0,0,0,0,0,0,0,0,abc"
	row, err := ParseLine(line)
	if err != nil {
		t.Fatalf("ParseLine failed: %v", err)
	}
	if _, ok := row.Load(); ok {
		t.Error("Expected ok=false for empty load")
	}
	if _, ok := row.ForecastedLoad(); ok {
		t.Error("Expected ok=false for non-numeric forecast")
	}
}

func TestColumnNames(t *testing.T) {
	names := ColumnNames(DefaultHeader)
	if len(names) != MinFields {
		t.Fatalf("Expected %d names, got %d", MinFields, len(names))
	}
	if names[0] != "date_time" || names[13] != "forecasted_load" {
		t.Errorf("Unexpected column names: %v", names)
	}
}
