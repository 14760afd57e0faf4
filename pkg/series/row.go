// Package series models one hourly observation of the load feed and the
// patches applied to it. Rows keep their raw delimited fields so columns the
// dashboard never touches (weather features, trailing extras) survive a
// read-modify-write cycle byte for byte.
package series

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/loadboard/loadboard/pkg/timeutil"
	"github.com/shopspring/decimal"
)

// DefaultHeader names the 14 columns of the backing store.
const DefaultHeader = "date_time,load,is_holiday,holiday_type,national_event_type,temp,dwpt,rhum,prcp,wdir,wspd,pres,coco,forecasted_load"

// MinFields is the minimum column count for a line to be considered a record.
const MinFields = 14

// Column positions on the wire. All field access goes through named
// accessors; these constants are the single place the layout is spelled out.
const (
	colTimestamp = 0
	colLoad      = 1
	colIsHoliday = 2
	colHolType   = 3
	colNatEvent  = 4
	colForecast  = 13
)

// ErrTooFewFields marks a line with fewer than MinFields columns.
var ErrTooFewFields = errors.New("too few fields")

// Row is one observation keyed by its raw timestamp text. The parsed
// timestamp is kept alongside; rows whose timestamp does not parse are still
// carried, they just sort after everything else.
type Row struct {
	fields []string
	ts     time.Time
	tsOK   bool
}

// ParseLine splits a store line into a Row. Lines with fewer than MinFields
// columns are rejected with ErrTooFewFields; an unparseable timestamp is not
// an error, the row is simply flagged as unsortable.
func ParseLine(line string) (Row, error) {
	fields := strings.Split(line, ",")
	if len(fields) < MinFields {
		return Row{}, fmt.Errorf("%w: got %d, want at least %d", ErrTooFewFields, len(fields), MinFields)
	}

	r := Row{fields: fields}
	if ts, err := timeutil.ParseTimestamp(fields[colTimestamp]); err == nil {
		r.ts = ts
		r.tsOK = true
	}
	return r, nil
}

// Update is one caller-supplied patch for a single hourly timestamp.
type Update struct {
	Timestamp      string
	Load           decimal.Decimal
	ForecastedLoad decimal.Decimal
	IsHoliday      int
	HolidayType    int
	NationalEvent  int
}

// NewRow synthesizes a record for a timestamp that has no existing line.
// The weather passthrough columns default to 0.
func NewRow(u Update) Row {
	fields := make([]string, MinFields)
	fields[colTimestamp] = u.Timestamp
	fields[colLoad] = u.Load.String()
	fields[colIsHoliday] = strconv.Itoa(u.IsHoliday)
	fields[colHolType] = strconv.Itoa(u.HolidayType)
	fields[colNatEvent] = strconv.Itoa(u.NationalEvent)
	for i := colNatEvent + 1; i < colForecast; i++ {
		fields[i] = "0"
	}
	fields[colForecast] = u.ForecastedLoad.String()

	r := Row{fields: fields}
	if ts, err := timeutil.ParseTimestamp(u.Timestamp); err == nil {
		r.ts = ts
		r.tsOK = true
	}
	return r
}

// ApplyUpdate overwrites exactly the five mutable columns, leaving every
// other field untouched.
func (r *Row) ApplyUpdate(u Update) {
	r.fields[colLoad] = u.Load.String()
	r.fields[colIsHoliday] = strconv.Itoa(u.IsHoliday)
	r.fields[colHolType] = strconv.Itoa(u.HolidayType)
	r.fields[colNatEvent] = strconv.Itoa(u.NationalEvent)
	r.fields[colForecast] = u.ForecastedLoad.String()
}

// MaskLoad blanks the load column, marking the value as missing. The
// forecast path masks the horizon window before handing rows to the pipeline.
func (r *Row) MaskLoad() {
	r.fields[colLoad] = ""
}

// RawTimestamp returns the timestamp text exactly as stored. Matching against
// update keys happens on this raw text, not the parsed instant.
func (r Row) RawTimestamp() string {
	return r.fields[colTimestamp]
}

// Time returns the parsed timestamp and whether parsing succeeded.
func (r Row) Time() (time.Time, bool) {
	return r.ts, r.tsOK
}

// Load returns the load value; ok is false when the field is empty or not a
// number.
func (r Row) Load() (decimal.Decimal, bool) {
	return r.decimalField(colLoad)
}

// ForecastedLoad returns the forecasted load value; ok is false when the
// field is empty or not a number.
func (r Row) ForecastedLoad() (decimal.Decimal, bool) {
	return r.decimalField(colForecast)
}

// Categoricals returns the three day-level categorical fields, defaulting to
// zero when absent or malformed.
func (r Row) Categoricals() (isHoliday, holidayType, nationalEvent int) {
	isHoliday, _ = strconv.Atoi(r.fields[colIsHoliday])
	holidayType, _ = strconv.Atoi(r.fields[colHolType])
	nationalEvent, _ = strconv.Atoi(r.fields[colNatEvent])
	return isHoliday, holidayType, nationalEvent
}

// Fields returns a copy of the raw columns.
func (r Row) Fields() []string {
	out := make([]string, len(r.fields))
	copy(out, r.fields)
	return out
}

// Line serializes the row back to its delimited form.
func (r Row) Line() string {
	return strings.Join(r.fields, ",")
}

func (r Row) decimalField(i int) (decimal.Decimal, bool) {
	s := strings.TrimSpace(r.fields[i])
	if s == "" {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

// ColumnNames splits a header line into its column names.
func ColumnNames(header string) []string {
	names := strings.Split(header, ",")
	for i, n := range names {
		names[i] = strings.TrimSpace(n)
	}
	return names
}
