package store

import (
	"fmt"
	"strings"
	"testing"

	"github.com/loadboard/loadboard/pkg/series"
	"github.com/shopspring/decimal"
)

// dayLines builds 24 hourly records for 2024-01-01 with load=100 each.
func dayLines() []string {
	lines := make([]string, 0, 24)
	for hour := 0; hour < 24; hour++ {
		lines = append(lines, fmt.Sprintf("2024-01-01 %02d:00:00,100,0,0,0,25,20,80,0,180,3,1012,2,95", hour))
	}
	return lines
}

func snapshotFromLines(t *testing.T, lines []string) Snapshot {
	t.Helper()
	data := series.DefaultHeader + "\n" + strings.Join(lines, "\n") + "\n"
	return parseSnapshot([]byte(data))
}

func mkUpdate(ts string, load, fcst string) series.Update {
	return series.Update{
		Timestamp:      ts,
		Load:           decimal.RequireFromString(load),
		ForecastedLoad: decimal.RequireFromString(fcst),
	}
}

func TestReconcile_UpdateInPlace(t *testing.T) {
	snap := snapshotFromLines(t, dayLines())
	updates := KeyUpdates([]series.Update{mkUpdate("2024-01-01 05:00:00", "150", "140")})

	res := Reconcile(snap, updates)

	if res.Updated != 1 || res.Created != 0 {
		t.Fatalf("Updated=%d Created=%d, want 1/0", res.Updated, res.Created)
	}
	if len(res.Rows) != 24 {
		t.Fatalf("Expected 24 rows, got %d", len(res.Rows))
	}

	for _, row := range res.Rows {
		if row.RawTimestamp() == "2024-01-01 05:00:00" {
			load, _ := row.Load()
			fcst, _ := row.ForecastedLoad()
			if load.String() != "150" || fcst.String() != "140" {
				t.Errorf("Updated row = %q", row.Line())
			}
		} else if !strings.Contains(row.Line(), ",100,") {
			t.Errorf("Untargeted row changed: %q", row.Line())
		}
	}
}

func TestReconcile_CreatesMissingTimestamp(t *testing.T) {
	snap := snapshotFromLines(t, dayLines())
	updates := KeyUpdates([]series.Update{mkUpdate("2024-01-02 00:00:00", "120", "118")})

	res := Reconcile(snap, updates)

	if res.Updated != 0 || res.Created != 1 {
		t.Fatalf("Updated=%d Created=%d, want 0/1", res.Updated, res.Created)
	}

	last := res.Rows[len(res.Rows)-1]
	if last.RawTimestamp() != "2024-01-02 00:00:00" {
		t.Errorf("New row not sorted after 2024-01-01 23:00:00, last = %q", last.RawTimestamp())
	}
	if last.Line() != "2024-01-02 00:00:00,120,0,0,0,0,0,0,0,0,0,0,0,118" {
		t.Errorf("Synthesized row = %q", last.Line())
	}
}

func TestReconcile_Idempotent(t *testing.T) {
	snap := snapshotFromLines(t, dayLines())
	batch := []series.Update{
		mkUpdate("2024-01-01 03:00:00", "111", "112"),
		mkUpdate("2024-01-01 07:00:00", "113", "114"),
	}

	first := Reconcile(snap, KeyUpdates(batch))
	second := Reconcile(Snapshot{Header: first.Header, Rows: first.Rows}, KeyUpdates(batch))

	if second.Updated != len(batch) || second.Created != 0 {
		t.Errorf("Second pass Updated=%d Created=%d, want %d/0", second.Updated, second.Created, len(batch))
	}
	for i := range first.Rows {
		if first.Rows[i].Line() != second.Rows[i].Line() {
			t.Errorf("Row %d differs between passes: %q vs %q", i, first.Rows[i].Line(), second.Rows[i].Line())
		}
	}
}

func TestReconcile_Conservation(t *testing.T) {
	snap := snapshotFromLines(t, dayLines())
	batch := []series.Update{
		mkUpdate("2024-01-01 01:00:00", "1", "1"),  // existing
		mkUpdate("2024-01-02 05:00:00", "2", "2"),  // new
		mkUpdate("2024-01-02 06:00:00", "3", "3"),  // new
		mkUpdate("2024-01-01 23:00:00", "4", "4"),  // existing
	}

	res := Reconcile(snap, KeyUpdates(batch))
	if res.Updated+res.Created != len(batch) {
		t.Errorf("Updated+Created = %d, want %d", res.Updated+res.Created, len(batch))
	}
}

func TestReconcile_OrderIndependent(t *testing.T) {
	batch := []series.Update{
		mkUpdate("2024-01-01 01:00:00", "1", "1"),
		mkUpdate("2024-01-01 05:00:00", "2", "2"),
		mkUpdate("2024-01-02 03:00:00", "3", "3"),
	}
	reversed := []series.Update{batch[2], batch[1], batch[0]}

	a := Reconcile(snapshotFromLines(t, dayLines()), KeyUpdates(batch))
	b := Reconcile(snapshotFromLines(t, dayLines()), KeyUpdates(reversed))

	if len(a.Rows) != len(b.Rows) {
		t.Fatalf("Row counts differ: %d vs %d", len(a.Rows), len(b.Rows))
	}
	for i := range a.Rows {
		if a.Rows[i].Line() != b.Rows[i].Line() {
			t.Errorf("Row %d depends on batch order: %q vs %q", i, a.Rows[i].Line(), b.Rows[i].Line())
		}
	}
}

func TestReconcile_EmptyBatchIsNoOp(t *testing.T) {
	snap := snapshotFromLines(t, dayLines())
	res := Reconcile(snap, nil)

	if res.Updated != 0 || res.Created != 0 {
		t.Errorf("Updated=%d Created=%d, want 0/0", res.Updated, res.Created)
	}
	if len(res.Rows) != len(snap.Rows) {
		t.Errorf("Row count changed: %d vs %d", len(res.Rows), len(snap.Rows))
	}
	for i := range res.Rows {
		if res.Rows[i].Line() != snap.Rows[i].Line() {
			t.Errorf("Row %d changed in no-op: %q", i, res.Rows[i].Line())
		}
	}
}

func TestReconcile_EmptyStoreAllCreates(t *testing.T) {
	snap := Snapshot{Header: series.DefaultHeader}
	batch := []series.Update{
		mkUpdate("2024-01-01 00:00:00", "10", "11"),
		mkUpdate("2024-01-01 01:00:00", "12", "13"),
	}

	res := Reconcile(snap, KeyUpdates(batch))
	if res.Updated != 0 || res.Created != 2 {
		t.Errorf("Updated=%d Created=%d, want 0/2", res.Updated, res.Created)
	}
	if len(res.Rows) != 2 {
		t.Errorf("Expected 2 rows, got %d", len(res.Rows))
	}
}

func TestReconcile_UnparseableRowsSortLast(t *testing.T) {
	lines := []string{
		"garbage-one,1,0,0,0,0,0,0,0,0,0,0,0,1",
		"2024-01-01 10:00:00,100,0,0,0,0,0,0,0,0,0,0,0,95",
		"garbage-two,2,0,0,0,0,0,0,0,0,0,0,0,2",
		"2024-01-01 02:00:00,100,0,0,0,0,0,0,0,0,0,0,0,95",
	}
	snap := snapshotFromLines(t, lines)

	res := Reconcile(snap, nil)

	got := make([]string, len(res.Rows))
	for i, row := range res.Rows {
		got[i] = row.RawTimestamp()
	}
	want := []string{"2024-01-01 02:00:00", "2024-01-01 10:00:00", "garbage-one", "garbage-two"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Order = %v, want %v", got, want)
		}
	}
}

func TestParseSnapshot_SkipsMalformedLines(t *testing.T) {
	lines := append(dayLines(), "2024-01-01 09:30:00,1,2,3,4") // 5 fields only
	snap := snapshotFromLines(t, lines)

	if len(snap.Rows) != 24 {
		t.Errorf("Expected malformed line dropped, got %d rows", len(snap.Rows))
	}
	if len(snap.Skipped) != 1 {
		t.Fatalf("Expected 1 skipped line warning, got %d", len(snap.Skipped))
	}
	if !strings.Contains(snap.Skipped[0].Reason, "too few fields") {
		t.Errorf("Skip reason = %q", snap.Skipped[0].Reason)
	}
}

func TestParseSnapshot_EmptyFileSynthesizesHeader(t *testing.T) {
	snap := parseSnapshot(nil)
	if snap.Header != series.DefaultHeader {
		t.Errorf("Header = %q", snap.Header)
	}
	if len(snap.Rows) != 0 {
		t.Errorf("Expected no rows, got %d", len(snap.Rows))
	}
}

func TestParseSnapshot_PreservesCustomHeader(t *testing.T) {
	custom := series.DefaultHeader + ",custom_col"
	snap := parseSnapshot([]byte(custom + "\n"))
	if snap.Header != custom {
		t.Errorf("Header not preserved verbatim: %q", snap.Header)
	}
}
