package server

import (
	"encoding/csv"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/loadboard/loadboard/pkg/httpx"
	"github.com/loadboard/loadboard/pkg/series"
	"github.com/loadboard/loadboard/pkg/store"
)

// HandleExport handles GET /v1/export.
// Query params:
//   - format: "csv" or "json" (default: csv)
//   - start_date, end_date: YYYY-MM-DD, same rules as the dashboard range
func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}
	if format != "csv" && format != "json" {
		httpx.RespondErrorString(w, http.StatusBadRequest, "invalid format, must be 'csv' or 'json'")
		return
	}

	start, end, err := parseDateRange(r)
	if err != nil {
		httpx.RespondError(w, http.StatusBadRequest, err)
		return
	}
	end = end.Add(23 * time.Hour)

	timestamp := time.Now().Format("20060102-150405")
	if format == "json" {
		records, err := h.store.Range(start, end)
		if err != nil {
			respondExportError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=loadboard-export-%s.json", timestamp))
		httpx.RespondJSON(w, http.StatusOK, records)
		log.Printf("Exported %d records (json)", len(records))
		return
	}

	snap, err := h.store.Read()
	if err != nil {
		respondExportError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=loadboard-export-%s.csv", timestamp))

	csvw := csv.NewWriter(w)
	if err := csvw.Write(series.ColumnNames(snap.Header)); err != nil {
		log.Printf("Export failed: %v", err)
		return
	}

	exported := 0
	for _, row := range snap.Rows {
		ts, ok := row.Time()
		if !ok || ts.Before(start) || ts.After(end) {
			continue
		}
		if err := csvw.Write(row.Fields()); err != nil {
			log.Printf("Export failed: %v", err)
			return
		}
		exported++
	}
	csvw.Flush()
	if err := csvw.Error(); err != nil {
		log.Printf("Export failed: %v", err)
		return
	}
	log.Printf("Exported %d records (csv)", exported)
}

func respondExportError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrStoreNotFound) {
		httpx.RespondError(w, http.StatusNotFound, err)
		return
	}
	httpx.RespondError(w, http.StatusInternalServerError, err)
}
