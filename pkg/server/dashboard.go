package server

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/loadboard/loadboard/pkg/config"
	"github.com/loadboard/loadboard/pkg/httpx"
	"github.com/loadboard/loadboard/pkg/store"
	"github.com/loadboard/loadboard/pkg/timeutil"
)

// DashboardDataResponse carries the rows for a dashboard range query.
type DashboardDataResponse struct {
	StartDate string         `json:"start_date"`
	EndDate   string         `json:"end_date"`
	Count     int            `json:"count"`
	Data      []store.Record `json:"data"`
}

// HandleDashboardData handles GET /v1/dashboard/data?start_date=&end_date=.
func (h *Handler) HandleDashboardData(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseDateRange(r)
	if err != nil {
		httpx.RespondError(w, http.StatusBadRequest, err)
		return
	}

	// The range is inclusive of the end day's last hour.
	records, err := h.store.Range(start, end.Add(23*time.Hour))
	if err != nil {
		if errors.Is(err, store.ErrStoreNotFound) {
			httpx.RespondError(w, http.StatusNotFound, err)
			return
		}
		httpx.RespondError(w, http.StatusInternalServerError, err)
		return
	}

	httpx.RespondJSON(w, http.StatusOK, DashboardDataResponse{
		StartDate: r.URL.Query().Get("start_date"),
		EndDate:   r.URL.Query().Get("end_date"),
		Count:     len(records),
		Data:      records,
	})
}

// HandleDashboardHealth handles GET /v1/dashboard/health?start_date=&end_date=.
func (h *Handler) HandleDashboardHealth(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseDateRange(r)
	if err != nil {
		httpx.RespondError(w, http.StatusBadRequest, err)
		return
	}

	report, err := h.store.HealthScan(start, end)
	if err != nil {
		if errors.Is(err, store.ErrStoreNotFound) {
			httpx.RespondError(w, http.StatusNotFound, err)
			return
		}
		httpx.RespondError(w, http.StatusInternalServerError, err)
		return
	}

	httpx.RespondJSON(w, http.StatusOK, report)
}

// parseDateRange validates the start_date/end_date query parameters: both
// well-formed, end not before start, end not in the future, and the span
// capped so one query cannot pull the whole store.
func parseDateRange(r *http.Request) (start, end time.Time, err error) {
	query := r.URL.Query()

	start, err = timeutil.HourlyUTC(query.Get("start_date"), 0)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("start_date: %w", err)
	}
	end, err = timeutil.HourlyUTC(query.Get("end_date"), 0)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("end_date: %w", err)
	}

	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("end_date must not be before start_date")
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	if end.After(today) {
		return time.Time{}, time.Time{}, fmt.Errorf("end_date must not be in the future")
	}

	if end.Sub(start) > config.MaxDashboardRangeDays*24*time.Hour {
		return time.Time{}, time.Time{}, fmt.Errorf("date range too large, maximum is %d days", config.MaxDashboardRangeDays)
	}

	return start, end, nil
}
