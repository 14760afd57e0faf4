package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/loadboard/loadboard/pkg/httpx"
	"github.com/loadboard/loadboard/pkg/series"
	"github.com/loadboard/loadboard/pkg/store"
	"github.com/loadboard/loadboard/pkg/timeutil"
)

// HourUpdate is one hourly edit in a data-input request. Numeric fields are
// decoded as json.Number so values round-trip to the store without float
// reformatting.
type HourUpdate struct {
	Timestamp         string      `json:"timestamp"`
	Load              json.Number `json:"load"`
	ForecastedLoad    json.Number `json:"forecasted_load"`
	IsHoliday         int         `json:"is_holiday"`
	HolidayType       int         `json:"holiday_type"`
	NationalEventType int         `json:"national_event_type"`
}

// DataInputRequest is the POST /v1/data-input payload. The date identifies
// the batch's target day for messaging; matching happens per-row on the
// timestamp key.
type DataInputRequest struct {
	Date string       `json:"date"`
	Data []HourUpdate `json:"data"`
}

// DataInputResponse reports the outcome of a reconciliation.
type DataInputResponse struct {
	Status         string `json:"status"`
	Message        string `json:"message"`
	RecordsUpdated int    `json:"records_updated,omitempty"`
}

// DayResponse is the GET /v1/data-input view: 24 hourly slots for one day.
type DayResponse struct {
	Date string            `json:"date"`
	Data []store.HourPoint `json:"data"`
}

// HandleDataInputGet handles GET /v1/data-input?date=YYYY-MM-DD.
func (h *Handler) HandleDataInputGet(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	day, err := timeutil.HourlyUTC(date, 0)
	if err != nil {
		httpx.RespondError(w, http.StatusBadRequest, err)
		return
	}

	httpx.RespondJSON(w, http.StatusOK, DayResponse{
		Date: date,
		Data: h.store.Day(day),
	})
}

// HandleDataInputPost handles POST /v1/data-input: validate the batch,
// reconcile it against the store and report how many rows changed.
func (h *Handler) HandleDataInputPost(w http.ResponseWriter, r *http.Request) {
	var req DataInputRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.RespondError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	if _, err := timeutil.HourlyUTC(req.Date, 0); err != nil {
		httpx.RespondError(w, http.StatusBadRequest, err)
		return
	}
	if len(req.Data) == 0 {
		httpx.RespondErrorString(w, http.StatusBadRequest, "data must contain at least one record")
		return
	}

	batch := make([]series.Update, 0, len(req.Data))
	for _, item := range req.Data {
		update, err := toUpdate(item)
		if err != nil {
			httpx.RespondError(w, http.StatusBadRequest, err)
			return
		}
		batch = append(batch, update)
	}

	res, err := h.store.Apply(batch)
	if err != nil {
		log.Printf("Data input failed for %s: %v", req.Date, err)
		httpx.RespondJSON(w, http.StatusInternalServerError, DataInputResponse{
			Status:  "error",
			Message: err.Error(),
		})
		return
	}

	log.Printf("Data input for %s: %d updated, %d created", req.Date, res.Updated, res.Created)
	h.hub.DataUpdate(req.Date, res.Updated, res.Created)

	httpx.RespondJSON(w, http.StatusOK, DataInputResponse{
		Status:         "success",
		Message:        fmt.Sprintf("Data for %s saved successfully", req.Date),
		RecordsUpdated: res.Updated + res.Created,
	})
}

// toUpdate validates one hourly edit and converts it to a store update.
func toUpdate(item HourUpdate) (series.Update, error) {
	if _, err := timeutil.ParseTimestamp(item.Timestamp); err != nil {
		return series.Update{}, fmt.Errorf("invalid timestamp format: %q", item.Timestamp)
	}

	load, err := numberToDecimal(item.Load)
	if err != nil {
		return series.Update{}, fmt.Errorf("invalid load for %s: %w", item.Timestamp, err)
	}
	fcst, err := numberToDecimal(item.ForecastedLoad)
	if err != nil {
		return series.Update{}, fmt.Errorf("invalid forecasted_load for %s: %w", item.Timestamp, err)
	}

	return series.Update{
		Timestamp:      item.Timestamp,
		Load:           load,
		ForecastedLoad: fcst,
		IsHoliday:      item.IsHoliday,
		HolidayType:    item.HolidayType,
		NationalEvent:  item.NationalEventType,
	}, nil
}

// numberToDecimal converts a JSON number, treating an absent field as zero.
func numberToDecimal(n json.Number) (decimal.Decimal, error) {
	if n == "" {
		return decimal.Decimal{}, nil
	}
	return decimal.NewFromString(n.String())
}
