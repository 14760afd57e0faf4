package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/loadboard/loadboard/pkg/config"
	"github.com/loadboard/loadboard/pkg/forecast"
	"github.com/loadboard/loadboard/pkg/httpx"
	"github.com/loadboard/loadboard/pkg/timeutil"
)

// ModelsResponse lists the trained models available for backtesting.
type ModelsResponse struct {
	Models []string `json:"models"`
}

// HandleModels handles GET /v1/models.
func (h *Handler) HandleModels(w http.ResponseWriter, r *http.Request) {
	names, err := h.registry.List()
	if err != nil {
		httpx.RespondError(w, http.StatusInternalServerError, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, ModelsResponse{Models: names})
}

// ForecastRequest asks for a backtest of several models against one date.
type ForecastRequest struct {
	ModelNames []string `json:"modelNames"`
	Date       string   `json:"date"`
}

// ForecastResponse maps each requested model to its result or error.
type ForecastResponse struct {
	Date    string                      `json:"date"`
	Results map[string]forecast.Outcome `json:"results"`
}

// HandleForecast handles POST /v1/forecast. Models run independently; one
// failure shows up as that model's error entry, the rest still return results.
func (h *Handler) HandleForecast(w http.ResponseWriter, r *http.Request) {
	var req ForecastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.RespondError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	if _, err := timeutil.HourlyUTC(req.Date, 0); err != nil {
		httpx.RespondError(w, http.StatusBadRequest, err)
		return
	}
	if len(req.ModelNames) == 0 {
		httpx.RespondErrorString(w, http.StatusBadRequest, "modelNames must contain at least one model")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), config.ForecastTimeout)
	defer cancel()

	outcomes := h.orch.Multiple(ctx, req.ModelNames, req.Date)

	log.Printf("Backtest for %s: %d models", req.Date, len(outcomes))
	h.hub.ForecastComplete(req.Date, len(outcomes))

	httpx.RespondJSON(w, http.StatusOK, ForecastResponse{
		Date:    req.Date,
		Results: outcomes,
	})
}
