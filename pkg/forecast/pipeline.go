// Package forecast orchestrates the external load-forecasting pipeline:
// locating trained model artifacts, preparing the masked input frame, fanning
// out backtests across models, and caching results.
package forecast

import (
	"context"
	"time"

	"github.com/loadboard/loadboard/pkg/series"
)

// JobDescriptor is the serialized configuration of one trained model, stored
// alongside its artifacts and replayed on every forecast call.
type JobDescriptor struct {
	ID                int                    `json:"id"`
	Model             string                 `json:"model"`
	ForecastType      string                 `json:"forecast_type"`
	HorizonMinutes    int                    `json:"horizon_minutes"`
	ResolutionMinutes int                    `json:"resolution_minutes"`
	Name              string                 `json:"name"`
	ModelKwargs       map[string]interface{} `json:"model_kwargs,omitempty"`
	Quantiles         []float64              `json:"quantiles,omitempty"`
}

// Frame is the tabular input handed to the pipeline: the full history with
// the horizon window's load values masked as missing. Rows are deduplicated,
// parseable-timestamp only, sorted ascending.
type Frame struct {
	Header      string
	Rows        []series.Row
	WindowStart time.Time
	WindowEnd   time.Time
}

// Series is a pipeline output: forecast values keyed by instant.
type Series map[time.Time]float64

// Pipeline is the external forecasting engine. Implementations are treated
// as a black box given a frame and a job descriptor.
type Pipeline interface {
	Forecast(ctx context.Context, job JobDescriptor, frame Frame) (Series, error)
}

// Persistence is the built-in fallback pipeline: it carries the last observed
// load before the window forward across the whole horizon. It keeps the
// binary runnable when no real pipeline is linked and serves as a baseline.
type Persistence struct{}

// Forecast implements Pipeline with a carry-forward baseline.
func (Persistence) Forecast(ctx context.Context, job JobDescriptor, frame Frame) (Series, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var last float64
	for _, row := range frame.Rows {
		ts, ok := row.Time()
		if !ok || !ts.Before(frame.WindowStart) {
			continue
		}
		if load, ok := row.Load(); ok {
			last, _ = load.Float64()
		}
	}

	out := make(Series)
	for ts := frame.WindowStart; !ts.After(frame.WindowEnd); ts = ts.Add(time.Hour) {
		out[ts] = last
	}
	return out, nil
}
