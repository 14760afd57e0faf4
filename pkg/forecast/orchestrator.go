package forecast

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/loadboard/loadboard/pkg/config"
	"github.com/loadboard/loadboard/pkg/series"
	"github.com/loadboard/loadboard/pkg/store"
	"github.com/loadboard/loadboard/pkg/timeutil"
)

// ErrHorizonMismatch is returned when the pipeline's output has no value at
// the requested instant.
var ErrHorizonMismatch = errors.New("pipeline output missing requested instant")

// displayZone is the fixed offset used when rendering forecast timestamps.
var displayZone = time.FixedZone("+06:00", 6*60*60)

// SnapshotReader is the slice of the store the orchestrator needs.
type SnapshotReader interface {
	Read() (store.Snapshot, error)
	Fingerprint() uint64
}

// Result is one successful forecast for one model.
type Result struct {
	Timestamp  string  `json:"timestamp"`
	Forecast   float64 `json:"forecast"`
	CustomName string  `json:"custom_name"`
}

// Outcome is the per-model entry of a multi-model run: either a result or an
// error, never both.
type Outcome struct {
	Result *Result `json:"result,omitempty"`
	Error  string  `json:"error,omitempty"`
}

// Orchestrator coordinates store reads, model artifacts, the external
// pipeline and the result cache.
type Orchestrator struct {
	store    SnapshotReader
	registry *Registry
	pipeline Pipeline
	cache    *Cache // may be nil
}

// New creates an orchestrator. The cache is optional.
func New(sr SnapshotReader, reg *Registry, p Pipeline, cache *Cache) *Orchestrator {
	return &Orchestrator{store: sr, registry: reg, pipeline: p, cache: cache}
}

// Single forecasts one model at (date, hour). The horizon starts at the
// instant after the last known observation, located via the previous-hour
// rule, and the load values inside it are masked before delegation.
func (o *Orchestrator) Single(ctx context.Context, model, date string, hour int) (Result, error) {
	target, err := timeutil.HourlyUTC(date, hour)
	if err != nil {
		return Result{}, err
	}

	cacheKey := fmt.Sprintf("%s|%s|%d|%016x", model, date, hour, o.store.Fingerprint())
	if o.cache != nil {
		if res, ok := o.cache.Get(cacheKey); ok {
			log.Printf("Forecast cache hit for model %s at %s hour %d", model, date, hour)
			return res, nil
		}
	}

	job, err := o.registry.Load(model)
	if err != nil {
		return Result{}, err
	}

	boundary, err := timeutil.PreviousHour(date, hour)
	if err != nil {
		return Result{}, err
	}

	snap, err := o.store.Read()
	if err != nil {
		return Result{}, err
	}

	frame, err := buildFrame(snap, boundary)
	if err != nil {
		return Result{}, err
	}

	out, err := o.pipeline.Forecast(ctx, job, frame)
	if err != nil {
		return Result{}, fmt.Errorf("pipeline failed for model %s: %w", model, err)
	}

	value, ok := out[target]
	if !ok {
		return Result{}, fmt.Errorf("%w: model %s has no forecast at %s", ErrHorizonMismatch, model, timeutil.FormatTimestamp(target))
	}

	res := Result{
		Timestamp:  target.In(displayZone).Format(time.RFC3339),
		Forecast:   value,
		CustomName: model,
	}
	if o.cache != nil {
		o.cache.Put(cacheKey, res)
	}
	return res, nil
}

// Multiple runs a backtest for each model independently. One model's failure
// never aborts the others; the caller gets a per-model success/error map.
func (o *Orchestrator) Multiple(ctx context.Context, models []string, date string) map[string]Outcome {
	outcomes := make(map[string]Outcome, len(models))

	var wg sync.WaitGroup
	var mu sync.Mutex
	for _, model := range models {
		wg.Add(1)
		go func(model string) {
			defer wg.Done()

			res, err := o.Single(ctx, model, date, 0)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Printf("Forecast failed for model %s: %v", model, err)
				outcomes[model] = Outcome{Error: err.Error()}
				return
			}
			outcomes[model] = Outcome{Result: &res}
		}(model)
	}
	wg.Wait()

	return outcomes
}

// buildFrame prepares the pipeline input: parseable rows only, deduplicated
// by timestamp (first occurrence wins), sorted ascending, with the horizon
// window's load masked. The boundary instant must exist in the store.
func buildFrame(snap store.Snapshot, boundary time.Time) (Frame, error) {
	seen := make(map[time.Time]bool, len(snap.Rows))
	rows := make([]series.Row, 0, len(snap.Rows))
	for _, row := range snap.Rows {
		ts, ok := row.Time()
		if !ok || seen[ts] {
			continue
		}
		seen[ts] = true
		rows = append(rows, row)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		ti, _ := rows[i].Time()
		tj, _ := rows[j].Time()
		return ti.Before(tj)
	})

	if !seen[boundary] {
		return Frame{}, fmt.Errorf("no observation at %s, cannot anchor forecast horizon", timeutil.FormatTimestamp(boundary))
	}

	start := boundary.Add(time.Hour)
	end := boundary.Add(time.Duration(config.HorizonHours) * time.Hour)
	for i := range rows {
		ts, _ := rows[i].Time()
		if !ts.Before(start) && !ts.After(end) {
			rows[i].MaskLoad()
		}
	}

	return Frame{
		Header:      snap.Header,
		Rows:        rows,
		WindowStart: start,
		WindowEnd:   end,
	}, nil
}
