// Package api exposes the drive-time operations over HTTP and hosts
// the shared composition used by both the server and the CLI.
package api

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"drivetime/internal/config"
	"drivetime/internal/core"
	"drivetime/internal/grid"
	"drivetime/internal/logging"
	"drivetime/internal/maps"
	"drivetime/internal/orchestrator"
	"drivetime/internal/series"
)

// Service wires the grid, orchestrator, and aggregator around a maps
// client. Stateless between calls.
type Service struct {
	client *maps.Client
	fetch  config.FetchConfig
}

func NewService(client *maps.Client, fetch config.FetchConfig) *Service {
	return &Service{client: client, fetch: fetch}
}

// SeriesRequest describes one window query.
type SeriesRequest struct {
	Origin          core.LatLng `json:"origin"`
	Destination     core.LatLng `json:"destination"`
	Date            string      `json:"date"`
	Start           string      `json:"start"`
	End             string      `json:"end"`
	IntervalMinutes int         `json:"interval_minutes"`
	Timezone        string      `json:"tz"`
}

// Coverage tells the caller how much of the task set resolved. Partial
// completion is a successful response; callers must look here before
// trusting the series to be gap-free.
type Coverage struct {
	TotalTasks        int `json:"total_tasks"`
	Fetched           int `json:"fetched"`
	PermanentFailures int `json:"permanent_failures"`
	Unresolved        int `json:"unresolved"`
	RoundsUsed        int `json:"rounds_used"`
}

// SeriesResponse is the aggregated result of one run.
type SeriesResponse struct {
	RunID    string             `json:"run_id"`
	Series   *series.TimeSeries `json:"series"`
	Coverage Coverage           `json:"coverage"`
}

// Series runs the full pipeline: build the sample grid, fetch every
// task through the retry orchestrator, aggregate, and report coverage.
// rep observes task completions; nil means no progress display.
func (s *Service) Series(ctx context.Context, req SeriesRequest, rep core.Reporter) (*SeriesResponse, error) {
	runID := uuid.NewString()
	log := logging.FromContext(ctx).With("run_id", runID)

	points, err := grid.Build(req.Date, req.Start, req.End, req.IntervalMinutes, req.Timezone)
	if err != nil {
		return nil, err
	}
	tasks := grid.Tasks(points)

	orch := orchestrator.New(s.client.Route(req.Origin, req.Destination), orchestrator.Config{
		InitialConcurrency: s.fetch.InitialConcurrency,
		ConcurrencyDecay:   s.fetch.ConcurrencyDecay,
		MinConcurrency:     s.fetch.MinConcurrency,
		MaxRounds:          s.fetch.MaxRounds,
		PerCallTimeout:     s.fetch.PerCallTimeout,
		RoundTimeout:       s.fetch.RoundTimeout,
		Reporter:           rep,
	})

	start := time.Now()
	out, err := orch.Run(ctx, tasks)
	if err != nil {
		return nil, fmt.Errorf("fetching %d tasks: %w", len(tasks), err)
	}
	log.Info("run finished",
		"tasks", len(tasks),
		"rounds", out.RoundsUsed,
		"unresolved", len(out.Unresolved),
		"elapsed", time.Since(start).Round(time.Millisecond))

	ts, err := series.Aggregate(out, points)
	if err != nil {
		return nil, err
	}

	fetched := 0
	failed := 0
	for _, res := range out.Results {
		if res.OK() {
			fetched++
		} else {
			failed++
		}
	}
	return &SeriesResponse{
		RunID:  runID,
		Series: ts,
		Coverage: Coverage{
			TotalTasks:        len(tasks),
			Fetched:           fetched,
			PermanentFailures: failed,
			Unresolved:        len(out.Unresolved),
			RoundsUsed:        out.RoundsUsed,
		},
	}, nil
}

// Geocode resolves a textual place to candidates.
func (s *Service) Geocode(ctx context.Context, query string) ([]core.Place, error) {
	return s.client.Geocode(ctx, query)
}

// StaticMapURL builds a marker-annotated static map URL.
func (s *Service) StaticMapURL(origin, dest core.LatLng) string {
	return s.client.StaticMapURL(origin, dest)
}
