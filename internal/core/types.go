// Package core defines the fundamental types shared by the fetch
// orchestrator, the maps client, and the reporting layers.
package core

import (
	"context"
	"fmt"
	"time"
)

// TrafficModel selects which traffic assumption the upstream directions
// API applies to a duration estimate.
type TrafficModel int

const (
	Optimistic TrafficModel = iota
	Pessimistic
)

// Models lists every traffic model sampled per grid point.
var Models = [...]TrafficModel{Optimistic, Pessimistic}

// String returns the upstream API's traffic_model parameter value.
func (m TrafficModel) String() string {
	switch m {
	case Optimistic:
		return "optimistic"
	case Pessimistic:
		return "pessimistic"
	default:
		return fmt.Sprintf("TrafficModel(%d)", int(m))
	}
}

// LatLng is a WGS84 coordinate pair.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// String formats the pair the way the directions API expects.
func (p LatLng) String() string {
	return fmt.Sprintf("%.6f,%.6f", p.Lat, p.Lng)
}

// Place is one geocoding candidate for a textual query.
type Place struct {
	Query            string `json:"query"`
	FormattedAddress string `json:"formatted_address"`
	Location         LatLng `json:"location"`
	PlaceID          string `json:"place_id,omitempty"`
}

// Task is one pending unit of work: a duration lookup at one departure
// time under one traffic model. The full task set is fixed before
// dispatch begins; no tasks are added afterwards.
type Task struct {
	Departure time.Time
	Model     TrafficModel
}

// TaskKey is the comparable identity of a Task, usable as a map key even
// when departures carry distinct time.Location values.
type TaskKey struct {
	Departure int64
	Model     TrafficModel
}

func (t Task) Key() TaskKey {
	return TaskKey{Departure: t.Departure.Unix(), Model: t.Model}
}

func (t Task) String() string {
	return fmt.Sprintf("%s/%s", t.Departure.Format("15:04"), t.Model)
}

// Result is the outcome of one fetch: either a duration in minutes or a
// classified failure. Results are never mutated once recorded.
type Result struct {
	Task     Task
	Minutes  float64
	Err      *FetchError
	Duration time.Duration
}

// OK reports whether the fetch produced a duration value.
func (r Result) OK() bool { return r.Err == nil }

// Fetcher performs one traffic-duration lookup. Implementations must be
// safe for concurrent use and must resolve within a bounded timeout,
// returning a KindTimeout failure rather than hanging.
type Fetcher interface {
	Fetch(ctx context.Context, task Task) Result
}

// Event is a single task completion observed during a run.
type Event struct {
	Task     Task
	Round    int
	Success  bool
	Retry    bool
	Duration time.Duration
	Error    string
}

// Reporter receives events as tasks resolve. Implementations must be
// safe for concurrent use.
type Reporter interface {
	Report(Event)
}

// NullReporter discards all events.
var NullReporter Reporter = nullReporter{}

type nullReporter struct{}

func (nullReporter) Report(Event) {}
