// Package series turns orchestration outcomes into a plottable time
// series with best/worst departure insights.
package series

import (
	"errors"
	"math"
	"time"

	"drivetime/internal/core"
	"drivetime/internal/orchestrator"
)

// ErrEmptyResult indicates no grid point has both traffic models
// resolved; there is nothing to aggregate.
var ErrEmptyResult = errors.New("no complete data points")

// Point is one grid point in the output series. Incomplete points stay
// in the series so renderers can show the gap; they carry no average
// and never win best/worst.
type Point struct {
	Departure   time.Time `json:"departure"`
	Optimistic  float64   `json:"optimistic_min"`
	Pessimistic float64   `json:"pessimistic_min"`
	Average     float64   `json:"average_min"`
	// Presence flags distinguish a missing model from a genuine
	// zero-minute duration.
	HasOptimistic  bool `json:"has_optimistic"`
	HasPessimistic bool `json:"has_pessimistic"`
	Complete       bool `json:"complete"`
}

// Insights summarizes the series: best and worst departures among
// complete points and the spread between them.
type Insights struct {
	Best      Point   `json:"best"`
	Worst     Point   `json:"worst"`
	SpreadMin float64 `json:"spread_min"`
}

// TimeSeries is the aggregated run output.
type TimeSeries struct {
	Points   []Point  `json:"points"`
	Insights Insights `json:"insights"`
	// Incomplete counts grid points missing at least one model.
	Incomplete int `json:"incomplete"`
}

// Aggregate builds the series for the given grid points from a run
// outcome. Points keep grid order. Fails only when zero points are
// complete.
func Aggregate(out *orchestrator.Outcome, points []time.Time) (*TimeSeries, error) {
	ts := &TimeSeries{Points: make([]Point, 0, len(points))}

	for _, departure := range points {
		opt, okOpt := out.Minutes(core.Task{Departure: departure, Model: core.Optimistic})
		pes, okPes := out.Minutes(core.Task{Departure: departure, Model: core.Pessimistic})

		p := Point{
			Departure:      departure,
			HasOptimistic:  okOpt,
			HasPessimistic: okPes,
			Complete:       okOpt && okPes,
		}
		if okOpt {
			p.Optimistic = opt
		}
		if okPes {
			p.Pessimistic = pes
		}
		if p.Complete {
			p.Average = round1((opt + pes) / 2)
		} else {
			ts.Incomplete++
		}
		ts.Points = append(ts.Points, p)
	}

	best, worst, ok := bestWorst(ts.Points)
	if !ok {
		return nil, ErrEmptyResult
	}
	ts.Insights = Insights{
		Best:      best,
		Worst:     worst,
		SpreadMin: round1(worst.Average - best.Average),
	}
	return ts, nil
}

// bestWorst scans complete points for the minimum and maximum average.
// Ties resolve to the earliest departure; the scan preserves grid order
// so strict comparisons are enough.
func bestWorst(points []Point) (best, worst Point, ok bool) {
	for _, p := range points {
		if !p.Complete {
			continue
		}
		if !ok {
			best, worst = p, p
			ok = true
			continue
		}
		if p.Average < best.Average {
			best = p
		}
		if p.Average > worst.Average {
			worst = p
		}
	}
	return best, worst, ok
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
