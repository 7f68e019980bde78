// Package grid builds the ordered set of departure times to sample
// across a query window.
package grid

import (
	"errors"
	"fmt"
	"time"

	"drivetime/internal/core"
)

// ErrInvalidWindow indicates a malformed time window: bad date or time
// syntax, unknown timezone, end before start, or a non-positive interval.
var ErrInvalidWindow = errors.New("invalid time window")

// Build returns departure times on date from start to end inclusive,
// advancing by intervalMinutes. date is YYYY-MM-DD, start/end are HH:MM
// in the tz timezone. Deterministic: the same inputs always produce the
// same sequence.
func Build(date, start, end string, intervalMinutes int, tz string) ([]time.Time, error) {
	if intervalMinutes <= 0 {
		return nil, fmt.Errorf("%w: interval must be positive, got %d", ErrInvalidWindow, intervalMinutes)
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown timezone %q", ErrInvalidWindow, tz)
	}
	from, err := time.ParseInLocation("2006-01-02 15:04", date+" "+start, loc)
	if err != nil {
		return nil, fmt.Errorf("%w: bad start %q %q", ErrInvalidWindow, date, start)
	}
	to, err := time.ParseInLocation("2006-01-02 15:04", date+" "+end, loc)
	if err != nil {
		return nil, fmt.Errorf("%w: bad end %q %q", ErrInvalidWindow, date, end)
	}
	if to.Before(from) {
		return nil, fmt.Errorf("%w: start %s after end %s", ErrInvalidWindow, start, end)
	}

	step := time.Duration(intervalMinutes) * time.Minute
	var points []time.Time
	for cursor := from; !cursor.After(to); cursor = cursor.Add(step) {
		points = append(points, cursor)
	}
	return points, nil
}

// Tasks expands grid points into the full fetch task set: one task per
// point per traffic model, in grid order.
func Tasks(points []time.Time) []core.Task {
	tasks := make([]core.Task, 0, len(points)*len(core.Models))
	for _, p := range points {
		for _, m := range core.Models {
			tasks = append(tasks, core.Task{Departure: p, Model: m})
		}
	}
	return tasks
}
