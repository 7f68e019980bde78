// Package render draws a time series as a terminal plot. Two renderers
// share one grid builder: a plain-text one for logs and piping, and an
// ANSI one for interactive terminals.
package render

import (
	"fmt"
	"io"

	"drivetime/internal/series"
)

// Renderer writes a visual representation of a time series.
type Renderer interface {
	Render(w io.Writer, ts *series.TimeSeries) error
}

// New selects a renderer by mode: "text" or "color".
func New(mode string) (Renderer, error) {
	switch mode {
	case "text":
		return &TextRenderer{}, nil
	case "color":
		return &ColorRenderer{}, nil
	default:
		return nil, fmt.Errorf("unknown render mode %q (want text or color)", mode)
	}
}

// writeTable prints the per-departure table shared by both renderers.
// Missing values print as dashes; a gap is data too.
func writeTable(w io.Writer, ts *series.TimeSeries) {
	fmt.Fprintf(w, "%-10s %12s %12s %12s\n", "Departure", "Optimistic", "Pessimistic", "Average")
	for _, p := range ts.Points {
		if p.Complete {
			fmt.Fprintf(w, "%-10s %12.1f %12.1f %12.1f\n",
				p.Departure.Format("15:04"), p.Optimistic, p.Pessimistic, p.Average)
			continue
		}
		fmt.Fprintf(w, "%-10s %12s %12s %12s\n", p.Departure.Format("15:04"),
			formatOptional(p.Optimistic, p.HasOptimistic),
			formatOptional(p.Pessimistic, p.HasPessimistic),
			"--")
	}
}

func formatOptional(v float64, present bool) string {
	if !present {
		return "--"
	}
	return fmt.Sprintf("%.1f", v)
}
