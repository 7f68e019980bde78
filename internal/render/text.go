package render

import (
	"fmt"
	"io"

	"drivetime/internal/series"
)

// TextRenderer draws the series with plain runes, suitable for logs,
// pipes, and terminals without color support.
type TextRenderer struct{}

func (r *TextRenderer) Render(w io.Writer, ts *series.TimeSeries) error {
	writeTable(w, ts)
	fmt.Fprintln(w)

	p := buildPlot(ts)
	if !p.hasRange {
		fmt.Fprintln(w, "(no complete points to plot)")
		return nil
	}

	fmt.Fprintln(w, "Driving time vs departure time")
	for i, row := range p.rows {
		fmt.Fprintf(w, "%3.0f min | %s\n", p.rowValue(i), string(row))
	}
	fmt.Fprintf(w, "        +%s\n", rule(len(ts.Points)))
	fmt.Fprintf(w, "          %s\n", hourLabels(ts))
	fmt.Fprintln(w, "          Hour of day")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Legend: + optimistic  o pessimistic  * average  x no data")
	r.writeSummary(w, ts)
	return nil
}

func (r *TextRenderer) writeSummary(w io.Writer, ts *series.TimeSeries) {
	in := ts.Insights
	fmt.Fprintf(w, "Best:  %s  %.1f min\n", in.Best.Departure.Format("15:04"), in.Best.Average)
	fmt.Fprintf(w, "Worst: %s  %.1f min\n", in.Worst.Departure.Format("15:04"), in.Worst.Average)
	fmt.Fprintf(w, "Difference: %.1f min\n", in.SpreadMin)
	if ts.Incomplete > 0 {
		fmt.Fprintf(w, "No data for %d of %d departure times\n", ts.Incomplete, len(ts.Points))
	}
}

func rule(n int) string {
	dashes := make([]rune, n)
	for i := range dashes {
		dashes[i] = '-'
	}
	return string(dashes)
}
