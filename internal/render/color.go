package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"drivetime/internal/series"
)

// ColorRenderer draws the same grid as TextRenderer with ANSI styling.
type ColorRenderer struct{}

var (
	titleStyle       = lipgloss.NewStyle().Bold(true)
	axisStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	optimisticStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("14")) // cyan
	pessimisticStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("13")) // magenta
	averageStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("15")) // white
	bestStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	worstStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	gapStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

func (r *ColorRenderer) Render(w io.Writer, ts *series.TimeSeries) error {
	writeTable(w, ts)
	fmt.Fprintln(w)

	p := buildPlot(ts)
	if !p.hasRange {
		fmt.Fprintln(w, gapStyle.Render("(no complete points to plot)"))
		return nil
	}

	fmt.Fprintln(w, titleStyle.Render("Driving time vs departure time"))
	for i, row := range p.rows {
		fmt.Fprintf(w, "%s %s\n",
			axisStyle.Render(fmt.Sprintf("%3.0f min |", p.rowValue(i))),
			colorizeRow(row))
	}
	fmt.Fprintln(w, axisStyle.Render("        +"+rule(len(ts.Points))))
	fmt.Fprintln(w, axisStyle.Render("          "+hourLabels(ts)))
	fmt.Fprintln(w, axisStyle.Render("          Hour of day"))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Legend: %s optimistic  %s pessimistic  %s average  %s no data\n",
		optimisticStyle.Render(string(markOptimistic)),
		pessimisticStyle.Render(string(markPessimistic)),
		averageStyle.Render(string(markAverage)),
		gapStyle.Render(string(markGap)))
	r.writeSummary(w, ts)
	return nil
}

func (r *ColorRenderer) writeSummary(w io.Writer, ts *series.TimeSeries) {
	in := ts.Insights
	fmt.Fprintf(w, "%s %s  %.1f min\n", bestStyle.Render("Best: "), in.Best.Departure.Format("15:04"), in.Best.Average)
	fmt.Fprintf(w, "%s %s  %.1f min\n", worstStyle.Render("Worst:"), in.Worst.Departure.Format("15:04"), in.Worst.Average)
	fmt.Fprintf(w, "Difference: %.1f min\n", in.SpreadMin)
	if ts.Incomplete > 0 {
		fmt.Fprintln(w, gapStyle.Render(
			fmt.Sprintf("No data for %d of %d departure times", ts.Incomplete, len(ts.Points))))
	}
}

// colorizeRow styles each mark; runs of spaces pass through unstyled.
func colorizeRow(row []rune) string {
	var b strings.Builder
	for _, r := range row {
		switch r {
		case markOptimistic:
			b.WriteString(optimisticStyle.Render(string(r)))
		case markPessimistic:
			b.WriteString(pessimisticStyle.Render(string(r)))
		case markAverage:
			b.WriteString(averageStyle.Render(string(r)))
		case markBest:
			b.WriteString(bestStyle.Render(string(r)))
		case markWorst:
			b.WriteString(worstStyle.Render(string(r)))
		case markGap:
			b.WriteString(gapStyle.Render(string(r)))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
