package render

import (
	"math"

	"drivetime/internal/series"
)

const (
	plotHeight = 20

	markOptimistic  = '+'
	markPessimistic = 'o'
	markAverage     = '*'
	markBest        = 'B'
	markWorst       = 'W'
	markGap         = 'x'
)

// plot is a rune grid, one column per grid point, plus the value range
// it was scaled against.
type plot struct {
	rows     [][]rune
	minVal   float64
	maxVal   float64
	hasRange bool
}

// buildPlot rasterizes the series. Complete points draw three marks per
// column; incomplete points draw a gap mark on the baseline so missing
// data stays visible instead of vanishing.
func buildPlot(ts *series.TimeSeries) plot {
	width := len(ts.Points)
	p := plot{rows: make([][]rune, plotHeight)}
	for i := range p.rows {
		row := make([]rune, width)
		for j := range row {
			row[j] = ' '
		}
		p.rows[i] = row
	}

	p.minVal, p.maxVal, p.hasRange = valueRange(ts)
	if !p.hasRange {
		return p
	}

	scale := func(v float64) int {
		if p.maxVal == p.minVal {
			return plotHeight / 2
		}
		row := int(math.Round((v - p.minVal) / (p.maxVal - p.minVal) * (plotHeight - 1)))
		return plotHeight - 1 - row
	}

	for col, pt := range ts.Points {
		if !pt.Complete {
			p.rows[plotHeight-1][col] = markGap
			continue
		}
		p.rows[scale(pt.Pessimistic)][col] = markPessimistic
		if p.rows[scale(pt.Optimistic)][col] == ' ' {
			p.rows[scale(pt.Optimistic)][col] = markOptimistic
		}
		p.rows[scale(pt.Average)][col] = markAverage
	}

	for col, pt := range ts.Points {
		if !pt.Complete {
			continue
		}
		switch {
		case pt.Departure.Equal(ts.Insights.Best.Departure):
			p.rows[scale(pt.Average)][col] = markBest
		case pt.Departure.Equal(ts.Insights.Worst.Departure):
			p.rows[scale(pt.Average)][col] = markWorst
		}
	}
	return p
}

// rowValue returns the duration a grid row represents.
func (p plot) rowValue(row int) float64 {
	if p.maxVal == p.minVal {
		return p.maxVal
	}
	return p.maxVal - float64(row)/float64(plotHeight-1)*(p.maxVal-p.minVal)
}

func valueRange(ts *series.TimeSeries) (min, max float64, ok bool) {
	for _, pt := range ts.Points {
		if !pt.Complete {
			continue
		}
		for _, v := range [...]float64{pt.Optimistic, pt.Pessimistic} {
			if !ok {
				min, max = v, v
				ok = true
				continue
			}
			if v < min {
				min = v
			}
			if v > max {
				max = v
			}
		}
	}
	return min, max, ok
}

// hourLabels builds the x-axis: hour numbers under top-of-hour columns,
// spaces elsewhere.
func hourLabels(ts *series.TimeSeries) string {
	axis := make([]rune, len(ts.Points))
	for i := range axis {
		axis[i] = ' '
	}
	for i, pt := range ts.Points {
		if pt.Departure.Minute() != 0 {
			continue
		}
		label := []rune(pt.Departure.Format("15"))
		if label[0] == '0' {
			label = label[1:]
		}
		for j, r := range label {
			if i+j < len(axis) {
				axis[i+j] = r
			}
		}
	}
	return string(axis)
}
