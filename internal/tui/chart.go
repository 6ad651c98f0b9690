package tui

import (
	"fmt"
	"strings"

	"novatrade/internal/domain"

	"github.com/charmbracelet/lipgloss"
)

var sparkRunes = []rune("▁▂▃▄▅▆▇█")

// renderChart draws the close-price series as a block chart with a price
// axis on the left and the first and last point labels underneath.
func renderChart(series domain.CandleSeries, width, height int) string {
	if height < 3 {
		height = 3
	}
	if width < 12 {
		width = 12
	}
	if len(series) == 0 {
		return dimStyle.Render("no chart data in this range")
	}

	closes := make([]float64, len(series))
	min, max := series[0].Close, series[0].Close
	for i, p := range series {
		closes[i] = p.Close
		if p.Close < min {
			min = p.Close
		}
		if p.Close > max {
			max = p.Close
		}
	}

	axisWidth := len(fmt.Sprintf("%.2f", max)) + 1
	plotWidth := width - axisWidth
	if plotWidth < 4 {
		plotWidth = 4
	}
	cols := resample(closes, plotWidth)

	rows := height - 1 // last row is the label line
	span := max - min
	grid := make([]strings.Builder, rows)
	for _, v := range cols {
		// Position in [0, rows*8) so each row refines by one block rune.
		level := 0
		if span > 0 {
			level = int((v - min) / span * float64(rows*len(sparkRunes)-1))
		}
		for r := 0; r < rows; r++ {
			// Row 0 is the top of the chart.
			rowFloor := (rows - 1 - r) * len(sparkRunes)
			switch {
			case level >= rowFloor+len(sparkRunes):
				grid[r].WriteRune(sparkRunes[len(sparkRunes)-1])
			case level >= rowFloor:
				grid[r].WriteRune(sparkRunes[level-rowFloor])
			default:
				grid[r].WriteRune(' ')
			}
		}
	}

	var b strings.Builder
	for r := 0; r < rows; r++ {
		label := strings.Repeat(" ", axisWidth)
		if r == 0 {
			label = fmt.Sprintf("%*.2f", axisWidth-1, max) + " "
		} else if r == rows-1 {
			label = fmt.Sprintf("%*.2f", axisWidth-1, min) + " "
		}
		b.WriteString(dimStyle.Render(label))
		b.WriteString(chartStyle.Render(grid[r].String()))
		b.WriteByte('\n')
	}

	first, last := series[0].Label, series[len(series)-1].Label
	gap := plotWidth - len(first) - len(last)
	if gap < 1 {
		gap = 1
	}
	b.WriteString(strings.Repeat(" ", axisWidth))
	b.WriteString(dimStyle.Render(first + strings.Repeat(" ", gap) + last))
	return b.String()
}

// resample squeezes or stretches values onto n columns.
func resample(values []float64, n int) []float64 {
	if len(values) == 0 || n <= 0 {
		return nil
	}
	if len(values) <= n {
		return values
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		// Average each bucket so spikes are not dropped entirely.
		lo := i * len(values) / n
		hi := (i + 1) * len(values) / n
		if hi <= lo {
			hi = lo + 1
		}
		sum := 0.0
		for _, v := range values[lo:hi] {
			sum += v
		}
		out[i] = sum / float64(hi-lo)
	}
	return out
}

var (
	chartStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)
