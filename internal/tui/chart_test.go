package tui

import (
	"strings"
	"testing"

	"novatrade/internal/domain"
)

func TestRenderChartEmptySeries(t *testing.T) {
	t.Parallel()

	out := renderChart(nil, 40, 8)
	if !strings.Contains(out, "no chart data") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestRenderChartShowsAxisAndLabels(t *testing.T) {
	t.Parallel()

	series := domain.CandleSeries{
		{Label: "1/2/2006", Close: 100},
		{Label: "1/3/2006", Close: 150},
		{Label: "1/4/2006", Close: 200},
	}
	out := renderChart(series, 40, 8)
	if !strings.Contains(out, "200.00") || !strings.Contains(out, "100.00") {
		t.Fatalf("expected min/max axis labels, got:\n%s", out)
	}
	if !strings.Contains(out, "1/2/2006") || !strings.Contains(out, "1/4/2006") {
		t.Fatalf("expected first/last point labels, got:\n%s", out)
	}
}

func TestRenderChartFlatSeries(t *testing.T) {
	t.Parallel()

	series := domain.CandleSeries{
		{Label: "09:30", Close: 50},
		{Label: "09:35", Close: 50},
	}
	// A zero price span must not divide by zero.
	out := renderChart(series, 30, 6)
	if out == "" {
		t.Fatal("expected non-empty chart")
	}
}

func TestResample(t *testing.T) {
	t.Parallel()

	in := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	out := resample(in, 4)
	if len(out) != 4 {
		t.Fatalf("expected 4 columns, got %d", len(out))
	}
	if out[0] != 1.5 || out[3] != 7.5 {
		t.Fatalf("expected bucket averages, got %+v", out)
	}

	short := resample([]float64{1, 2}, 10)
	if len(short) != 2 {
		t.Fatalf("short input should pass through, got %+v", short)
	}
}
