package domain

import (
	"testing"
	"time"
)

func TestNormalizeSymbol(t *testing.T) {
	if got := NormalizeSymbol("  aapl "); got != "AAPL" {
		t.Fatalf("expected AAPL, got %q", got)
	}
}

func TestParseRange(t *testing.T) {
	for _, r := range SupportedRanges {
		got, err := ParseRange(string(r))
		if err != nil || got != r {
			t.Fatalf("round-trip failed for %s: %v", r, err)
		}
	}
	if got, err := ParseRange("1m"); err != nil || got != Range1M {
		t.Fatalf("expected lowercase to parse, got %v %v", got, err)
	}
	if _, err := ParseRange("2D"); err == nil {
		t.Fatal("expected error for unsupported range")
	}
}

func TestRangeChartQuery(t *testing.T) {
	tests := map[Range][2]string{
		Range1D: {"1d", "5m"},
		Range1W: {"5d", "15m"},
		Range1M: {"1mo", "1d"},
		Range3M: {"3mo", "1d"},
		Range1Y: {"1y", "1d"},
	}
	for r, expected := range tests {
		lookback, interval := r.ChartQuery()
		if lookback != expected[0] || interval != expected[1] {
			t.Fatalf("%s: expected %v, got %s/%s", r, expected, lookback, interval)
		}
	}
}

func TestRangeIntraday(t *testing.T) {
	if !Range1D.Intraday() || !Range1W.Intraday() {
		t.Fatal("1D and 1W should be intraday")
	}
	if Range1M.Intraday() || Range3M.Intraday() || Range1Y.Intraday() {
		t.Fatal("long ranges should not be intraday")
	}
}

func TestPointLabel(t *testing.T) {
	ts := time.Date(2025, 3, 4, 14, 30, 0, 0, time.UTC).Unix()
	if got := PointLabel(ts, Range1D); got != "14:30" {
		t.Fatalf("expected 14:30, got %q", got)
	}
	if got := PointLabel(ts, Range1Y); got != "3/4/2025" {
		t.Fatalf("expected 3/4/2025, got %q", got)
	}
}

func TestAvgVolumeShortSeries(t *testing.T) {
	series := make(CandleSeries, 10)
	var sum float64
	for i := range series {
		series[i].Volume = float64(i + 1)
		sum += float64(i + 1)
	}
	expected := sum / 10
	if got := series.AvgVolume(); got != expected {
		t.Fatalf("expected average over true length %f, got %f", expected, got)
	}
}

func TestAvgVolumeTrailingWindow(t *testing.T) {
	series := make(CandleSeries, 40)
	for i := range series {
		series[i].Volume = float64(i)
	}
	// Trailing 30 points are volumes 10..39.
	var sum float64
	for v := 10; v < 40; v++ {
		sum += float64(v)
	}
	if got := series.AvgVolume(); got != sum/30 {
		t.Fatalf("expected %f, got %f", sum/30, got)
	}
}

func TestAvgVolumeEmpty(t *testing.T) {
	var series CandleSeries
	if got := series.AvgVolume(); got != 0 {
		t.Fatalf("expected 0 for empty series, got %f", got)
	}
	if got := series.LatestVolume(); got != 0 {
		t.Fatalf("expected 0 latest volume, got %f", got)
	}
}

func TestComputeStats(t *testing.T) {
	series := CandleSeries{{Volume: 100}, {Volume: 300}}
	profile := &Profile{Symbol: "AAPL", MarketCap: 1.2345e9}

	stats := ComputeStats(series, profile)
	if stats.Volume != 300 {
		t.Fatalf("expected latest volume 300, got %f", stats.Volume)
	}
	if stats.AvgVolume != 200 {
		t.Fatalf("expected avg volume 200, got %f", stats.AvgVolume)
	}
	if stats.MarketCap == nil || *stats.MarketCap != 1.2345e9 {
		t.Fatalf("unexpected market cap: %v", stats.MarketCap)
	}

	noProfile := ComputeStats(series, nil)
	if noProfile.MarketCap != nil {
		t.Fatal("expected nil market cap without profile")
	}
}

func TestFormatMarketCap(t *testing.T) {
	// 1234.5 million scaled to base units formats as $1.23B.
	cap := 1234.5 * 1e6
	if got := FormatMarketCap(&cap); got != "$1.23B" {
		t.Fatalf("expected $1.23B, got %q", got)
	}
	if got := FormatMarketCap(nil); got != Placeholder {
		t.Fatalf("expected placeholder, got %q", got)
	}
}

func TestFormatAbbrev(t *testing.T) {
	tests := map[float64]string{
		3.21e12: "3.21T",
		4.567e9: "4.57B",
		9.9e6:   "9.90M",
		1500:    "1.50K",
		42:      "42.00",
	}
	for v, expected := range tests {
		if got := FormatAbbrev(v); got != expected {
			t.Fatalf("%f: expected %q, got %q", v, expected, got)
		}
	}
}
