package domain

import "time"

// CandlePoint is one sampled OHLCV bar, already shaped for chart display.
type CandlePoint struct {
	Label     string  `json:"label"`
	Timestamp int64   `json:"timestamp"`
	Close     float64 `json:"close"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Volume    float64 `json:"volume"`
}

// CandleSeries is an ordered run of candle points with strictly increasing
// timestamps. It is replaced wholesale on every fetch, never merged.
type CandleSeries []CandlePoint

// avgVolumeWindow is the trailing point count used for average volume.
const avgVolumeWindow = 30

// LatestVolume returns the volume of the newest point, or 0 for an empty series.
func (s CandleSeries) LatestVolume() float64 {
	if len(s) == 0 {
		return 0
	}
	return s[len(s)-1].Volume
}

// AvgVolume averages volume over the trailing 30 points, or all points when
// fewer exist. The divisor is the true point count, never a padded 30.
func (s CandleSeries) AvgVolume() float64 {
	if len(s) == 0 {
		return 0
	}
	window := s
	if len(s) > avgVolumeWindow {
		window = s[len(s)-avgVolumeWindow:]
	}
	var sum float64
	for _, p := range window {
		sum += p.Volume
	}
	return sum / float64(len(window))
}

// PointLabel formats a candle timestamp for the given range class:
// time-of-day for intraday ranges, calendar date otherwise.
func PointLabel(ts int64, r Range) string {
	t := time.Unix(ts, 0).UTC()
	if r.Intraday() {
		return t.Format("15:04")
	}
	return t.Format("1/2/2006")
}

// Quote is a transient per-symbol price snapshot. It has no identity beyond
// (symbol, fetch time); staleness is the caller's problem.
type Quote struct {
	Symbol    string  `json:"symbol"`
	Current   float64 `json:"current"`
	ChangePct float64 `json:"change_pct"`
	FetchedAt int64   `json:"fetched_at"`
}

// Profile carries the company fields we surface. MarketCap is in base
// currency units (the upstream reports millions; the gateway scales it).
type Profile struct {
	Symbol    string  `json:"symbol"`
	Name      string  `json:"name"`
	MarketCap float64 `json:"market_cap"`
}

// SearchResult is one ranked symbol-search candidate.
type SearchResult struct {
	Symbol      string `json:"symbol"`
	Description string `json:"description"`
	Type        string `json:"type"`
}

// MarketStats are the derived aggregates shown next to the chart. They are
// recomputed in full on every candle fetch, never partially updated.
type MarketStats struct {
	MarketCap *float64 `json:"market_cap,omitempty"`
	Volume    float64  `json:"volume"`
	AvgVolume float64  `json:"avg_volume"`
}

// ComputeStats derives MarketStats from a candle series and an optional
// profile. A nil profile leaves MarketCap unset.
func ComputeStats(series CandleSeries, profile *Profile) MarketStats {
	stats := MarketStats{
		Volume:    series.LatestVolume(),
		AvgVolume: series.AvgVolume(),
	}
	if profile != nil {
		cap := profile.MarketCap
		stats.MarketCap = &cap
	}
	return stats
}
