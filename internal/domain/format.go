package domain

import (
	"fmt"
	"math"
)

// Placeholder is shown wherever a stat is unavailable.
const Placeholder = "--"

// FormatAbbrev renders a large number with a T/B/M/K suffix and two decimals,
// matching the dashboard stat cards.
func FormatAbbrev(v float64) string {
	if math.IsNaN(v) {
		return Placeholder
	}
	switch {
	case v >= 1e12:
		return fmt.Sprintf("%.2fT", v/1e12)
	case v >= 1e9:
		return fmt.Sprintf("%.2fB", v/1e9)
	case v >= 1e6:
		return fmt.Sprintf("%.2fM", v/1e6)
	case v >= 1e3:
		return fmt.Sprintf("%.2fK", v/1e3)
	default:
		return fmt.Sprintf("%.2f", v)
	}
}

// FormatMarketCap renders a nullable market cap as a dollar figure, or the
// placeholder when absent.
func FormatMarketCap(cap *float64) string {
	if cap == nil {
		return Placeholder
	}
	return "$" + FormatAbbrev(*cap)
}

// FormatVolume renders a volume stat, or the placeholder for an empty series.
func FormatVolume(v float64) string {
	if v == 0 {
		return Placeholder
	}
	return FormatAbbrev(v)
}
