package domain

import (
	"errors"
	"fmt"
	"strings"
)

// MaxWatchlistSize is the hard cap on symbols a single user may follow.
const MaxWatchlistSize = 20

var (
	// ErrWatchlistFull is returned when adding to a watchlist that already
	// holds MaxWatchlistSize symbols.
	ErrWatchlistFull = fmt.Errorf("watchlist limit reached: you can only follow %d stocks", MaxWatchlistSize)

	// ErrDuplicateSymbol is returned when adding a symbol already present.
	ErrDuplicateSymbol = errors.New("stock is already in your watchlist")

	// ErrEmptySymbol is returned when adding a blank symbol.
	ErrEmptySymbol = errors.New("symbol must not be empty")
)

// NormalizeSymbol uppercases and trims a ticker symbol. All membership and
// capacity checks run on the normalized form.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// Range is a chart lookback/granularity preset.
type Range string

const (
	Range1D Range = "1D"
	Range1W Range = "1W"
	Range1M Range = "1M"
	Range3M Range = "3M"
	Range1Y Range = "1Y"
)

// DefaultRange is the range a fresh dashboard opens with.
const DefaultRange = Range1M

// SupportedRanges lists the selectable chart ranges in display order.
var SupportedRanges = []Range{Range1D, Range1W, Range1M, Range3M, Range1Y}

// ParseRange maps a user-supplied string onto a supported Range.
func ParseRange(s string) (Range, error) {
	r := Range(strings.ToUpper(strings.TrimSpace(s)))
	for _, sr := range SupportedRanges {
		if r == sr {
			return r, nil
		}
	}
	return "", fmt.Errorf("unsupported range: %q", s)
}

// ChartQuery returns the upstream chart API parameters for the range.
// Short ranges use intraday sampling, long ranges use daily bars.
func (r Range) ChartQuery() (lookback, interval string) {
	switch r {
	case Range1D:
		return "1d", "5m"
	case Range1W:
		return "5d", "15m"
	case Range3M:
		return "3mo", "1d"
	case Range1Y:
		return "1y", "1d"
	default:
		return "1mo", "1d"
	}
}

// Intraday reports whether chart labels should render time-of-day
// instead of a calendar date.
func (r Range) Intraday() bool {
	return r == Range1D || r == Range1W
}
