package reconciler

import (
	"context"
	"log"
	"sync"

	"novatrade/internal/domain"
)

// FetchErrMessage is the generic user-facing message for any failed chart
// load; underlying provider detail stays in the logs.
const FetchErrMessage = "failed to fetch stock data"

// Phase is the chart panel lifecycle for the current selection.
type Phase int

const (
	// PhaseEmpty means there is no selection (empty watchlist).
	PhaseEmpty Phase = iota
	PhaseLoading
	PhaseLoaded
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseLoaded:
		return "loaded"
	case PhaseFailed:
		return "failed"
	default:
		return "empty"
	}
}

// Fetcher loads a symbol's chart series and header stats for one range.
type Fetcher interface {
	Overview(ctx context.Context, symbol string, r domain.Range) (domain.CandleSeries, domain.MarketStats, error)
}

// Watchlist is the live watchlist subscription.
type Watchlist interface {
	Subscribe(ctx context.Context, userID int64) (<-chan []string, func(), error)
}

// Snapshot is the full dashboard view state.
type Snapshot struct {
	Symbols  []string
	Selected string
	Range    domain.Range
	Phase    Phase
	Series   domain.CandleSeries
	Stats    domain.MarketStats
	ErrMsg   string
}

// Reconciler keeps one user's dashboard consistent across three independent
// event sources: live watchlist updates, selection changes, and range
// changes. Each fetch carries a monotonic token; a completion whose token is
// no longer the latest issued is dropped, so a slow response for an earlier
// (symbol, range) pair can never overwrite a newer one.
type Reconciler struct {
	mu       sync.Mutex
	fetcher  Fetcher
	onChange func(Snapshot)

	token    uint64
	symbols  []string
	selected string
	rng      domain.Range
	phase    Phase
	series   domain.CandleSeries
	stats    domain.MarketStats
	errMsg   string
}

// New creates a reconciler starting at the default range with no selection.
// onChange fires after every visible state transition, without the internal
// lock held; it may be nil.
func New(fetcher Fetcher, onChange func(Snapshot)) *Reconciler {
	return &Reconciler{
		fetcher:  fetcher,
		onChange: onChange,
		rng:      domain.DefaultRange,
		phase:    PhaseEmpty,
	}
}

// Run subscribes to the user's watchlist and applies updates until ctx is
// cancelled. It blocks; callers run it in its own goroutine.
func (r *Reconciler) Run(ctx context.Context, wl Watchlist, userID int64) error {
	updates, unsubscribe, err := wl.Subscribe(ctx, userID)
	if err != nil {
		return err
	}
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case symbols, ok := <-updates:
			if !ok {
				return nil
			}
			r.ApplyWatchlist(ctx, symbols)
		}
	}
}

// ApplyWatchlist installs a new watchlist snapshot. The current selection is
// preserved when it survives the update; otherwise the first symbol is
// selected, or the panel goes empty when the list is. A fetch is issued only
// when the effective selection actually changed.
func (r *Reconciler) ApplyWatchlist(ctx context.Context, symbols []string) {
	r.mu.Lock()
	r.symbols = symbols

	next := ""
	if contains(symbols, r.selected) {
		next = r.selected
	} else if len(symbols) > 0 {
		next = symbols[0]
	}

	if next == r.selected {
		r.notifyLocked()
		return
	}
	r.selected = next
	if next == "" {
		r.clearPanelLocked()
		r.notifyLocked()
		return
	}
	r.fetchLocked(ctx)
}

// Select switches the dashboard to a watchlist symbol. Unknown symbols are
// ignored; reselecting the current one is a no-op.
func (r *Reconciler) Select(ctx context.Context, symbol string) {
	r.mu.Lock()
	if symbol == r.selected || !contains(r.symbols, symbol) {
		r.mu.Unlock()
		return
	}
	r.selected = symbol
	r.fetchLocked(ctx)
}

// SetRange switches the chart range for the current selection.
func (r *Reconciler) SetRange(ctx context.Context, rng domain.Range) {
	r.mu.Lock()
	if rng == r.rng {
		r.mu.Unlock()
		return
	}
	r.rng = rng
	if r.selected == "" {
		r.notifyLocked()
		return
	}
	r.fetchLocked(ctx)
}

// Refresh re-fetches the current selection, e.g. after a transient failure.
func (r *Reconciler) Refresh(ctx context.Context) {
	r.mu.Lock()
	if r.selected == "" {
		r.mu.Unlock()
		return
	}
	r.fetchLocked(ctx)
}

// Snapshot returns the current view state.
func (r *Reconciler) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

// fetchLocked issues a token-guarded fetch for the current (symbol, range)
// pair. It takes ownership of the held lock and releases it.
func (r *Reconciler) fetchLocked(ctx context.Context) {
	r.token++
	tok := r.token
	symbol, rng := r.selected, r.rng
	r.phase = PhaseLoading
	r.errMsg = ""
	r.notifyLocked()

	go func() {
		series, stats, err := r.fetcher.Overview(ctx, symbol, rng)

		r.mu.Lock()
		if tok != r.token {
			// Superseded by a newer selection or range change.
			r.mu.Unlock()
			return
		}
		if err != nil {
			log.Printf("reconciler: fetch %s %s: %v", symbol, rng, err)
			r.phase = PhaseFailed
			r.series = nil
			r.stats = stats
			r.errMsg = FetchErrMessage
		} else {
			r.phase = PhaseLoaded
			r.series = series
			r.stats = stats
			r.errMsg = ""
		}
		r.notifyLocked()
	}()
}

func (r *Reconciler) clearPanelLocked() {
	// Invalidate any fetch still in flight for the old selection.
	r.token++
	r.phase = PhaseEmpty
	r.series = nil
	r.stats = domain.MarketStats{}
	r.errMsg = ""
}

func (r *Reconciler) snapshotLocked() Snapshot {
	return Snapshot{
		Symbols:  r.symbols,
		Selected: r.selected,
		Range:    r.rng,
		Phase:    r.phase,
		Series:   r.series,
		Stats:    r.stats,
		ErrMsg:   r.errMsg,
	}
}

// notifyLocked releases the lock and fires the change callback.
func (r *Reconciler) notifyLocked() {
	snap := r.snapshotLocked()
	r.mu.Unlock()
	if r.onChange != nil {
		r.onChange(snap)
	}
}

func contains(symbols []string, s string) bool {
	if s == "" {
		return false
	}
	for _, sym := range symbols {
		if sym == s {
			return true
		}
	}
	return false
}
