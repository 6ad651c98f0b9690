package search

import (
	"context"
	"strings"
	"sync"
	"time"

	"novatrade/internal/domain"
)

// DefaultDebounce is how long input must pause before a query is issued.
const DefaultDebounce = 300 * time.Millisecond

// State is the search box lifecycle.
type State int

const (
	Idle State = iota
	Debouncing
	Querying
	Displaying
)

func (s State) String() string {
	switch s {
	case Debouncing:
		return "debouncing"
	case Querying:
		return "querying"
	case Displaying:
		return "displaying"
	default:
		return "idle"
	}
}

// Searcher is the gateway's symbol search. It is fail-soft: errors surface
// as an empty result set, so this session has no failure state of its own.
type Searcher interface {
	Search(ctx context.Context, query string) []domain.SearchResult
}

// Snapshot is the externally visible search box state.
type Snapshot struct {
	State   State
	Query   string
	Results []domain.SearchResult
}

// Session is a debounced, supersede-safe search box. Every keystroke resets
// the debounce timer; when it expires a query is issued carrying a sequence
// number, and any response whose sequence is no longer the latest issued is
// discarded. That guarantees last-request-wins even though in-flight queries
// are never cancelled.
type Session struct {
	mu       sync.Mutex
	searcher Searcher
	debounce time.Duration
	onChange func(Snapshot)

	timer   *time.Timer
	seq     uint64
	state   State
	query   string
	results []domain.SearchResult
}

// NewSession creates a search session. onChange is invoked, without the
// internal lock held, after every state transition; it may be nil.
func NewSession(searcher Searcher, debounce time.Duration, onChange func(Snapshot)) *Session {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Session{searcher: searcher, debounce: debounce, onChange: onChange}
}

// SetQuery records a keystroke. An empty trimmed query clears results and
// returns to Idle immediately; anything else (re)starts the debounce timer.
func (s *Session) SetQuery(ctx context.Context, query string) {
	s.mu.Lock()
	s.stopTimerLocked()
	s.query = query

	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		// A cleared box also invalidates any query still in flight.
		s.seq++
		s.state = Idle
		s.results = nil
		s.notifyLocked()
		return
	}

	s.state = Debouncing
	s.timer = time.AfterFunc(s.debounce, func() {
		s.runQuery(ctx, trimmed)
	})
	s.notifyLocked()
}

// Select reports that the user picked a result; the box resets to Idle with
// cleared text.
func (s *Session) Select() {
	s.reset()
}

// Dismiss reports a click outside the box; same reset as Select.
func (s *Session) Dismiss() {
	s.reset()
}

// Snapshot returns the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) reset() {
	s.mu.Lock()
	s.stopTimerLocked()
	s.seq++
	s.state = Idle
	s.query = ""
	s.results = nil
	s.notifyLocked()
}

func (s *Session) runQuery(ctx context.Context, query string) {
	s.mu.Lock()
	s.seq++
	mySeq := s.seq
	s.state = Querying
	s.notifyLocked()

	results := s.searcher.Search(ctx, query)

	s.mu.Lock()
	if mySeq != s.seq {
		// A newer query attempt superseded this one while it was in flight.
		s.mu.Unlock()
		return
	}
	s.state = Displaying
	s.results = results
	s.notifyLocked()
}

// stopTimerLocked cancels a pending debounce. A timer that already fired is
// harmless: its query picks up a stale sequence number and gets discarded.
func (s *Session) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{State: s.state, Query: s.query, Results: s.results}
}

// notifyLocked releases the lock and fires the change callback.
func (s *Session) notifyLocked() {
	snap := s.snapshotLocked()
	s.mu.Unlock()
	if s.onChange != nil {
		s.onChange(snap)
	}
}
