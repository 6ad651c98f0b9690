package watchlist

import (
	"context"
	"log"
	"slices"

	"novatrade/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

// Repository is the per-user symbol-list store.
type Repository interface {
	Get(ctx context.Context, userID int64) (symbols []string, exists bool, err error)
	Create(ctx context.Context, userID int64, symbols []string) error
	SetSymbols(ctx context.Context, userID int64, symbols []string) error
}

// Notifier fans watchlist-change signals out across sessions. The signal
// carries no payload: receivers re-read the store so every push reflects the
// full list as stored.
type Notifier interface {
	Publish(ctx context.Context, userID int64) error
	Listen(ctx context.Context, userID int64) (events <-chan struct{}, stop func())
}

// Service wraps the watchlist document behind add/remove/subscribe with the
// capacity and duplicate rules applied on normalized symbols.
type Service struct {
	tracer   trace.Tracer
	repo     Repository
	notifier Notifier
}

func NewService(tracer trace.Tracer, repo Repository, notifier Notifier) *Service {
	return &Service{tracer: tracer, repo: repo, notifier: notifier}
}

// Get returns the user's current watchlist; a user with no record reads as
// an empty list.
func (s *Service) Get(ctx context.Context, userID int64) ([]string, error) {
	_, span := s.tracer.Start(ctx, "watchlist.get")
	defer span.End()

	symbols, _, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return symbols, nil
}

// Add appends a normalized symbol. ErrWatchlistFull and ErrDuplicateSymbol
// are the only domain failures; a first-ever add creates the record outright.
// The read-modify-write is not atomic against other sessions of the same
// user, which can transiently bypass the capacity check.
func (s *Service) Add(ctx context.Context, userID int64, symbol string) error {
	_, span := s.tracer.Start(ctx, "watchlist.add")
	defer span.End()

	sym := domain.NormalizeSymbol(symbol)
	if sym == "" {
		return domain.ErrEmptySymbol
	}

	symbols, exists, err := s.repo.Get(ctx, userID)
	if err != nil {
		return err
	}

	if !exists {
		if err := s.repo.Create(ctx, userID, []string{sym}); err != nil {
			return err
		}
		s.publish(ctx, userID)
		return nil
	}

	if len(symbols) >= domain.MaxWatchlistSize {
		return domain.ErrWatchlistFull
	}
	if slices.Contains(symbols, sym) {
		return domain.ErrDuplicateSymbol
	}

	if err := s.repo.SetSymbols(ctx, userID, append(symbols, sym)); err != nil {
		return err
	}
	s.publish(ctx, userID)
	return nil
}

// Remove deletes a symbol. Removing an absent symbol is not an error.
func (s *Service) Remove(ctx context.Context, userID int64, symbol string) error {
	_, span := s.tracer.Start(ctx, "watchlist.remove")
	defer span.End()

	sym := domain.NormalizeSymbol(symbol)

	symbols, exists, err := s.repo.Get(ctx, userID)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}

	idx := slices.Index(symbols, sym)
	if idx < 0 {
		return nil
	}

	if err := s.repo.SetSymbols(ctx, userID, slices.Delete(symbols, idx, idx+1)); err != nil {
		return err
	}
	s.publish(ctx, userID)
	return nil
}

// Subscribe pushes the full current list immediately and again after every
// change until unsubscribe is called or ctx is cancelled. A missing record
// pushes an empty list. The channel always carries the latest snapshot: if
// the consumer lags, stale snapshots are dropped in favor of newer ones.
func (s *Service) Subscribe(ctx context.Context, userID int64) (<-chan []string, func(), error) {
	_, span := s.tracer.Start(ctx, "watchlist.subscribe")
	defer span.End()

	symbols, _, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	if symbols == nil {
		symbols = []string{}
	}

	updates := make(chan []string, 1)
	updates <- symbols

	events, stopListening := s.notifier.Listen(ctx, userID)
	done := make(chan struct{})

	go func() {
		defer close(updates)
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case _, ok := <-events:
				if !ok {
					return
				}
				current, _, err := s.repo.Get(ctx, userID)
				if err != nil {
					log.Printf("watchlist re-read after change failed for user %d: %v", userID, err)
					continue
				}
				if current == nil {
					current = []string{}
				}
				// Latest snapshot wins. This goroutine is the only sender,
				// so draining one slot before sending cannot race.
				select {
				case updates <- current:
				default:
					select {
					case <-updates:
					default:
					}
					updates <- current
				}
			}
		}
	}()

	var stopped bool
	unsubscribe := func() {
		if stopped {
			return
		}
		stopped = true
		stopListening()
		close(done)
	}

	return updates, unsubscribe, nil
}

func (s *Service) publish(ctx context.Context, userID int64) {
	if err := s.notifier.Publish(ctx, userID); err != nil {
		log.Printf("watchlist change publish failed for user %d: %v", userID, err)
	}
}
