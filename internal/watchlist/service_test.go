package watchlist

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"
	"time"

	"novatrade/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

var testTracer = trace.NewNoopTracerProvider().Tracer("test")

type fakeRepo struct {
	lists map[int64][]string

	getErr error
	setErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{lists: make(map[int64][]string)}
}

func (f *fakeRepo) Get(ctx context.Context, userID int64) ([]string, bool, error) {
	if f.getErr != nil {
		return nil, false, f.getErr
	}
	symbols, ok := f.lists[userID]
	return slices.Clone(symbols), ok, nil
}

func (f *fakeRepo) Create(ctx context.Context, userID int64, symbols []string) error {
	f.lists[userID] = slices.Clone(symbols)
	return nil
}

func (f *fakeRepo) SetSymbols(ctx context.Context, userID int64, symbols []string) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.lists[userID] = slices.Clone(symbols)
	return nil
}

// fakeNotifier delivers published events to every listener in-process.
type fakeNotifier struct {
	listeners []chan struct{}
	published int
}

func (f *fakeNotifier) Publish(ctx context.Context, userID int64) error {
	f.published++
	for _, ch := range f.listeners {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	return nil
}

func (f *fakeNotifier) Listen(ctx context.Context, userID int64) (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	f.listeners = append(f.listeners, ch)
	return ch, func() {}
}

func newTestService() (*Service, *fakeRepo, *fakeNotifier) {
	repo := newFakeRepo()
	notifier := &fakeNotifier{}
	return NewService(testTracer, repo, notifier), repo, notifier
}

func TestAddFirstSymbolCreatesRecord(t *testing.T) {
	t.Parallel()

	svc, repo, notifier := newTestService()

	if err := svc.Add(context.Background(), 1, "aapl"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := repo.lists[1]; len(got) != 1 || got[0] != "AAPL" {
		t.Fatalf("expected normalized single-element list, got %v", got)
	}
	if notifier.published != 1 {
		t.Fatalf("expected one publish, got %d", notifier.published)
	}
}

func TestAddDuplicateCaseInsensitive(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService()
	ctx := context.Background()

	if err := svc.Add(ctx, 1, "AAPL"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.Add(ctx, 1, "aapl"); !errors.Is(err, domain.ErrDuplicateSymbol) {
		t.Fatalf("expected ErrDuplicateSymbol, got %v", err)
	}
}

func TestAddCapacityExceeded(t *testing.T) {
	t.Parallel()

	svc, repo, _ := newTestService()
	ctx := context.Background()

	full := make([]string, domain.MaxWatchlistSize)
	for i := range full {
		full[i] = fmt.Sprintf("SYM%d", i)
	}
	repo.lists[1] = full

	err := svc.Add(ctx, 1, "EXTRA")
	if !errors.Is(err, domain.ErrWatchlistFull) {
		t.Fatalf("expected ErrWatchlistFull, got %v", err)
	}
	if len(repo.lists[1]) != domain.MaxWatchlistSize {
		t.Fatalf("watchlist changed after rejected add: %d entries", len(repo.lists[1]))
	}
}

func TestAddEmptySymbol(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService()
	if err := svc.Add(context.Background(), 1, "   "); !errors.Is(err, domain.ErrEmptySymbol) {
		t.Fatalf("expected ErrEmptySymbol, got %v", err)
	}
}

func TestRemoveIsIdempotent(t *testing.T) {
	t.Parallel()

	svc, repo, notifier := newTestService()
	ctx := context.Background()

	repo.lists[1] = []string{"AAPL", "MSFT"}

	if err := svc.Remove(ctx, 1, "aapl"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := repo.lists[1]; len(got) != 1 || got[0] != "MSFT" {
		t.Fatalf("unexpected list after remove: %v", got)
	}

	published := notifier.published
	if err := svc.Remove(ctx, 1, "AAPL"); err != nil {
		t.Fatalf("removing absent symbol should not error: %v", err)
	}
	if notifier.published != published {
		t.Fatal("removing an absent symbol should not publish a change")
	}

	if err := svc.Remove(ctx, 99, "AAPL"); err != nil {
		t.Fatalf("removing for user without record should not error: %v", err)
	}
}

func TestSubscribePushesImmediately(t *testing.T) {
	t.Parallel()

	svc, repo, _ := newTestService()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo.lists[1] = []string{"AAPL"}

	updates, unsubscribe, err := svc.Subscribe(ctx, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer unsubscribe()

	select {
	case got := <-updates:
		if len(got) != 1 || got[0] != "AAPL" {
			t.Fatalf("unexpected initial snapshot: %v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("no immediate snapshot")
	}
}

func TestSubscribeMissingRecordPushesEmpty(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates, unsubscribe, err := svc.Subscribe(ctx, 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer unsubscribe()

	select {
	case got := <-updates:
		if got == nil || len(got) != 0 {
			t.Fatalf("expected empty (non-nil) snapshot, got %v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("no immediate snapshot")
	}
}

func TestSubscribeObservesChanges(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates, unsubscribe, err := svc.Subscribe(ctx, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer unsubscribe()

	<-updates // initial empty snapshot

	if err := svc.Add(ctx, 1, "MSFT"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	select {
	case got := <-updates:
		if len(got) != 1 || got[0] != "MSFT" {
			t.Fatalf("unexpected pushed snapshot: %v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("no push after change")
	}
}

func TestUnsubscribeClosesStream(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService()
	ctx := context.Background()

	updates, unsubscribe, err := svc.Subscribe(ctx, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	<-updates
	unsubscribe()
	unsubscribe() // calling twice must be safe

	select {
	case _, ok := <-updates:
		if ok {
			t.Fatal("expected closed channel after unsubscribe")
		}
	case <-time.After(time.Second):
		t.Fatal("stream not closed after unsubscribe")
	}
}
