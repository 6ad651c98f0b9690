package job

import (
	"context"
	"sync"
	"testing"
	"time"

	"novatrade/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

type stubSymbolLister struct {
	symbols []string
	err     error
}

func (s *stubSymbolLister) AllSymbols(ctx context.Context) ([]string, error) {
	return s.symbols, s.err
}

type stubQuoteFetcher struct {
	mu     sync.Mutex
	quotes map[string]*domain.Quote
	calls  []string
}

func (s *stubQuoteFetcher) Quote(ctx context.Context, symbol string) *domain.Quote {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, symbol)
	return s.quotes[symbol]
}

type stubQuoteCache struct {
	mu     sync.Mutex
	quotes map[string]*domain.Quote
	ttls   map[string]time.Duration
}

func newStubQuoteCache() *stubQuoteCache {
	return &stubQuoteCache{quotes: make(map[string]*domain.Quote), ttls: make(map[string]time.Duration)}
}

func (s *stubQuoteCache) PutQuote(ctx context.Context, quote *domain.Quote, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quotes[quote.Symbol] = quote
	s.ttls[quote.Symbol] = ttl
	return nil
}

func (s *stubQuoteCache) get(symbol string) (*domain.Quote, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.quotes[symbol]
	return q, ok
}

func TestNewQuotePollerInterval(t *testing.T) {
	tracer := trace.NewNoopTracerProvider().Tracer("test")
	poller := NewQuotePoller(tracer, &stubSymbolLister{}, &stubQuoteFetcher{}, newStubQuoteCache(), 30)
	if poller.pollInterval != 30*time.Second {
		t.Fatalf("expected 30s interval, got %v", poller.pollInterval)
	}
}

func TestRefreshQuotesCachesEverySymbol(t *testing.T) {
	t.Parallel()

	tracer := trace.NewNoopTracerProvider().Tracer("test")
	fetcher := &stubQuoteFetcher{quotes: map[string]*domain.Quote{
		"AAPL": {Symbol: "AAPL", Current: 187.5, ChangePct: 1.2},
		"MSFT": {Symbol: "MSFT", Current: 410.0, ChangePct: -0.4},
	}}
	cache := newStubQuoteCache()
	poller := NewQuotePoller(tracer, &stubSymbolLister{symbols: []string{"AAPL", "MSFT"}}, fetcher, cache, 60)

	poller.refreshQuotes(context.Background())

	q, ok := cache.get("AAPL")
	if !ok {
		t.Fatal("AAPL quote not cached")
	}
	if q.Current != 187.5 {
		t.Fatalf("unexpected cached quote: %+v", q)
	}
	if cache.ttls["AAPL"] != 2*time.Minute {
		t.Fatalf("expected ttl of two intervals, got %v", cache.ttls["AAPL"])
	}
	if _, ok := cache.get("MSFT"); !ok {
		t.Fatal("MSFT quote not cached")
	}
}

func TestRefreshQuotesSkipsAbsentQuotes(t *testing.T) {
	t.Parallel()

	tracer := trace.NewNoopTracerProvider().Tracer("test")
	fetcher := &stubQuoteFetcher{quotes: map[string]*domain.Quote{}}
	cache := newStubQuoteCache()
	poller := NewQuotePoller(tracer, &stubSymbolLister{symbols: []string{"GONE"}}, fetcher, cache, 60)

	poller.refreshQuotes(context.Background())

	if _, ok := cache.get("GONE"); ok {
		t.Fatal("absent quote must not be cached")
	}
}

func TestQuotePollerStart(t *testing.T) {
	t.Parallel()

	tracer := trace.NewNoopTracerProvider().Tracer("test")
	fetcher := &stubQuoteFetcher{quotes: map[string]*domain.Quote{
		"AAPL": {Symbol: "AAPL", Current: 187.5},
	}}
	cache := newStubQuoteCache()
	poller := NewQuotePoller(tracer, &stubSymbolLister{symbols: []string{"AAPL"}}, fetcher, cache, 1)

	ctx, cancel := context.WithCancel(context.Background())
	go poller.Start(ctx)

	eventually(t, func() bool {
		_, ok := cache.get("AAPL")
		return ok
	})
	cancel()
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met")
}
