package job

import (
	"context"
	"log"
	"time"

	"novatrade/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

// QuotePoller periodically refreshes current quotes for every symbol on any
// user's watchlist and warms the Redis cache with them, so dashboards and the
// bot read recent prices without hitting the provider per request.
type QuotePoller struct {
	tracer       trace.Tracer
	symbols      SymbolLister
	quotes       QuoteFetcher
	cache        QuoteCache
	pollInterval time.Duration
}

type SymbolLister interface {
	AllSymbols(ctx context.Context) ([]string, error)
}

// QuoteFetcher is fail-soft: a nil quote means the provider had nothing.
type QuoteFetcher interface {
	Quote(ctx context.Context, symbol string) *domain.Quote
}

type QuoteCache interface {
	PutQuote(ctx context.Context, quote *domain.Quote, ttl time.Duration) error
}

func NewQuotePoller(tracer trace.Tracer, symbols SymbolLister, quotes QuoteFetcher, cache QuoteCache, pollIntervalSecs int) *QuotePoller {
	return &QuotePoller{
		tracer:       tracer,
		symbols:      symbols,
		quotes:       quotes,
		cache:        cache,
		pollInterval: time.Duration(pollIntervalSecs) * time.Second,
	}
}

// Start launches the polling loop. Blocks until ctx is cancelled.
func (p *QuotePoller) Start(ctx context.Context) {
	log.Println("Quote poller starting...")

	// Run immediately on start
	p.refreshQuotes(ctx)

	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Quote poller stopped")
			return
		case <-ticker.C:
			p.refreshQuotes(ctx)
		}
	}
}

func (p *QuotePoller) refreshQuotes(ctx context.Context) {
	ctx, span := p.tracer.Start(ctx, "quotePoller.refreshQuotes")
	defer span.End()

	symbols, err := p.symbols.AllSymbols(ctx)
	if err != nil {
		log.Printf("quote poller: list symbols: %v", err)
		return
	}

	for _, symbol := range symbols {
		quote := p.quotes.Quote(ctx, symbol)
		if quote == nil {
			continue
		}
		// TTL of two intervals keeps entries alive across a single missed poll.
		if err := p.cache.PutQuote(ctx, quote, 2*p.pollInterval); err != nil {
			log.Printf("quote poller: cache %s: %v", symbol, err)
		}
	}
}
