package service

import (
	"context"
	"log"
	"strings"

	"novatrade/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

// maxSearchResults bounds the symbol-search dropdown.
const maxSearchResults = 5

// QuoteProvider is the quote/profile/search side of the market data gateway.
type QuoteProvider interface {
	Quote(ctx context.Context, symbol string) (*domain.Quote, error)
	Profile(ctx context.Context, symbol string) (*domain.Profile, error)
	SearchSymbols(ctx context.Context, query string) ([]domain.SearchResult, error)
}

// CandleProvider is the historical-candle side of the gateway.
type CandleProvider interface {
	FetchCandles(ctx context.Context, symbol string, r domain.Range) (domain.CandleSeries, error)
}

// MarketService normalizes the two upstream data sources behind one surface.
// Quote, Profile, and Search are fail-soft: any transport or parse error is
// logged and collapses to absent/empty, never an error. Candles keeps the
// error so callers can tell "no data in range" from "fetch failed". There is
// no caching here: every call is a fresh fetch.
type MarketService struct {
	tracer  trace.Tracer
	quotes  QuoteProvider
	candles CandleProvider
}

func NewMarketService(tracer trace.Tracer, quotes QuoteProvider, candles CandleProvider) *MarketService {
	return &MarketService{tracer: tracer, quotes: quotes, candles: candles}
}

// Quote returns the current price snapshot, or nil when unavailable. Callers
// render "unavailable", they do not retry.
func (s *MarketService) Quote(ctx context.Context, symbol string) *domain.Quote {
	ctx, span := s.tracer.Start(ctx, "market.quote")
	defer span.End()

	quote, err := s.quotes.Quote(ctx, symbol)
	if err != nil {
		log.Printf("quote fetch failed for %s: %v", symbol, err)
		return nil
	}
	return quote
}

// Profile returns the company profile with market cap in base units, or nil
// when unavailable.
func (s *MarketService) Profile(ctx context.Context, symbol string) *domain.Profile {
	ctx, span := s.tracer.Start(ctx, "market.profile")
	defer span.End()

	profile, err := s.quotes.Profile(ctx, symbol)
	if err != nil {
		log.Printf("profile fetch failed for %s: %v", symbol, err)
		return nil
	}
	return profile
}

// Candles fetches the series for (symbol, range). An empty series with a nil
// error means the range genuinely holds no data; a non-nil error means the
// fetch itself failed.
func (s *MarketService) Candles(ctx context.Context, symbol string, r domain.Range) (domain.CandleSeries, error) {
	ctx, span := s.tracer.Start(ctx, "market.candles")
	defer span.End()

	series, err := s.candles.FetchCandles(ctx, symbol, r)
	if err != nil {
		return nil, err
	}
	if series == nil {
		series = domain.CandleSeries{}
	}
	return series, nil
}

// Search returns at most five filtered results in provider order. An empty
// trimmed query short-circuits with no network call; errors collapse to an
// empty result set.
func (s *MarketService) Search(ctx context.Context, query string) []domain.SearchResult {
	ctx, span := s.tracer.Start(ctx, "market.search")
	defer span.End()

	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	results, err := s.quotes.SearchSymbols(ctx, query)
	if err != nil {
		log.Printf("symbol search failed for %q: %v", query, err)
		return nil
	}
	if len(results) > maxSearchResults {
		results = results[:maxSearchResults]
	}
	return results
}

// Overview fetches candles and profile concurrently and derives MarketStats
// once both settle. The profile leg is fail-soft; only a candle failure is an
// error, and it comes with placeholder stats.
func (s *MarketService) Overview(ctx context.Context, symbol string, r domain.Range) (domain.CandleSeries, domain.MarketStats, error) {
	ctx, span := s.tracer.Start(ctx, "market.overview")
	defer span.End()

	profileCh := make(chan *domain.Profile, 1)
	go func() {
		profileCh <- s.Profile(ctx, symbol)
	}()

	series, err := s.Candles(ctx, symbol, r)
	profile := <-profileCh
	if err != nil {
		return nil, domain.MarketStats{}, err
	}

	return series, domain.ComputeStats(series, profile), nil
}
