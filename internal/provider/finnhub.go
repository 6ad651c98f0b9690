package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"novatrade/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

const finnhubBaseURL = "https://finnhub.io/api/v1"

// allowedSearchTypes restricts search results to listings we can chart.
var allowedSearchTypes = map[string]bool{
	"Common Stock": true,
	"ETP":          true,
}

// FinnhubProvider fetches quotes, company profiles, and symbol search results
// from the Finnhub REST API.
type FinnhubProvider struct {
	client  *http.Client
	baseURL string
	token   string
	tracer  trace.Tracer
	limiter *RateLimiter
}

// NewFinnhubProvider creates a provider with built-in rate limiting.
// The free tier allows 60 requests per minute (one token per second).
// An empty token degrades every call to an empty result without a network hit.
func NewFinnhubProvider(tracer trace.Tracer, token string) *FinnhubProvider {
	if token == "" {
		log.Println("Warning: Finnhub API token not set, quotes/profiles/search will be empty")
	}
	return &FinnhubProvider{
		client:  &http.Client{Timeout: 15 * time.Second},
		baseURL: finnhubBaseURL,
		token:   token,
		tracer:  tracer,
		limiter: NewRateLimiter(60, time.Second),
	}
}

// SearchSymbols queries /search and filters the results down to common stock
// and ETP listings without a "." in the symbol. Order is provider order.
func (p *FinnhubProvider) SearchSymbols(ctx context.Context, query string) ([]domain.SearchResult, error) {
	_, span := p.tracer.Start(ctx, "finnhub.search-symbols")
	defer span.End()

	if p.token == "" {
		return nil, nil
	}

	u := fmt.Sprintf("%s/search?q=%s&token=%s", p.baseURL, url.QueryEscape(query), p.token)
	body, err := p.doRequest(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}

	var raw struct {
		Result []struct {
			Symbol      string `json:"symbol"`
			Description string `json:"description"`
			Type        string `json:"type"`
		} `json:"result"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parse search %q: %w", query, err)
	}

	var results []domain.SearchResult
	for _, item := range raw.Result {
		if !allowedSearchTypes[item.Type] || strings.Contains(item.Symbol, ".") {
			continue
		}
		results = append(results, domain.SearchResult{
			Symbol:      item.Symbol,
			Description: item.Description,
			Type:        item.Type,
		})
	}
	return results, nil
}

// Quote fetches the current price snapshot for a symbol. Returns nil when
// the upstream has no data for the symbol.
func (p *FinnhubProvider) Quote(ctx context.Context, symbol string) (*domain.Quote, error) {
	_, span := p.tracer.Start(ctx, "finnhub.quote")
	defer span.End()

	if p.token == "" {
		return nil, nil
	}

	u := fmt.Sprintf("%s/quote?symbol=%s&token=%s", p.baseURL, url.QueryEscape(symbol), p.token)
	body, err := p.doRequest(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("quote %s: %w", symbol, err)
	}

	var raw struct {
		Current   float64 `json:"c"`
		ChangePct float64 `json:"dp"`
		Timestamp int64   `json:"t"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parse quote %s: %w", symbol, err)
	}

	// Finnhub answers unknown symbols with an all-zero quote.
	if raw.Current == 0 && raw.Timestamp == 0 {
		return nil, nil
	}

	return &domain.Quote{
		Symbol:    symbol,
		Current:   raw.Current,
		ChangePct: raw.ChangePct,
		FetchedAt: time.Now().Unix(),
	}, nil
}

// Profile fetches /stock/profile2 and normalizes market capitalization from
// the upstream's millions into base currency units. Returns nil when the
// upstream has no profile for the symbol.
func (p *FinnhubProvider) Profile(ctx context.Context, symbol string) (*domain.Profile, error) {
	_, span := p.tracer.Start(ctx, "finnhub.profile")
	defer span.End()

	if p.token == "" {
		return nil, nil
	}

	u := fmt.Sprintf("%s/stock/profile2?symbol=%s&token=%s", p.baseURL, url.QueryEscape(symbol), p.token)
	body, err := p.doRequest(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", symbol, err)
	}

	var raw struct {
		Name      string  `json:"name"`
		Ticker    string  `json:"ticker"`
		MarketCap float64 `json:"marketCapitalization"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parse profile %s: %w", symbol, err)
	}

	if raw.Ticker == "" && raw.Name == "" {
		return nil, nil
	}

	return &domain.Profile{
		Symbol:    symbol,
		Name:      raw.Name,
		MarketCap: raw.MarketCap * 1e6,
	}, nil
}

func (p *FinnhubProvider) doRequest(ctx context.Context, url string) ([]byte, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("finnhub API error %d: %s", resp.StatusCode, string(body))
	}

	return io.ReadAll(resp.Body)
}
