package provider

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel/trace"
)

var testTracer = trace.NewNoopTracerProvider().Tracer("test")

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(body string) *http.Response {
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(bytes.NewReader([]byte(body))),
		Header:     make(http.Header),
	}
}

func newTestFinnhub(t *testing.T, rt roundTripFunc) *FinnhubProvider {
	t.Helper()
	p := NewFinnhubProvider(testTracer, "test-token")
	p.baseURL = "http://example"
	p.client = &http.Client{Transport: rt}
	p.limiter = NewRateLimiter(100, time.Millisecond)
	return p
}

func TestFinnhubSearchFiltersTypesAndDots(t *testing.T) {
	t.Parallel()

	var calls int
	p := newTestFinnhub(t, func(req *http.Request) (*http.Response, error) {
		calls++
		if !strings.Contains(req.URL.Path, "/search") {
			t.Fatalf("unexpected path: %s", req.URL.Path)
		}
		if req.URL.Query().Get("q") != "app" {
			t.Fatalf("unexpected query: %s", req.URL.RawQuery)
		}
		return jsonResponse(`{"count":4,"result":[
			{"symbol":"AAPL","description":"APPLE INC","type":"Common Stock"},
			{"symbol":"AAPL.MX","description":"APPLE INC","type":"Common Stock"},
			{"symbol":"APLE","description":"APPLE HOSPITALITY","type":"REIT"},
			{"symbol":"AAPU","description":"DIREXION AAPL BULL","type":"ETP"}]}`), nil
	})

	results, err := p.SearchSymbols(context.Background(), "app")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected one request, got %d", calls)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d: %+v", len(results), results)
	}
	if results[0].Symbol != "AAPL" || results[1].Symbol != "AAPU" {
		t.Fatalf("unexpected filtering/order: %+v", results)
	}
}

func TestFinnhubSearchWithoutTokenSkipsNetwork(t *testing.T) {
	t.Parallel()

	p := NewFinnhubProvider(testTracer, "")
	p.client = &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		t.Fatal("no network call expected without a token")
		return nil, nil
	})}

	results, err := p.SearchSymbols(context.Background(), "aapl")
	if err != nil || results != nil {
		t.Fatalf("expected empty result without token, got %v %v", results, err)
	}
}

func TestFinnhubQuote(t *testing.T) {
	t.Parallel()

	p := newTestFinnhub(t, func(req *http.Request) (*http.Response, error) {
		if !strings.Contains(req.URL.Path, "/quote") {
			t.Fatalf("unexpected path: %s", req.URL.Path)
		}
		return jsonResponse(`{"c":189.95,"d":1.2,"dp":0.64,"t":1714000000}`), nil
	})

	quote, err := p.Quote(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if quote == nil || quote.Current != 189.95 || quote.ChangePct != 0.64 {
		t.Fatalf("unexpected quote: %+v", quote)
	}
}

func TestFinnhubQuoteUnknownSymbolIsAbsent(t *testing.T) {
	t.Parallel()

	p := newTestFinnhub(t, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(`{"c":0,"d":null,"dp":null,"t":0}`), nil
	})

	quote, err := p.Quote(context.Background(), "NOPE")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if quote != nil {
		t.Fatalf("expected absent quote, got %+v", quote)
	}
}

func TestFinnhubProfileScalesMarketCap(t *testing.T) {
	t.Parallel()

	p := newTestFinnhub(t, func(req *http.Request) (*http.Response, error) {
		if !strings.Contains(req.URL.Path, "/stock/profile2") {
			t.Fatalf("unexpected path: %s", req.URL.Path)
		}
		return jsonResponse(`{"name":"Apple Inc","ticker":"AAPL","marketCapitalization":1234.5}`), nil
	})

	profile, err := p.Profile(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if profile == nil || profile.MarketCap != 1234.5e6 {
		t.Fatalf("expected market cap in base units, got %+v", profile)
	}
}

func TestFinnhubProfileEmptyIsAbsent(t *testing.T) {
	t.Parallel()

	p := newTestFinnhub(t, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(`{}`), nil
	})

	profile, err := p.Profile(context.Background(), "NOPE")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if profile != nil {
		t.Fatalf("expected absent profile, got %+v", profile)
	}
}

func TestFinnhubErrorStatusSurfacesError(t *testing.T) {
	t.Parallel()

	p := newTestFinnhub(t, func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusTooManyRequests,
			Body:       io.NopCloser(strings.NewReader("limit")),
			Header:     make(http.Header),
		}, nil
	})

	if _, err := p.Quote(context.Background(), "AAPL"); err == nil {
		t.Fatal("expected error on non-200 status")
	}
}
