package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"novatrade/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

const yahooBaseURL = "https://query1.finance.yahoo.com"

// YahooProvider fetches historical candles from the Yahoo Finance chart API,
// optionally through a pass-through proxy (the API itself blocks cross-origin
// callers and occasionally direct server traffic).
type YahooProvider struct {
	client   *http.Client
	baseURL  string
	proxyURL string
	tracer   trace.Tracer
}

// NewYahooProvider creates a chart provider. proxyURL, when non-empty, is a
// raw pass-through endpoint that takes the target URL as a "url" query param.
func NewYahooProvider(tracer trace.Tracer, proxyURL string) *YahooProvider {
	return &YahooProvider{
		client:   &http.Client{Timeout: 30 * time.Second},
		baseURL:  yahooBaseURL,
		proxyURL: proxyURL,
		tracer:   tracer,
	}
}

// yahooChart is the response structure of /v8/finance/chart. OHLCV fields are
// parallel arrays with JSON nulls for missing bars, hence the pointer slices.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// FetchCandles fetches and zips the chart arrays for (symbol, range) into an
// ordered candle series. Points with a null close are dropped, preserving the
// order of the remaining points. An empty series with a nil error means the
// upstream genuinely has no data in the range.
func (p *YahooProvider) FetchCandles(ctx context.Context, symbol string, r domain.Range) (domain.CandleSeries, error) {
	_, span := p.tracer.Start(ctx, "yahoo.fetch-candles")
	defer span.End()

	lookback, interval := r.ChartQuery()
	target := fmt.Sprintf("%s/v8/finance/chart/%s?range=%s&interval=%s",
		p.baseURL, url.PathEscape(symbol), lookback, interval)

	requestURL := target
	if p.proxyURL != "" {
		requestURL = fmt.Sprintf("%s?url=%s", p.proxyURL, url.QueryEscape(target))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch candles for %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read candles for %s: %w", symbol, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("chart API error %d: %s", resp.StatusCode, string(body))
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("parse candles for %s: %w", symbol, err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("chart API error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 {
		return domain.CandleSeries{}, nil
	}

	result := chart.Chart.Result[0]
	if len(result.Timestamp) == 0 || len(result.Indicators.Quote) == 0 {
		return domain.CandleSeries{}, nil
	}
	quote := result.Indicators.Quote[0]

	series := make(domain.CandleSeries, 0, len(result.Timestamp))
	lastTS := int64(0)
	for i, ts := range result.Timestamp {
		close := at(quote.Close, i)
		if close == nil {
			continue // gaps are dropped, not interpolated
		}
		if ts <= lastTS {
			continue // enforce strictly increasing timestamps
		}
		lastTS = ts

		series = append(series, domain.CandlePoint{
			Label:     domain.PointLabel(ts, r),
			Timestamp: ts,
			Close:     *close,
			Open:      deref(at(quote.Open, i)),
			High:      deref(at(quote.High, i)),
			Low:       deref(at(quote.Low, i)),
			Volume:    deref(at(quote.Volume, i)),
		})
	}

	return series, nil
}

func at(vals []*float64, i int) *float64 {
	if i >= len(vals) {
		return nil
	}
	return vals[i]
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
