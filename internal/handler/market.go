package handler

import (
	"context"
	"log"
	"net/http"
	"strings"

	"novatrade/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// QuoteReader serves quotes warmed by the poller. A nil quote with a nil
// error means the symbol has not been polled (or the entry expired).
type QuoteReader interface {
	GetQuote(ctx context.Context, symbol string) (*domain.Quote, error)
}

// SearchSymbols godoc
// @Summary      Search ticker symbols
// @Description  Returns up to 5 common stocks and ETPs matching the query
// @Tags         market
// @Produce      json
// @Security     BearerAuth
// @Param        q  query  string  true  "Search text"
// @Success      200  {object}  map[string]interface{}
// @Router       /api/search [get]
func (h *Handler) SearchSymbols(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.search-symbols")
	defer span.End()

	query := c.Query("q")
	span.SetAttributes(attribute.String("query", query))

	results := h.marketService.Search(ctx, query)
	if results == nil {
		results = []domain.SearchResult{}
	}

	c.JSON(http.StatusOK, gin.H{"results": results})
}

// GetQuote godoc
// @Summary      Get a current quote
// @Description  Returns the poller-warmed price and percent change for a symbol; 404 until the poller has seen it
// @Tags         market
// @Produce      json
// @Security     BearerAuth
// @Param        symbol  path  string  true  "Ticker symbol (e.g., AAPL)"
// @Success      200  {object}  domain.Quote
// @Failure      404  {object}  map[string]string
// @Router       /api/quote/{symbol} [get]
func (h *Handler) GetQuote(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-quote")
	defer span.End()

	symbol := domain.NormalizeSymbol(c.Param("symbol"))
	span.SetAttributes(attribute.String("symbol", symbol))

	quote, err := h.quoteCache.GetQuote(ctx, symbol)
	if err != nil {
		log.Printf("warm quote read failed for %s: %v", symbol, err)
	}
	if quote == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no quote for " + symbol})
		return
	}

	c.JSON(http.StatusOK, quote)
}

// GetChart godoc
// @Summary      Get chart data and stats
// @Description  Returns the candle series and header stats for a symbol and range
// @Tags         market
// @Produce      json
// @Security     BearerAuth
// @Param        symbol  path   string  true   "Ticker symbol (e.g., AAPL)"
// @Param        range   query  string  false  "Chart range (1D, 1W, 1M, 3M, 1Y)"  default(1M)
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/chart/{symbol} [get]
func (h *Handler) GetChart(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-chart")
	defer span.End()

	symbol := domain.NormalizeSymbol(c.Param("symbol"))
	span.SetAttributes(attribute.String("symbol", symbol))

	rng, err := domain.ParseRange(strings.ToUpper(c.DefaultQuery("range", string(domain.DefaultRange))))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":            "unsupported range: " + c.Query("range"),
			"supported_ranges": domain.SupportedRanges,
		})
		return
	}

	series, stats, err := h.marketService.Overview(ctx, symbol, rng)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to fetch stock data"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"symbol":     symbol,
		"range":      rng,
		"series":     series,
		"market_cap": domain.FormatMarketCap(stats.MarketCap),
		"volume":     domain.FormatVolume(stats.Volume),
		"avg_volume": domain.FormatVolume(stats.AvgVolume),
	})
}
