package handler

import (
	"errors"
	"net/http"

	"novatrade/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// GetWatchlist godoc
// @Summary      Get the watchlist
// @Description  Returns the signed-in user's watchlist symbols in order
// @Tags         watchlist
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Router       /api/watchlist [get]
func (h *Handler) GetWatchlist(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-watchlist")
	defer span.End()

	symbols, err := h.watchlistService.Get(ctx, currentUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load watchlist"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"symbols": symbols})
}

// AddToWatchlist godoc
// @Summary      Add a symbol to the watchlist
// @Description  Appends a symbol, rejecting duplicates and lists at capacity
// @Tags         watchlist
// @Produce      json
// @Security     BearerAuth
// @Param        symbol  path  string  true  "Ticker symbol (e.g., AAPL)"
// @Success      200  {object}  map[string]string
// @Failure      400  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /api/watchlist/{symbol} [post]
func (h *Handler) AddToWatchlist(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.add-to-watchlist")
	defer span.End()

	symbol := c.Param("symbol")
	span.SetAttributes(attribute.String("symbol", symbol))

	err := h.watchlistService.Add(ctx, currentUserID(c), symbol)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"symbol": domain.NormalizeSymbol(symbol)})
	case errors.Is(err, domain.ErrEmptySymbol):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrDuplicateSymbol), errors.Is(err, domain.ErrWatchlistFull):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update watchlist"})
	}
}

// RemoveFromWatchlist godoc
// @Summary      Remove a symbol from the watchlist
// @Description  Removes a symbol; removing an absent symbol is a no-op
// @Tags         watchlist
// @Produce      json
// @Security     BearerAuth
// @Param        symbol  path  string  true  "Ticker symbol (e.g., AAPL)"
// @Success      200  {object}  map[string]string
// @Router       /api/watchlist/{symbol} [delete]
func (h *Handler) RemoveFromWatchlist(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.remove-from-watchlist")
	defer span.End()

	symbol := c.Param("symbol")
	span.SetAttributes(attribute.String("symbol", symbol))

	if err := h.watchlistService.Remove(ctx, currentUserID(c), symbol); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update watchlist"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"symbol": domain.NormalizeSymbol(symbol)})
}
