package handler

import (
	"novatrade/internal/auth"
	"novatrade/internal/service"
	"novatrade/internal/watchlist"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

type Handler struct {
	tracer           trace.Tracer
	authService      *auth.Service
	watchlistService *watchlist.Service
	marketService    *service.MarketService
	quoteCache       QuoteReader
}

func New(tracer trace.Tracer, authService *auth.Service, watchlistService *watchlist.Service, marketService *service.MarketService, quoteCache QuoteReader) *Handler {
	return &Handler{
		tracer:           tracer,
		authService:      authService,
		watchlistService: watchlistService,
		marketService:    marketService,
		quoteCache:       quoteCache,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)

	r.POST("/api/auth/signup", h.SignUp)
	r.POST("/api/auth/signin", h.SignIn)

	authed := r.Group("/api", SessionAuth(h.authService))
	authed.POST("/auth/signout", h.SignOut)
	authed.GET("/watchlist", h.GetWatchlist)
	authed.POST("/watchlist/:symbol", h.AddToWatchlist)
	authed.DELETE("/watchlist/:symbol", h.RemoveFromWatchlist)
	authed.GET("/search", h.SearchSymbols)
	authed.GET("/quote/:symbol", h.GetQuote)
	authed.GET("/chart/:symbol", h.GetChart)
}
