package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"novatrade/internal/auth"
	"novatrade/internal/bot"
	"novatrade/internal/cache"
	"novatrade/internal/config"
	"novatrade/internal/db"
	"novatrade/internal/handler"
	"novatrade/internal/job"
	"novatrade/internal/provider"
	"novatrade/internal/repository"
	"novatrade/internal/service"
	"novatrade/internal/watchlist"
	"novatrade/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"

	_ "novatrade/docs"
)

var (
	loadEnvFunc            = godotenv.Load
	loadConfigFunc         = config.Load
	initPostgresFunc       = db.InitPostgres
	initRedisFunc          = cache.InitRedis
	initTracerFunc         = tracing.InitTracer
	newUserRepoFunc        = repository.NewUserRepository
	newWatchlistRepoFunc   = repository.NewWatchlistRepository
	newFinnhubProviderFunc = func(tracer trace.Tracer, token string) service.QuoteProvider {
		return provider.NewFinnhubProvider(tracer, token)
	}
	newYahooProviderFunc = func(tracer trace.Tracer, proxyURL string) service.CandleProvider {
		return provider.NewYahooProvider(tracer, proxyURL)
	}
	newMarketServiceFunc   = service.NewMarketService
	newQuotePollerFunc     = job.NewQuotePoller
	startPollerFunc        = func(p *job.QuotePoller, ctx context.Context) { go p.Start(ctx) }
	startTelegramBotFunc   = bot.StartTelegramBot
	newHandlerFunc         = handler.New
	newRouterFunc          = gin.Default
	setupSignalNotify      = signal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

// @title           NovaTrade API
// @version         1.0
// @description     Stock watchlist dashboard backend.

// @host      localhost:8080
// @BasePath  /
func main() {
	loadEnvFunc()

	cfg := loadConfigFunc()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init Postgres and Redis
	os.Setenv("DATABASE_URL", cfg.DatabaseURL)
	os.Setenv("REDIS_URL", cfg.RedisURL)
	initPostgresFunc(ctx)
	initRedisFunc(ctx)

	// Init tracing
	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("error shutting down tracer provider: %v", err)
		}
	}()

	// Repositories
	userRepo := newUserRepoFunc(db.Pool, tracer)
	watchlistRepo := newWatchlistRepoFunc(db.Pool, tracer)

	// Services
	authService := auth.NewService(tracer, userRepo, cache.Client)
	watchlistService := watchlist.NewService(tracer, watchlistRepo, watchlist.NewRedisNotifier(cache.Client))
	finnhub := newFinnhubProviderFunc(tracer, cfg.FinnhubAPIKey)
	yahoo := newYahooProviderFunc(tracer, cfg.CandleProxyURL)
	marketService := newMarketServiceFunc(tracer, finnhub, yahoo)

	// Background quote refresh (stopped by ctx cancel)
	quoteStore := cache.NewQuoteStore(cache.Client)
	poller := newQuotePollerFunc(tracer, watchlistRepo, marketService, quoteStore, cfg.QuotePollSecs)
	startPollerFunc(poller, ctx)

	// Telegram bot
	os.Setenv("TELEGRAM_BOT_TOKEN", cfg.TelegramBotToken)
	startTelegramBotFunc(marketService, quoteStore)

	// Routes
	h := newHandlerFunc(tracer, authService, watchlistService, marketService, quoteStore)

	r := newRouterFunc()
	r.Use(otelgin.Middleware("novatrade"))

	h.RegisterRoutes(r)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: r,
	}

	go func() {
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Println("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
