package main

import (
	"context"
	"fmt"
	"log"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"novatrade/internal/cache"
	"novatrade/internal/config"
	"novatrade/internal/db"
	"novatrade/internal/provider"
	"novatrade/internal/repository"
	"novatrade/internal/service"
	"novatrade/internal/tui"
	"novatrade/internal/watchlist"
	"novatrade/pkg/tracing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/bubbletea"
	"github.com/charmbracelet/wish/logging"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/otel/trace"
	gossh "golang.org/x/crypto/ssh"
)

// ctxKey is a typed context key to avoid collisions.
type ctxKey string

const sshUserKey ctxKey = "ssh_user"

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
	newMarketServiceFunc = service.NewMarketService
	newWishServerFunc    = wish.NewServer
	setupSignalNotify    = ossignal.Notify
	waitForSignalFunc    = func(quit <-chan os.Signal) { <-quit }
)

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

	// Repositories and services
	userRepo := newUserRepoFunc(db.Pool, tracer)
	watchlistRepo := newWatchlistRepoFunc(db.Pool, tracer)
	watchlistService := watchlist.NewService(tracer, watchlistRepo, watchlist.NewRedisNotifier(cache.Client))
	finnhub := newFinnhubProviderFunc(tracer, cfg.FinnhubAPIKey)
	yahoo := newYahooProviderFunc(tracer, cfg.CandleProxyURL)
	marketService := newMarketServiceFunc(tracer, finnhub, yahoo)

	// Build Wish SSH server
	addr := fmt.Sprintf("%s:%d", cfg.SSHBind, cfg.SSHPort)

	srv, err := newWishServerFunc(
		wish.WithAddress(addr),
		wish.WithHostKeyPath(cfg.SSHHostKeyPath),
		wish.WithPublicKeyAuth(func(ctx ssh.Context, key ssh.PublicKey) bool {
			fingerprint := gossh.FingerprintSHA256(key)
			user, err := userRepo.FindBySSHFingerprint(context.Background(), fingerprint)
			if err != nil || user == nil {
				log.Printf("SSH auth denied: fingerprint=%s err=%v", fingerprint, err)
				return false
			}
			ctx.SetValue(sshUserKey, user)
			_ = userRepo.UpdateLastLogin(context.Background(), user.ID)
			log.Printf("SSH auth accepted: user=%s fingerprint=%s", user.Email, fingerprint)
			return true
		}),
		wish.WithMiddleware(
			bubbletea.Middleware(func(s ssh.Session) (tea.Model, []tea.ProgramOption) {
				user, _ := s.Context().Value(sshUserKey).(*repository.User)

				email := "unknown"
				var userID int64
				if user != nil {
					email = user.Email
					userID = user.ID
				}

				model := tui.NewAppModel(tui.Services{
					Market:    marketService,
					Watchlist: watchlistService,
					UserID:    userID,
					Email:     email,
				})
				pty, _, _ := s.Pty()
				model.SetSize(pty.Window.Width, pty.Window.Height)

				return model, []tea.ProgramOption{tea.WithAltScreen()}
			}),
			logging.Middleware(),
		),
	)
	if err != nil {
		log.Fatalf("failed to create SSH server: %v", err)
	}

	if srv != nil {
		go func() {
			log.Printf("SSH server listening on %s", addr)
			if err := srv.ListenAndServe(); err != nil {
				log.Printf("SSH server stopped: %v", err)
			}
		}()
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Println("Shutting down SSH server...")

	cancel()

	if srv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("SSH server shutdown error: %v", err)
		}
	}

	log.Println("SSH server exited")
}
