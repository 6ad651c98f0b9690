package main

import (
	"context"
	"os"
	"testing"
	"time"

	"novatrade/internal/config"
	"novatrade/internal/service"

	"github.com/charmbracelet/ssh"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

func TestMainBootstrap(t *testing.T) {
	restore := stubSSHDeps()
	defer restore()

	done := make(chan struct{})
	go func() {
		main()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("main did not exit")
	}
}

func stubSSHDeps() func() {
	origLoadEnv := loadEnvFunc
	origLoadConfig := loadConfigFunc
	origInitPostgres := initPostgresFunc
	origInitRedis := initRedisFunc
	origInitTracer := initTracerFunc
	origNewFinnhub := newFinnhubProviderFunc
	origNewYahoo := newYahooProviderFunc
	origNewWishServer := newWishServerFunc
	origSetupSignal := setupSignalNotify
	origWait := waitForSignalFunc

	loadEnvFunc = func(...string) error { return nil }
	loadConfigFunc = func() *config.Config {
		return &config.Config{
			RedisURL:       "",
			DatabaseURL:    "",
			SSHBind:        "127.0.0.1",
			SSHPort:        2222,
			SSHHostKeyPath: ".ssh/test_key",
		}
	}
	initPostgresFunc = func(context.Context) {}
	initRedisFunc = func(context.Context) {}
	initTracerFunc = func(ctx context.Context) (*sdktrace.TracerProvider, trace.Tracer, error) {
		tp := sdktrace.NewTracerProvider()
		return tp, tp.Tracer("test"), nil
	}
	newFinnhubProviderFunc = func(trace.Tracer, string) service.QuoteProvider { return nil }
	newYahooProviderFunc = func(trace.Tracer, string) service.CandleProvider { return nil }
	newWishServerFunc = func(ops ...ssh.Option) (*ssh.Server, error) {
		return nil, nil
	}
	setupSignalNotify = func(c chan<- os.Signal, sig ...os.Signal) {}
	waitForSignalFunc = func(<-chan os.Signal) {}

	return func() {
		loadEnvFunc = origLoadEnv
		loadConfigFunc = origLoadConfig
		initPostgresFunc = origInitPostgres
		initRedisFunc = origInitRedis
		initTracerFunc = origInitTracer
		newFinnhubProviderFunc = origNewFinnhub
		newYahooProviderFunc = origNewYahoo
		newWishServerFunc = origNewWishServer
		setupSignalNotify = origSetupSignal
		waitForSignalFunc = origWait
	}
}
