package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("FINNHUB_API_KEY", "")
	t.Setenv("CANDLE_PROXY_URL", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_URL", "")
	t.Setenv("HTTP_PORT", "")
	t.Setenv("QUOTE_POLL_SECS", "")
	t.Setenv("SSH_PORT", "")
	t.Setenv("SSH_HOST_KEY_PATH", "")

	cfg := Load()
	if cfg.RedisURL != "localhost:6379" {
		t.Fatalf("expected default redis url, got %s", cfg.RedisURL)
	}
	if cfg.CandleProxyURL != defaultCandleProxyURL {
		t.Fatalf("expected default proxy url, got %s", cfg.CandleProxyURL)
	}
	if cfg.HTTPPort != 8080 || cfg.SSHPort != 2222 {
		t.Fatalf("expected default ports, got %d/%d", cfg.HTTPPort, cfg.SSHPort)
	}
	if cfg.QuotePollSecs != 60 {
		t.Fatalf("expected default poll secs 60, got %d", cfg.QuotePollSecs)
	}
	if cfg.SSHHostKeyPath != ".ssh/novatrade_ed25519" {
		t.Fatalf("expected default host key path, got %s", cfg.SSHHostKeyPath)
	}
}

func TestLoadWithEnv(t *testing.T) {
	t.Setenv("FINNHUB_API_KEY", "fh-key")
	t.Setenv("CANDLE_PROXY_URL", "https://proxy.example/raw")
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("REDIS_URL", "redis:6379")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("QUOTE_POLL_SECS", "120")

	cfg := Load()
	if cfg.FinnhubAPIKey != "fh-key" || cfg.DatabaseURL != "postgres://example" || cfg.RedisURL != "redis:6379" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.CandleProxyURL != "https://proxy.example/raw" {
		t.Fatalf("unexpected proxy url: %s", cfg.CandleProxyURL)
	}
	if cfg.HTTPPort != 9090 || cfg.QuotePollSecs != 120 {
		t.Fatalf("unexpected ports/poll: %+v", cfg)
	}

	t.Setenv("HTTP_PORT", "notaport")
	t.Setenv("QUOTE_POLL_SECS", "bad")
	cfg = Load()
	if cfg.HTTPPort != 8080 || cfg.QuotePollSecs != 60 {
		t.Fatalf("invalid values should fall back to defaults, got %+v", cfg)
	}
}
