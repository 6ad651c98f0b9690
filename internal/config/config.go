package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

const defaultCandleProxyURL = "https://api.allorigins.win/raw"

type Config struct {
	FinnhubAPIKey    string
	CandleProxyURL   string
	TelegramBotToken string
	DatabaseURL      string
	RedisURL         string

	HTTPPort       int
	QuotePollSecs  int
	SSHBind        string
	SSHPort        int
	SSHHostKeyPath string
}

func Load() *Config {
	cfg := &Config{
		FinnhubAPIKey:    os.Getenv("FINNHUB_API_KEY"),
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		RedisURL:         os.Getenv("REDIS_URL"),
	}

	if cfg.FinnhubAPIKey == "" {
		log.Println("Warning: FINNHUB_API_KEY not set, quotes and search will be unavailable")
	}
	if cfg.DatabaseURL == "" {
		log.Println("Warning: DATABASE_URL not set")
	}
	if cfg.RedisURL == "" {
		log.Println("Warning: REDIS_URL not set, defaulting to localhost:6379")
		cfg.RedisURL = "localhost:6379"
	}

	cfg.CandleProxyURL = strings.TrimSpace(os.Getenv("CANDLE_PROXY_URL"))
	if cfg.CandleProxyURL == "" {
		cfg.CandleProxyURL = defaultCandleProxyURL
	}

	cfg.HTTPPort = 8080
	if v := strings.TrimSpace(os.Getenv("HTTP_PORT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n < 65536 {
			cfg.HTTPPort = n
		} else {
			log.Printf("Warning: invalid HTTP_PORT %q, using %d", v, cfg.HTTPPort)
		}
	}

	cfg.QuotePollSecs = 60
	if v := os.Getenv("QUOTE_POLL_SECS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.QuotePollSecs = n
		}
	}

	cfg.SSHBind = strings.TrimSpace(os.Getenv("SSH_BIND"))
	if cfg.SSHBind == "" {
		cfg.SSHBind = "0.0.0.0"
	}
	cfg.SSHPort = 2222
	if v := strings.TrimSpace(os.Getenv("SSH_PORT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n < 65536 {
			cfg.SSHPort = n
		}
	}
	cfg.SSHHostKeyPath = strings.TrimSpace(os.Getenv("SSH_HOST_KEY_PATH"))
	if cfg.SSHHostKeyPath == "" {
		cfg.SSHHostKeyPath = ".ssh/novatrade_ed25519"
	}

	return cfg
}
