package bot

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"novatrade/internal/domain"
	"novatrade/internal/service"

	tele "gopkg.in/telebot.v3"
)

// QuoteSource serves quotes warmed by the poller.
type QuoteSource interface {
	GetQuote(ctx context.Context, symbol string) (*domain.Quote, error)
}

// StartTelegramBot exposes quotes and search over Telegram. The bot is
// read-only: watchlists belong to dashboard accounts, not chat IDs. Quotes
// come from the warm cache, not the provider, so chat traffic never spends
// rate-limiter tokens.
func StartTelegramBot(marketService *service.MarketService, quotes QuoteSource) {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		log.Println("TELEGRAM_BOT_TOKEN not set, skipping Telegram bot startup")
		return
	}
	pref := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}
	b, err := tele.NewBot(pref)
	if err != nil {
		log.Fatalf("failed to create Telegram bot: %v", err)
	}

	b.Handle("/ping", func(c tele.Context) error {
		return c.Send("pong")
	})

	b.Handle("/quote", func(c tele.Context) error {
		args := c.Args()
		if len(args) == 0 {
			return c.Send("Usage: /quote AAPL")
		}
		symbol := domain.NormalizeSymbol(args[0])
		quote, err := quotes.GetQuote(context.Background(), symbol)
		if err != nil {
			log.Printf("telegram /quote %s: %v", symbol, err)
		}
		if quote == nil {
			return c.Send(fmt.Sprintf("No quote available for %s", symbol))
		}
		return c.Send(fmt.Sprintf(
			"%s\nPrice: $%.2f\nChange: %+.2f%%",
			symbol, quote.Current, quote.ChangePct,
		))
	})

	b.Handle("/search", func(c tele.Context) error {
		query := strings.TrimSpace(strings.Join(c.Args(), " "))
		if query == "" {
			return c.Send("Usage: /search apple")
		}
		results := marketService.Search(context.Background(), query)
		if len(results) == 0 {
			return c.Send(fmt.Sprintf("No matches for %q", query))
		}
		lines := make([]string, 0, len(results))
		for _, r := range results {
			lines = append(lines, fmt.Sprintf("%s - %s", r.Symbol, r.Description))
		}
		return c.Send(strings.Join(lines, "\n"))
	})

	b.Handle("/stats", func(c tele.Context) error {
		args := c.Args()
		if len(args) == 0 {
			return c.Send("Usage: /stats AAPL")
		}
		symbol := domain.NormalizeSymbol(args[0])
		_, stats, err := marketService.Overview(context.Background(), symbol, domain.DefaultRange)
		if err != nil {
			return c.Send(fmt.Sprintf("Error fetching stats for %s", symbol))
		}
		return c.Send(fmt.Sprintf(
			"%s\nMarket Cap: %s\nVolume: %s\nAvg Volume: %s",
			symbol,
			domain.FormatMarketCap(stats.MarketCap),
			domain.FormatVolume(stats.Volume),
			domain.FormatVolume(stats.AvgVolume),
		))
	})

	log.Println("Telegram bot started")
	go b.Start()
}
