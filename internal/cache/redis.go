package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"os"
	"strings"
	"time"

	"novatrade/internal/domain"

	"github.com/redis/go-redis/v9"
)

var Client *redis.Client

var (
	newRedisClient = func(opts *redis.Options) *redis.Client {
		return redis.NewClient(opts)
	}
	pingRedis = func(ctx context.Context, client *redis.Client) error {
		return client.Ping(ctx).Err()
	}
	parseRedisURL = redis.ParseURL
)

// InitRedis connects the package-level client. Redis carries session tokens,
// warm quotes, and watchlist change notifications, so startup fails hard when
// it is unreachable.
func InitRedis(ctx context.Context) {
	addr := os.Getenv("REDIS_URL")
	if addr == "" {
		addr = "localhost:6379"
	}

	opts := &redis.Options{Addr: addr}
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		parsed, err := parseRedisURL(addr)
		if err != nil {
			log.Fatalf("failed to parse REDIS_URL: %v", err)
		}
		opts = parsed
	}

	Client = newRedisClient(opts)
	if err := pingRedis(ctx, Client); err != nil {
		log.Fatalf("failed to connect to Redis: %v", err)
	}
	log.Println("Connected to Redis")
}

// QuoteStore holds the warm quotes the poller refreshes. The HTTP quote
// endpoint and the Telegram bot read from here instead of hitting the
// provider per request.
type QuoteStore struct {
	client *redis.Client
}

func NewQuoteStore(client *redis.Client) *QuoteStore {
	return &QuoteStore{client: client}
}

func quoteKey(symbol string) string {
	return "quote:" + symbol
}

func (s *QuoteStore) PutQuote(ctx context.Context, quote *domain.Quote, ttl time.Duration) error {
	payload, err := json.Marshal(quote)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, quoteKey(quote.Symbol), payload, ttl).Err()
}

// GetQuote returns the cached quote for symbol, or nil when the poller has
// not seen it (or the entry expired).
func (s *QuoteStore) GetQuote(ctx context.Context, symbol string) (*domain.Quote, error) {
	raw, err := s.client.Get(ctx, quoteKey(symbol)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var quote domain.Quote
	if err := json.Unmarshal(raw, &quote); err != nil {
		return nil, err
	}
	return &quote, nil
}
