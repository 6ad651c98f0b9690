package watchlist

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisNotifier propagates watchlist changes over Redis pub/sub so every
// session of a user, in any process, observes the same push stream.
type RedisNotifier struct {
	client *redis.Client
}

func NewRedisNotifier(client *redis.Client) *RedisNotifier {
	return &RedisNotifier{client: client}
}

func channelFor(userID int64) string {
	return fmt.Sprintf("watchlist:%d", userID)
}

func (n *RedisNotifier) Publish(ctx context.Context, userID int64) error {
	return n.client.Publish(ctx, channelFor(userID), "changed").Err()
}

// Listen subscribes to the user's change channel. The stop function tears the
// subscription down; it must be called on every exit path.
func (n *RedisNotifier) Listen(ctx context.Context, userID int64) (<-chan struct{}, func()) {
	pubsub := n.client.Subscribe(ctx, channelFor(userID))
	events := make(chan struct{}, 1)

	go func() {
		defer close(events)
		for range pubsub.Channel() {
			// Collapse bursts: one pending event is enough, the receiver
			// re-reads the store anyway.
			select {
			case events <- struct{}{}:
			default:
			}
		}
	}()

	return events, func() { _ = pubsub.Close() }
}
