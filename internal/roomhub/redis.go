package roomhub

import (
	"coinflip/backend/internal/config"
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisRelay shares the feed between instances over one pub/sub channel.
type RedisRelay struct {
	Client  *redis.Client
	Channel string
}

// NewRedisRelay connects to addr and checks the connection with PING.
func NewRedisRelay(ctx context.Context, addr, password string, db int) (*RedisRelay, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return &RedisRelay{Client: client, Channel: config.FeedChannel}, nil
}

func (r *RedisRelay) Publish(ctx context.Context, payload []byte) error {
	return r.Client.Publish(ctx, r.Channel, payload).Err()
}

func (r *RedisRelay) Subscribe(ctx context.Context) (<-chan []byte, error) {
	pubsub := r.Client.Subscribe(ctx, r.Channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", r.Channel, err)
	}

	out := make(chan []byte, config.FeedBufferSize)
	go func() {
		defer close(out)
		defer pubsub.Close()
		msgs := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				select {
				case out <- []byte(msg.Payload):
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (r *RedisRelay) Close() error {
	return r.Client.Close()
}
