package analytics

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/patrickwarner/identrelay/internal/models"
)

// RedisPublisher publishes identification events as JSON on a pub/sub channel.
type RedisPublisher struct {
	Client  *redis.Client
	Channel string
}

// newRedisClient is replaced in tests to observe the client's lifecycle.
var newRedisClient = redis.NewClient

// InitRedis connects to addr and returns a publisher for channel. The client
// is closed again when the connection cannot be established.
func InitRedis(ctx context.Context, addr, channel string) (*RedisPublisher, error) {
	client := newRedisClient(&redis.Options{Addr: addr})

	if err := redisotel.InstrumentTracing(client); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to instrument redis tracing: %w", err)
	}
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	zap.L().Info("Connected to Redis", zap.String("addr", addr), zap.String("channel", channel))
	return &RedisPublisher{Client: client, Channel: channel}, nil
}

func (p *RedisPublisher) Name() string { return "redis" }

func (p *RedisPublisher) Record(ctx context.Context, ev models.IdentificationEvent) error {
	if p == nil || p.Client == nil {
		return ErrUnavailable
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := p.Client.Publish(ctx, p.Channel, payload).Err(); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

func (p *RedisPublisher) Close() error {
	if p == nil || p.Client == nil {
		return nil
	}
	return p.Client.Close()
}
