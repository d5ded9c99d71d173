package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"retail_sales/internal/sales"
)

// redisClient is the subset of the redis client the publisher needs.
type redisClient interface {
	Publish(ctx context.Context, channel string, message interface{}) *goredis.IntCmd
	Close() error
}

// RedisPublisher sends SaleCreated events as JSON on a redis pub/sub channel.
type RedisPublisher struct {
	rdb     redisClient
	channel string
	logger  *zap.Logger
}

// NewRedisPublisher connects to addr and checks the connection before returning.
func NewRedisPublisher(addr, channel string, logger *zap.Logger) (*RedisPublisher, error) {
	if addr == "" {
		return nil, fmt.Errorf("missing redis address")
	}
	if channel == "" {
		channel = "sales.created"
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return newRedisPublisher(rdb, channel, logger), nil
}

func newRedisPublisher(rdb redisClient, channel string, logger *zap.Logger) *RedisPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisPublisher{
		rdb:     rdb,
		channel: channel,
		logger:  logger.With(zap.String("publisher", "redis"), zap.String("channel", channel)),
	}
}

func (p *RedisPublisher) Publish(ctx context.Context, event sales.SaleCreated) error {
	raw, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode sale created event: %w", err)
	}
	receivers, err := p.rdb.Publish(ctx, p.channel, raw).Result()
	if err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	p.logger.Debug("sale created event published",
		zap.String("sale_id", event.SaleID),
		zap.Int64("receivers", receivers),
	)
	return nil
}

func (p *RedisPublisher) Close() error {
	if p == nil || p.rdb == nil {
		return nil
	}
	return p.rdb.Close()
}
