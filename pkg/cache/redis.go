package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const seenKeyPrefix = "webhook:seen:"

// SeenDeliveries remembers webhook ids that are already durably recorded, so
// redeliveries can be answered without a database round trip.
type SeenDeliveries interface {
	Seen(ctx context.Context, webhookID string) (bool, error)
	MarkSeen(ctx context.Context, webhookID string) error
}

type redisSeenDeliveries struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

func NewSeenDeliveries(client *redis.Client, ttl time.Duration) SeenDeliveries {
	return &redisSeenDeliveries{client: client, ttl: ttl}
}

func seenKey(webhookID string) string {
	return fmt.Sprintf("%s%s", seenKeyPrefix, webhookID)
}

func (c *redisSeenDeliveries) Seen(ctx context.Context, webhookID string) (bool, error) {
	n, err := c.client.Exists(ctx, seenKey(webhookID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (c *redisSeenDeliveries) MarkSeen(ctx context.Context, webhookID string) error {
	return c.client.Set(ctx, seenKey(webhookID), 1, c.ttl).Err()
}
