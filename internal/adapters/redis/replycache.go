package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// ReplyCache stores the reply payload for already-handled mutating messages,
// keyed by broker message id, so a redelivery returns the original reply
// instead of repeating the side effect.
type ReplyCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewReplyCache(client *redis.Client, ttl time.Duration) *ReplyCache {
	return &ReplyCache{client: client, ttl: ttl}
}

func (c *ReplyCache) Get(ctx context.Context, messageID string) ([]byte, error) {
	val, err := c.client.Get(ctx, "reply:"+messageID).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return val, nil
}

func (c *ReplyCache) Set(ctx context.Context, messageID string, reply []byte) error {
	return c.client.Set(ctx, "reply:"+messageID, reply, c.ttl).Err()
}
