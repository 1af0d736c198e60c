package sheet

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taskbotics/b24bot/pkg/logging"
)

const keyPrefixWebhook = "webhook:"

// RedisCache caches resolved webhooks in Redis. Every operation is
// best-effort: Redis being down degrades to direct sheet fetches.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	log    logging.Logger
}

// NewRedisCache creates a RedisCache with the given entry TTL.
func NewRedisCache(client *redis.Client, ttl time.Duration, log logging.Logger) *RedisCache {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &RedisCache{client: client, ttl: ttl, log: log}
}

func (c *RedisCache) Get(ctx context.Context, name string) (string, bool) {
	webhook, err := c.client.Get(ctx, keyPrefixWebhook+name).Result()
	if err == redis.Nil {
		return "", false
	}
	if err != nil {
		c.log.Warn("webhook cache get failed", logging.F("name", name), logging.Err(err))
		return "", false
	}
	return webhook, true
}

func (c *RedisCache) Set(ctx context.Context, name, webhook string) {
	if err := c.client.Set(ctx, keyPrefixWebhook+name, webhook, c.ttl).Err(); err != nil {
		c.log.Warn("webhook cache set failed", logging.F("name", name), logging.Err(err))
	}
}
