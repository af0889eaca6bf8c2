package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

func Connect(_ context.Context, redisURL string) (*redis.Client, error) {
	if strings.HasPrefix(redisURL, "redis://") {
		opt, parseErr := redis.ParseURL(redisURL)
		if parseErr != nil {
			return nil, fmt.Errorf("parse redis url: %w", parseErr)
		}
		return redis.NewClient(opt), nil
	}
	return redis.NewClient(&redis.Options{Addr: redisURL}), nil
}

// RedisPublishLockStore guards each message against concurrent publish
// runs. The lock is advisory with a TTL so a crashed run cannot wedge a
// message forever.
type RedisPublishLockStore struct {
	client *redis.Client
}

func NewRedisPublishLockStore(client *redis.Client) *RedisPublishLockStore {
	return &RedisPublishLockStore{client: client}
}

func (s *RedisPublishLockStore) Acquire(ctx context.Context, messageID string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return s.client.SetNX(ctx, "publication:lock:"+messageID, "1", ttl).Result()
}

func (s *RedisPublishLockStore) Release(ctx context.Context, messageID string) error {
	return s.client.Del(ctx, "publication:lock:"+messageID).Err()
}
