package store

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
  return redis.call("del", KEYS[1])
end
return 0
`)

type RedisLocker struct {
	client *RedisClient
}

func NewRedisLocker(redisClient *RedisClient) *RedisLocker {
	return &RedisLocker{client: redisClient}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	lockKey := l.client.generateKey("lock", key)
	token := uuid.New().String()

	ok, err := l.client.SetNX(ctx, lockKey, token, ttl)
	if err != nil || !ok {
		return func() {}, false, err
	}

	release := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = releaseScript.Run(ctx, l.client.client, []string{lockKey}, token).Err()
	}
	return release, true, nil
}
