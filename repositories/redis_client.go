package repositories

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisClient backs the processed-event set used to keep at-least-once
// delivery idempotent across worker restarts.
type RedisClient interface {
	SAdd(ctx context.Context, key string, members ...interface{}) (int64, error)
	SIsMember(ctx context.Context, key string, member interface{}) (bool, error)
}

type redisClient struct {
	client *redis.Client
}

func NewRedisClient(host, port string) RedisClient {
	rdb := redis.NewClient(&redis.Options{
		Addr: fmt.Sprintf("%s:%s", host, port),
	})
	return &redisClient{client: rdb}
}

func (r *redisClient) SAdd(ctx context.Context, key string, members ...interface{}) (int64, error) {
	val, err := r.client.SAdd(ctx, key, members...).Result()
	if err != nil {
		return 0, fmt.Errorf("redis sadd failure: %w", err)
	}
	return val, nil
}

func (r *redisClient) SIsMember(ctx context.Context, key string, member interface{}) (bool, error) {
	val, err := r.client.SIsMember(ctx, key, member).Result()
	if err != nil {
		return false, fmt.Errorf("redis sismember failure: %w", err)
	}
	return val, nil
}
