package credstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisTimeout = 3 * time.Second

// RedisSlot keeps the record under <prefix>:auth. It lets several headless
// client processes share one session slot.
type RedisSlot struct {
	rdb *redis.Client
	key string
}

// NewRedisSlot creates a slot on rdb. An empty prefix defaults to "gowallet".
func NewRedisSlot(rdb *redis.Client, prefix string) *RedisSlot {
	if prefix == "" {
		prefix = "gowallet"
	}
	return &RedisSlot{rdb: rdb, key: prefix + ":" + Key}
}

func (r *RedisSlot) Read() ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()
	data, err := r.rdb.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("credstore: redis get: %w", err)
	}
	return data, nil
}

func (r *RedisSlot) Write(data []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()
	if err := r.rdb.Set(ctx, r.key, data, 0).Err(); err != nil {
		return fmt.Errorf("credstore: redis set: %w", err)
	}
	return nil
}

func (r *RedisSlot) Erase() error {
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()
	if err := r.rdb.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("credstore: redis del: %w", err)
	}
	return nil
}

// Close closes the Redis client.
func (r *RedisSlot) Close() error {
	return r.rdb.Close()
}
