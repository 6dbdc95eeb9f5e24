package state

import (
	"context"
	"errors"
	"strings"

	"github.com/redis/go-redis/v9"
)

const defaultRedisKey = "chronbot:state"

// RedisBackend stores the snapshot JSON under a single key without TTL.
type RedisBackend struct {
	rdb *redis.Client
	key string
}

func NewRedisBackend(rdb *redis.Client, key string) *RedisBackend {
	if strings.TrimSpace(key) == "" {
		key = defaultRedisKey
	}
	return &RedisBackend{rdb: rdb, key: key}
}

func (r *RedisBackend) Load(ctx context.Context) ([]byte, error) {
	raw, err := r.rdb.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return raw, nil
}

func (r *RedisBackend) Save(ctx context.Context, data []byte) error {
	return r.rdb.Set(ctx, r.key, data, 0).Err()
}

func (r *RedisBackend) Close() error {
	if r == nil || r.rdb == nil {
		return nil
	}
	return r.rdb.Close()
}
