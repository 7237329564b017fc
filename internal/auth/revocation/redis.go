package revocation

import (
	"context"
	"errors"
	"time"

	"github.com/geocoder89/roleboard/internal/redisclient"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "roleboard:revoked:"

type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(c *redisclient.Client) *RedisStore {
	return &RedisStore{rdb: c.Raw()}
}

func ttlUntil(until time.Time) time.Duration {
	return time.Until(until)
}

func (s *RedisStore) Revoke(ctx context.Context, jti string, until time.Time) error {
	ttl := ttlUntil(until)
	if ttl <= 0 {
		return nil
	}
	return s.rdb.Set(ctx, keyPrefix+jti, 1, ttl).Err()
}

func (s *RedisStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	err := s.rdb.Get(ctx, keyPrefix+jti).Err()
	if err == nil {
		return true, nil
	}
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	return false, err
}

func (s *RedisStore) Consume(ctx context.Context, jti string, until time.Time) (bool, error) {
	ttl := ttlUntil(until)
	if ttl <= 0 {
		return true, nil
	}
	return s.rdb.SetNX(ctx, keyPrefix+jti, 1, ttl).Result()
}

func (s *RedisStore) Release(ctx context.Context, jti string) error {
	return s.rdb.Del(ctx, keyPrefix+jti).Err()
}
