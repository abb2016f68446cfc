package cache

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisResetTokenStore holds password reset tokens by hash. GETDEL makes every token single use.
type RedisResetTokenStore struct {
	client *redis.Client
}

func NewRedisResetTokenStore(client *redis.Client) *RedisResetTokenStore {
	return &RedisResetTokenStore{client: client}
}

func resetKey(tokenHash string) string { return keyPrefix + "reset:" + tokenHash }

func (s *RedisResetTokenStore) Put(ctx context.Context, tokenHash string, userID int64, ttl time.Duration) error {
	return s.client.Set(ctx, resetKey(tokenHash), strconv.FormatInt(userID, 10), ttl).Err()
}

func (s *RedisResetTokenStore) Consume(ctx context.Context, tokenHash string) (int64, bool, error) {
	raw, err := s.client.GetDel(ctx, resetKey(tokenHash)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false, nil
	}
	return userID, true, nil
}
