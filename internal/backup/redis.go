package backup

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "ggbk"

// RedisStore keeps each user's digests in a Redis set.
type RedisStore struct {
	redis  redis.UniversalClient
	prefix string
}

func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisStore{redis: client, prefix: prefix}
}

func (s *RedisStore) key(userID string) string {
	return s.prefix + ":" + userID
}

func (s *RedisStore) Replace(ctx context.Context, userID string, hashes []Hash) error {
	key := s.key(userID)
	members := make([]any, len(hashes))
	for i, h := range hashes {
		members[i] = string(h[:])
	}

	_, err := s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(members) > 0 {
			pipe.SAdd(ctx, key, members...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (s *RedisStore) Consume(ctx context.Context, userID string, hash Hash) (bool, error) {
	n, err := s.redis.SRem(ctx, s.key(userID), string(hash[:])).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return n == 1, nil
}

func (s *RedisStore) Remaining(ctx context.Context, userID string) (int, error) {
	n, err := s.redis.SCard(ctx, s.key(userID)).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return int(n), nil
}
