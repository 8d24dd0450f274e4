package rate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// hitScript runs one fixed-window hit atomically.
// KEYS[1] entry hash; ARGV[1] now (ms); ARGV[2] window (ms); ARGV[3] "1" to count.
// Expiry uses a relative PEXPIRE so injected clocks do not fight Redis time.
var hitScript = redis.NewScript(`
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local vals = redis.call('HMGET', KEYS[1], 'c', 'r', 'f')
local count = tonumber(vals[1])
local reset = tonumber(vals[2])
local first = tonumber(vals[3])
if count == nil or reset == nil or reset <= now then
  count = 0
  reset = now + window
  first = now
  redis.call('DEL', KEYS[1])
  redis.call('HSET', KEYS[1], 'c', '0', 'r', string.format('%d', reset), 'f', string.format('%d', first))
  redis.call('PEXPIRE', KEYS[1], ARGV[2])
end
if ARGV[3] == '1' then
  count = redis.call('HINCRBY', KEYS[1], 'c', 1)
end
return {count, reset, first}
`)

const defaultRedisPrefix = "ggrl"

// RedisStore is a [Store] shared by every process pointing at the same
// Redis. Closed windows expire through Redis TTLs, so Sweep is a no-op.
type RedisStore struct {
	redis  redis.UniversalClient
	prefix string
}

// NewRedisStore returns a [RedisStore] writing keys under prefix.
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisStore{
		redis:  client,
		prefix: prefix,
	}
}

func (s *RedisStore) key(key string) string {
	return s.prefix + ":" + key
}

// Hit implements [Store].
func (s *RedisStore) Hit(ctx context.Context, key string, window time.Duration, now time.Time, increment bool) (Entry, error) {
	windowMs := window.Milliseconds()
	if windowMs < 1 {
		windowMs = 1
	}
	flag := "0"
	if increment {
		flag = "1"
	}

	res, err := hitScript.Run(ctx, s.redis, []string{s.key(key)}, now.UnixMilli(), windowMs, flag).Slice()
	if err != nil {
		return Entry{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if len(res) != 3 {
		return Entry{}, fmt.Errorf("%w: unexpected script reply of %d values", ErrStoreUnavailable, len(res))
	}

	count, ok1 := res[0].(int64)
	reset, ok2 := res[1].(int64)
	first, ok3 := res[2].(int64)
	if !ok1 || !ok2 || !ok3 {
		return Entry{}, fmt.Errorf("%w: malformed script reply", ErrStoreUnavailable)
	}

	return Entry{
		Count:          int(count),
		ResetAt:        time.UnixMilli(reset),
		FirstRequestAt: time.UnixMilli(first),
	}, nil
}

// Delete implements [Store].
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.redis.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Sweep implements [Store].
func (s *RedisStore) Sweep(context.Context, time.Time) (int, error) {
	return 0, nil
}

// Keys implements [Store] with SCAN over the store prefix.
func (s *RedisStore) Keys(ctx context.Context) ([]string, error) {
	var (
		cursor uint64
		keys   []string
	)
	match := s.prefix + ":*"
	for {
		batch, next, err := s.redis.Scan(ctx, cursor, match, 256).Result()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		for _, k := range batch {
			keys = append(keys, strings.TrimPrefix(k, s.prefix+":"))
		}
		cursor = next
		if cursor == 0 {
			return keys, nil
		}
	}
}
