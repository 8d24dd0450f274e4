package mfa

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	sessionRecordVersion1 = 1
	defaultRedisPrefix    = "ggmfa"
	maxUpdateRetries      = 4
)

// RedisStore keeps sessions as versioned binary records in Redis.
// Records carry a TTL so abandoned sessions disappear without a sweep.
type RedisStore struct {
	redis  redis.UniversalClient
	prefix string
}

func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisStore{
		redis:  client,
		prefix: prefix,
	}
}

func (s *RedisStore) key(id string) string {
	return s.prefix + ":" + id
}

func (s *RedisStore) Create(ctx context.Context, session Session, ttl time.Duration) error {
	encoded, err := encodeSession(session)
	if err != nil {
		return err
	}
	ok, err := s.redis.SetNX(ctx, s.key(session.ID), encoded, ttl).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if !ok {
		return ErrSessionExists
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (Session, error) {
	data, err := s.redis.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Session{}, ErrSessionNotFound
		}
		return Session{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return decodeSession(data)
}

// Update applies fn under WATCH and retries on write conflicts.
func (s *RedisStore) Update(ctx context.Context, id string, fn UpdateFunc) (Session, error) {
	key := s.key(id)

	for i := 0; i < maxUpdateRetries; i++ {
		var session Session
		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if err != nil {
				return err
			}
			session, err = decodeSession(data)
			if err != nil {
				return err
			}
			if !fn(&session) {
				return nil
			}

			updated, err := encodeSession(session)
			if err != nil {
				return err
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.SetArgs(ctx, key, updated, redis.SetArgs{KeepTTL: true})
				return nil
			})
			return err
		}, key)

		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return Session{}, ErrSessionNotFound
			}
			if errors.Is(err, errSessionEncodingBad) {
				return Session{}, err
			}
			return Session{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		return session, nil
	}

	// Writers kept winning. When the latest record needs no change, such
	// as a session another caller already completed, report it as is.
	session, err := s.Get(ctx, id)
	if err != nil {
		return Session{}, err
	}
	if !fn(&session) {
		return session, nil
	}
	return Session{}, fmt.Errorf("%w: %w on %s", ErrStoreUnavailable, ErrUpdateContention, id)
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.redis.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Sweep is a no-op; Redis TTLs evict records.
func (s *RedisStore) Sweep(context.Context, time.Time) (int, error) {
	return 0, nil
}

func (s *RedisStore) List(ctx context.Context) ([]Session, error) {
	var (
		cursor uint64
		out    []Session
	)
	for {
		keys, next, err := s.redis.Scan(ctx, cursor, s.prefix+":*", 256).Result()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		if len(keys) > 0 {
			values, err := s.redis.MGet(ctx, keys...).Result()
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
			}
			for _, v := range values {
				raw, ok := v.(string)
				if !ok {
					continue
				}
				session, err := decodeSession([]byte(raw))
				if err != nil {
					continue
				}
				out = append(out, session)
			}
		}
		cursor = next
		if cursor == 0 {
			return out, nil
		}
	}
}

func encodeSession(s Session) ([]byte, error) {
	if s.Attempts < 0 || s.Attempts > math.MaxUint16 || s.MaxAttempts < 0 || s.MaxAttempts > math.MaxUint16 {
		return nil, fmt.Errorf("%w: attempts out of range", errSessionEncodingBad)
	}

	var buf bytes.Buffer
	buf.WriteByte(sessionRecordVersion1)
	buf.WriteByte(byte(s.Status))

	fields := []any{
		uint16(s.Attempts),
		uint16(s.MaxAttempts),
		unixNano(s.CreatedAt),
		unixNano(s.ExpiresAt),
		unixNano(s.VerifiedAt),
	}
	for _, f := range fields {
		if err := binary.Write(&buf, binary.BigEndian, f); err != nil {
			return nil, err
		}
	}

	for _, str := range []string{s.ID, s.UserID, string(s.Method)} {
		if err := writeString(&buf, str); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func decodeSession(data []byte) (Session, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", errSessionEncodingBad, err)
	}
	if version != sessionRecordVersion1 {
		return Session{}, fmt.Errorf("%w: version %d", errSessionEncodingBad, version)
	}
	status, err := reader.ReadByte()
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", errSessionEncodingBad, err)
	}

	var (
		attempts, maxAttempts           uint16
		created, expires, verifiedNanos int64
	)
	for _, f := range []any{&attempts, &maxAttempts, &created, &expires, &verifiedNanos} {
		if err := binary.Read(reader, binary.BigEndian, f); err != nil {
			return Session{}, fmt.Errorf("%w: %v", errSessionEncodingBad, err)
		}
	}

	var strs [3]string
	for i := range strs {
		if strs[i], err = readString(reader); err != nil {
			return Session{}, fmt.Errorf("%w: %v", errSessionEncodingBad, err)
		}
	}

	return Session{
		ID:          strs[0],
		UserID:      strs[1],
		Method:      Method(strs[2]),
		Status:      Status(status),
		Attempts:    int(attempts),
		MaxAttempts: int(maxAttempts),
		CreatedAt:   fromUnixNano(created),
		ExpiresAt:   fromUnixNano(expires),
		VerifiedAt:  fromUnixNano(verifiedNanos),
	}, nil
}

func writeString(buf *bytes.Buffer, s string) error {
	if len(s) > math.MaxUint16 {
		return fmt.Errorf("%w: field length exceeded", errSessionEncodingBad)
	}
	if err := binary.Write(buf, binary.BigEndian, uint16(len(s))); err != nil {
		return err
	}
	buf.WriteString(s)
	return nil
}

func readString(r *bytes.Reader) (string, error) {
	var n uint16
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return "", err
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", err
	}
	return string(b), nil
}

func unixNano(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromUnixNano(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}

