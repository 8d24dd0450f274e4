package mfa

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestSessionEncodingRoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 4, 5, 6, 7, 8, time.UTC)
	in := Session{
		ID:          "sid",
		UserID:      "user-1",
		Method:      MethodEmail,
		Status:      StatusVerified,
		Attempts:    3,
		MaxAttempts: 5,
		CreatedAt:   now,
		ExpiresAt:   now.Add(time.Minute),
		VerifiedAt:  now.Add(time.Second),
	}
	data, err := encodeSession(in)
	if err != nil {
		t.Fatalf("encodeSession failed: %v", err)
	}
	out, err := decodeSession(data)
	if err != nil {
		t.Fatalf("decodeSession failed: %v", err)
	}
	if out.ID != in.ID || out.UserID != in.UserID || out.Method != in.Method || out.Status != in.Status ||
		out.Attempts != in.Attempts || out.MaxAttempts != in.MaxAttempts ||
		!out.CreatedAt.Equal(in.CreatedAt) || !out.ExpiresAt.Equal(in.ExpiresAt) || !out.VerifiedAt.Equal(in.VerifiedAt) {
		t.Fatalf("round trip mismatch:\n in=%+v\nout=%+v", in, out)
	}

	data[0] = 9
	if _, err := decodeSession(data); !errors.Is(err, errSessionEncodingBad) {
		t.Fatalf("expected version error, got %v", err)
	}
}

func TestRedisStoreLifecycle(t *testing.T) {
	mr, rdb := newTestRedis(t)
	m, clock := newTestManager(t, NewRedisStore(rdb, "t"), nil)
	ctx := context.Background()

	s, err := m.Initiate(ctx, "u1", MethodTOTP)
	if err != nil {
		t.Fatalf("Initiate failed: %v", err)
	}
	if ttl := mr.TTL("t:" + s.ID); ttl != 15*time.Minute {
		t.Fatalf("expected session TTL 15m, got %v", ttl)
	}

	for i := 0; i < 2; i++ {
		if _, err := m.Verify(ctx, s.ID, "bad"); !errors.Is(err, ErrCodeInvalid) {
			t.Fatalf("expected ErrCodeInvalid, got %v", err)
		}
	}
	clock.Advance(time.Minute)
	got, err := m.Verify(ctx, s.ID, "123456")
	if err != nil {
		t.Fatalf("expected verification, got %v", err)
	}
	if got.Status != StatusVerified || got.Attempts != 3 {
		t.Fatalf("unexpected session: %+v", got)
	}
	if ttl := mr.TTL("t:" + s.ID); ttl != 15*time.Minute {
		t.Fatalf("expected update to keep TTL, got %v", ttl)
	}

	if _, err := m.Verify(ctx, s.ID, "123456"); !errors.Is(err, ErrSessionTerminal) {
		t.Fatalf("expected terminal rejection, got %v", err)
	}

	stats, err := m.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Total != 1 || stats.ByStatus[StatusVerified] != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestRedisStoreExpiryAndExhaustion(t *testing.T) {
	_, rdb := newTestRedis(t)
	m, clock := newTestManager(t, NewRedisStore(rdb, ""), nil)
	ctx := context.Background()

	a, _ := m.Initiate(ctx, "u1", MethodSMS)
	for i := 0; i < 5; i++ {
		_, _ = m.Verify(ctx, a.ID, "x")
	}
	got, _ := m.Get(ctx, a.ID)
	if got.Status != StatusFailed || got.Attempts != 5 {
		t.Fatalf("expected FAILED after exhaustion, got %+v", got)
	}

	b, _ := m.Initiate(ctx, "u1", MethodSMS)
	clock.Advance(16 * time.Minute)
	if _, err := m.Verify(ctx, b.ID, "123456"); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
}

func TestRedisStoreMissingSession(t *testing.T) {
	_, rdb := newTestRedis(t)
	store := NewRedisStore(rdb, "")

	if _, err := store.Get(context.Background(), "missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	_, err := store.Update(context.Background(), "missing", func(*Session) bool { return true })
	if !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound from update, got %v", err)
	}
}

func TestRedisStoreUpdateContention(t *testing.T) {
	_, rdb := newTestRedis(t)
	store := NewRedisStore(rdb, "t")
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	pending := Session{
		ID:          "sid",
		UserID:      "u1",
		Method:      MethodTOTP,
		Status:      StatusPending,
		MaxAttempts: 5,
		CreatedAt:   now,
		ExpiresAt:   now.Add(time.Minute),
	}
	if err := store.Create(ctx, pending, time.Minute); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// rewrite stores s under the session key from another connection,
	// which invalidates any WATCH in progress.
	rewrite := func(t *testing.T, s Session) {
		t.Helper()
		data, err := encodeSession(s)
		if err != nil {
			t.Fatalf("encodeSession failed: %v", err)
		}
		if err := rdb.SetArgs(ctx, store.key(s.ID), data, redis.SetArgs{KeepTTL: true}).Err(); err != nil {
			t.Fatalf("rewrite failed: %v", err)
		}
	}

	t.Run("persistent writer", func(t *testing.T) {
		_, err := store.Update(ctx, pending.ID, func(s *Session) bool {
			rewrite(t, pending)
			return s.Status == StatusPending
		})
		if !errors.Is(err, ErrUpdateContention) || !errors.Is(err, ErrStoreUnavailable) {
			t.Fatalf("expected contention error, got %v", err)
		}
	})

	t.Run("completed by the winner", func(t *testing.T) {
		calls := 0
		got, err := store.Update(ctx, pending.ID, func(s *Session) bool {
			calls++
			if s.Status != StatusPending {
				return false
			}
			if calls == maxUpdateRetries {
				verified := pending
				verified.Status = StatusVerified
				verified.VerifiedAt = now
				rewrite(t, verified)
			} else {
				rewrite(t, pending)
			}
			s.Attempts++
			return true
		})
		if err != nil {
			t.Fatalf("expected terminal record without error, got %v", err)
		}
		if got.Status != StatusVerified || got.Attempts != 0 {
			t.Fatalf("expected the winner's record, got %+v", got)
		}
		if calls != maxUpdateRetries+1 {
			t.Fatalf("expected %d calls, got %d", maxUpdateRetries+1, calls)
		}
	})
}

func TestRedisConcurrentVerifySingleWinner(t *testing.T) {
	_, rdb := newTestRedis(t)
	m, _ := newTestManager(t, NewRedisStore(rdb, "t"), nil)
	ctx := context.Background()

	s, err := m.Initiate(ctx, "u1", MethodTOTP)
	if err != nil {
		t.Fatalf("Initiate failed: %v", err)
	}

	const workers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.Verify(ctx, s.ID, "123456")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, ErrSessionTerminal), errors.Is(err, ErrAttemptsExceeded),
				errors.Is(err, ErrUpdateContention):
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if successes > 1 {
		t.Fatalf("expected at most one success, got %d", successes)
	}
	got, err := m.Get(ctx, s.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if (got.Status == StatusVerified) != (successes == 1) {
		t.Fatalf("status %s does not match %d successes", got.Status, successes)
	}
}
