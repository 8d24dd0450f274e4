package mfa

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func testConfig() Config {
	return Config{
		Methods:     []Method{MethodTOTP, MethodSMS, MethodEmail, MethodBiometric},
		SessionTTL:  15 * time.Minute,
		MaxAttempts: 5,
	}
}

func newTestManager(t *testing.T, store Store, verifiers map[Method]Verifier) (*Manager, *testClock) {
	t.Helper()
	clock := newTestClock()
	if store == nil {
		store = NewMemoryStore()
	}
	return NewManager(store, testConfig(), verifiers, clock.Now), clock
}

func TestInitiateCreatesPendingSession(t *testing.T) {
	m, clock := newTestManager(t, nil, nil)

	s, err := m.Initiate(context.Background(), "u1", MethodTOTP)
	if err != nil {
		t.Fatalf("Initiate failed: %v", err)
	}
	if s.ID == "" || s.Status != StatusPending || s.Attempts != 0 || s.MaxAttempts != 5 {
		t.Fatalf("unexpected session: %+v", s)
	}
	if !s.ExpiresAt.Equal(clock.Now().Add(15 * time.Minute)) {
		t.Fatalf("unexpected expiry %v", s.ExpiresAt)
	}
}

func TestInitiateRejectsUnsupportedMethod(t *testing.T) {
	clock := newTestClock()
	cfg := testConfig()
	cfg.Methods = []Method{MethodTOTP}
	m := NewManager(NewMemoryStore(), cfg, nil, clock.Now)

	if _, err := m.Initiate(context.Background(), "u1", MethodSMS); !errors.Is(err, ErrUnsupportedMethod) {
		t.Fatalf("expected ErrUnsupportedMethod, got %v", err)
	}
	if _, err := m.Initiate(context.Background(), "u1", Method("PIGEON")); !errors.Is(err, ErrUnsupportedMethod) {
		t.Fatalf("expected ErrUnsupportedMethod, got %v", err)
	}
	if _, err := m.Initiate(context.Background(), "", MethodTOTP); !errors.Is(err, ErrInvalidUser) {
		t.Fatalf("expected ErrInvalidUser, got %v", err)
	}
}

func TestVerifyHappyPath(t *testing.T) {
	m, clock := newTestManager(t, nil, nil)
	ctx := context.Background()

	s, _ := m.Initiate(ctx, "u1", MethodTOTP)
	clock.Advance(time.Minute)

	got, err := m.Verify(ctx, s.ID, "123456")
	if err != nil {
		t.Fatalf("expected verification, got %v", err)
	}
	if got.Status != StatusVerified || got.Attempts != 1 {
		t.Fatalf("unexpected session after verify: %+v", got)
	}
	if !got.VerifiedAt.Equal(clock.Now()) {
		t.Fatalf("expected verifiedAt %v, got %v", clock.Now(), got.VerifiedAt)
	}
}

func TestVerifyUnknownSession(t *testing.T) {
	m, _ := newTestManager(t, nil, nil)
	if _, err := m.Verify(context.Background(), "nope", "123456"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestVerifyAttemptExhaustion(t *testing.T) {
	m, _ := newTestManager(t, nil, nil)
	ctx := context.Background()
	s, _ := m.Initiate(ctx, "u1", MethodTOTP)

	var got Session
	for i := 1; i <= 5; i++ {
		var err error
		got, err = m.Verify(ctx, s.ID, "abc")
		if !errors.Is(err, ErrCodeInvalid) {
			t.Fatalf("attempt %d: expected ErrCodeInvalid, got %v", i, err)
		}
		if got.Attempts != i {
			t.Fatalf("attempt %d: expected attempts=%d, got %d", i, i, got.Attempts)
		}
	}
	if got.Status != StatusFailed {
		t.Fatalf("expected FAILED after five wrong codes, got %s", got.Status)
	}

	got, err := m.Verify(ctx, s.ID, "123456")
	if !errors.Is(err, ErrSessionTerminal) {
		t.Fatalf("expected terminal rejection, got %v", err)
	}
	if got.Attempts != 5 || got.Status != StatusFailed {
		t.Fatalf("expected untouched session, got %+v", got)
	}
}

func TestVerifyExhaustingAttemptStillValidates(t *testing.T) {
	m, _ := newTestManager(t, nil, nil)
	ctx := context.Background()
	s, _ := m.Initiate(ctx, "u1", MethodSMS)

	for i := 0; i < 4; i++ {
		_, _ = m.Verify(ctx, s.ID, "bad")
	}
	got, err := m.Verify(ctx, s.ID, "654321")
	if err != nil {
		t.Fatalf("expected last attempt to verify, got %v", err)
	}
	if got.Status != StatusVerified || got.Attempts != 5 {
		t.Fatalf("unexpected session: %+v", got)
	}
}

func TestVerifyExpiredSession(t *testing.T) {
	m, clock := newTestManager(t, nil, nil)
	ctx := context.Background()
	s, _ := m.Initiate(ctx, "u1", MethodTOTP)

	clock.Advance(15*time.Minute + time.Second)

	got, err := m.Verify(ctx, s.ID, "123456")
	if !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
	if got.Status != StatusExpired || got.Attempts != 0 {
		t.Fatalf("expected EXPIRED without attempt, got %+v", got)
	}
}

func TestVerifyAtExactExpiryStillAccepted(t *testing.T) {
	m, clock := newTestManager(t, nil, nil)
	ctx := context.Background()
	s, _ := m.Initiate(ctx, "u1", MethodTOTP)

	clock.Advance(15 * time.Minute)

	if _, err := m.Verify(ctx, s.ID, "123456"); err != nil {
		t.Fatalf("expected verification at expiry instant, got %v", err)
	}
}

func TestVerifyRejectsTerminalReentry(t *testing.T) {
	m, _ := newTestManager(t, nil, nil)
	ctx := context.Background()
	s, _ := m.Initiate(ctx, "u1", MethodBiometric)

	if _, err := m.Verify(ctx, s.ID, "assertion"); err != nil {
		t.Fatalf("first verify failed: %v", err)
	}
	got, err := m.Verify(ctx, s.ID, "assertion")
	if !errors.Is(err, ErrSessionTerminal) {
		t.Fatalf("expected ErrSessionTerminal, got %v", err)
	}
	if got.Attempts != 1 || got.Status != StatusVerified {
		t.Fatalf("expected unchanged session, got %+v", got)
	}
}

func TestDefaultVerifiers(t *testing.T) {
	tests := []struct {
		method Method
		code   string
		want   bool
	}{
		{MethodTOTP, "123456", true},
		{MethodTOTP, "12345", false},
		{MethodTOTP, "1234567", false},
		{MethodTOTP, "12a456", false},
		{MethodSMS, "000000", true},
		{MethodSMS, "", false},
		{MethodEmail, "abcdefgh", true},
		{MethodEmail, "abcdefg", false},
		{MethodBiometric, "x", true},
		{MethodBiometric, "", false},
	}

	verifiers := DefaultVerifiers()
	for _, tt := range tests {
		got, err := verifiers[tt.method].Verify(context.Background(), tt.code, "u1")
		if err != nil {
			t.Fatalf("%s %q: unexpected error %v", tt.method, tt.code, err)
		}
		if got != tt.want {
			t.Fatalf("%s %q: expected %v, got %v", tt.method, tt.code, tt.want, got)
		}
	}
}

func TestCustomVerifierReceivesUser(t *testing.T) {
	var seen string
	m, _ := newTestManager(t, nil, map[Method]Verifier{
		MethodTOTP: VerifierFunc(func(_ context.Context, code, userID string) (bool, error) {
			seen = userID
			return code == "otp", nil
		}),
	})
	ctx := context.Background()
	s, _ := m.Initiate(ctx, "alice", MethodTOTP)

	if _, err := m.Verify(ctx, s.ID, "123456"); !errors.Is(err, ErrCodeInvalid) {
		t.Fatalf("expected custom verifier to reject digits, got %v", err)
	}
	if _, err := m.Verify(ctx, s.ID, "otp"); err != nil {
		t.Fatalf("expected custom verifier to accept, got %v", err)
	}
	if seen != "alice" {
		t.Fatalf("expected verifier to receive user id, got %q", seen)
	}
}

func TestVerifierErrorAndPanicCountAsFailedAttempts(t *testing.T) {
	m, _ := newTestManager(t, nil, map[Method]Verifier{
		MethodSMS: VerifierFunc(func(context.Context, string, string) (bool, error) {
			return false, errors.New("provider down")
		}),
		MethodEmail: VerifierFunc(func(context.Context, string, string) (bool, error) {
			panic("boom")
		}),
	})
	ctx := context.Background()

	for _, method := range []Method{MethodSMS, MethodEmail} {
		s, _ := m.Initiate(ctx, "u1", method)
		got, err := m.Verify(ctx, s.ID, "12345678")
		if !IsVerifierFailure(err) {
			t.Fatalf("%s: expected verifier failure, got %v", method, err)
		}
		if got.Attempts != 1 || got.Status != StatusPending {
			t.Fatalf("%s: expected counted pending attempt, got %+v", method, got)
		}
	}
}

func TestConcurrentVerifyYieldsSingleSuccess(t *testing.T) {
	m, _ := newTestManager(t, nil, nil)
	ctx := context.Background()
	s, _ := m.Initiate(ctx, "u1", MethodTOTP)

	var (
		wg        sync.WaitGroup
		successes atomic.Int64
	)
	for i := 0; i < s.MaxAttempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := m.Verify(ctx, s.ID, "123456"); err == nil {
				successes.Add(1)
			}
		}()
	}
	wg.Wait()

	if got := successes.Load(); got != 1 {
		t.Fatalf("expected exactly one success, got %d", got)
	}
	final, _ := m.Get(ctx, s.ID)
	if final.Status != StatusVerified {
		t.Fatalf("expected VERIFIED, got %s", final.Status)
	}
	if final.Attempts > final.MaxAttempts {
		t.Fatalf("attempts %d exceeded max %d", final.Attempts, final.MaxAttempts)
	}
}

func TestSweepAndStats(t *testing.T) {
	m, clock := newTestManager(t, nil, nil)
	ctx := context.Background()

	a, _ := m.Initiate(ctx, "u1", MethodTOTP)
	_, _ = m.Verify(ctx, a.ID, "123456")
	_, _ = m.Initiate(ctx, "u2", MethodSMS)

	clock.Advance(10 * time.Minute)
	_, _ = m.Initiate(ctx, "u3", MethodEmail)
	clock.Advance(6 * time.Minute)

	stats, err := m.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Total != 3 {
		t.Fatalf("expected 3 sessions, got %d", stats.Total)
	}
	if stats.ByStatus[StatusVerified] != 1 || stats.ByStatus[StatusExpired] != 1 || stats.ByStatus[StatusPending] != 1 {
		t.Fatalf("unexpected status breakdown: %+v", stats.ByStatus)
	}
	if stats.ByMethod[MethodSMS] != 1 || stats.ByMethod[MethodTOTP] != 1 || stats.ByMethod[MethodEmail] != 1 {
		t.Fatalf("unexpected method breakdown: %+v", stats.ByMethod)
	}

	removed, err := m.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 swept sessions, got %d", removed)
	}
	if _, err := m.Get(ctx, a.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected swept session gone, got %v", err)
	}
}
