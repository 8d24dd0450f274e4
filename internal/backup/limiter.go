package backup

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/goGate/internal/rate"
)

// ErrRateLimited reports a user locked out of backup code redemption.
var ErrRateLimited = errors.New("backup code rate limited")

// Limiter blocks redemption after too many failures within a cooldown.
// A nil Limiter or MaxFailures <= 0 disables throttling. The store must
// not be shared with endpoint rate limiting, whose keys it would collide
// with.
type Limiter struct {
	store       rate.Store
	maxFailures int
	cooldown    time.Duration
	now         func() time.Time
}

func NewLimiter(store rate.Store, maxFailures int, cooldown time.Duration, now func() time.Time) *Limiter {
	if store == nil || maxFailures <= 0 || cooldown <= 0 {
		return nil
	}
	if now == nil {
		now = time.Now
	}
	return &Limiter{
		store:       store,
		maxFailures: maxFailures,
		cooldown:    cooldown,
		now:         now,
	}
}

func (l *Limiter) key(userID string) string {
	return "backup:" + userID
}

// Check returns [ErrRateLimited] once the failure budget is spent.
func (l *Limiter) Check(ctx context.Context, userID string) error {
	if l == nil {
		return nil
	}
	entry, err := l.store.Hit(ctx, l.key(userID), l.cooldown, l.now(), false)
	if err != nil {
		return err
	}
	if entry.Count >= l.maxFailures {
		return ErrRateLimited
	}
	return nil
}

// RecordFailure counts one failed redemption.
func (l *Limiter) RecordFailure(ctx context.Context, userID string) error {
	if l == nil {
		return nil
	}
	_, err := l.store.Hit(ctx, l.key(userID), l.cooldown, l.now(), true)
	return err
}

// Sweep evicts failure counters whose cooldown has closed.
func (l *Limiter) Sweep(ctx context.Context) (int, error) {
	if l == nil {
		return 0, nil
	}
	return l.store.Sweep(ctx, l.now())
}

// Reset clears the failure counter after a successful redemption.
func (l *Limiter) Reset(ctx context.Context, userID string) error {
	if l == nil {
		return nil
	}
	return l.store.Delete(ctx, l.key(userID))
}
