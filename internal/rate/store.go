package rate

import (
	"context"
	"time"
)

// Entry is the live counter of one policy × identifier pair.
type Entry struct {
	Count          int
	ResetAt        time.Time
	FirstRequestAt time.Time
}

// Live reports whether the window of e is still open at now.
func (e Entry) Live(now time.Time) bool {
	return now.Before(e.ResetAt)
}

// Store persists window entries. Hit must run the read, the optional
// window restart and the optional increment as one atomic unit per key.
type Store interface {
	// Hit starts a fresh window of length window when key has no live
	// entry at now, increments the counter when increment is set, and
	// returns the resulting entry.
	Hit(ctx context.Context, key string, window time.Duration, now time.Time, increment bool) (Entry, error)
	// Delete removes the entry for key. Missing keys are not an error.
	Delete(ctx context.Context, key string) error
	// Sweep evicts entries whose window closed at or before now and
	// returns how many were removed.
	Sweep(ctx context.Context, now time.Time) (int, error)
	// Keys lists the keys currently tracked.
	Keys(ctx context.Context) ([]string, error)
}
