package rate

import (
	"context"
	"math"
	"strings"
	"time"
)

// Unlimited is the Remaining value reported for unconfigured endpoints.
const Unlimited = math.MaxInt

// Decision is the outcome of one [Limiter.Check].
type Decision struct {
	Allowed    bool
	Configured bool
	Key        string
	Count      int
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

// Stats groups tracked entries by the key segment before the first ':'.
type Stats struct {
	TotalEntries int
	ByEndpoint   map[string]int
}

// Limiter applies per-endpoint policies on top of a [Store].
type Limiter struct {
	store    Store
	policies map[string]Policy
	now      func() time.Time
}

// New creates a [Limiter]. The policies map is copied.
func New(store Store, policies map[string]Policy, now func() time.Time) *Limiter {
	if store == nil {
		store = NewMemoryStore()
	}
	if now == nil {
		now = time.Now
	}
	copied := make(map[string]Policy, len(policies))
	for name, p := range policies {
		copied[name] = p
	}
	return &Limiter{
		store:    store,
		policies: copied,
		now:      now,
	}
}

// Policy returns the policy configured for endpoint.
func (l *Limiter) Policy(endpoint string) (Policy, bool) {
	p, ok := l.policies[endpoint]
	return p, ok
}

// Check counts one request for identifier against endpoint.
// Unconfigured endpoints are allowed with Configured=false.
func (l *Limiter) Check(ctx context.Context, endpoint, identifier string, outcome Outcome) (Decision, error) {
	policy, ok := l.policies[endpoint]
	if !ok {
		return Decision{
			Allowed:   true,
			Key:       DefaultKey(endpoint, identifier),
			Remaining: Unlimited,
		}, nil
	}

	now := l.now()
	key := policy.Key(endpoint, identifier)
	entry, err := l.store.Hit(ctx, key, policy.Window, now, policy.Counts(outcome))
	if err != nil {
		return Decision{Configured: true, Key: key, Limit: policy.MaxRequests}, err
	}

	d := Decision{
		Allowed:    entry.Count <= policy.MaxRequests,
		Configured: true,
		Key:        key,
		Count:      entry.Count,
		Limit:      policy.MaxRequests,
		Remaining:  policy.MaxRequests - entry.Count,
		ResetAt:    entry.ResetAt,
	}
	if d.Remaining < 0 {
		d.Remaining = 0
	}
	if !d.Allowed {
		d.RetryAfter = RetryAfter(entry.ResetAt, now)
	}
	return d, nil
}

// Reset drops the window of identifier under endpoint.
func (l *Limiter) Reset(ctx context.Context, endpoint, identifier string) error {
	key := DefaultKey(endpoint, identifier)
	if policy, ok := l.policies[endpoint]; ok {
		key = policy.Key(endpoint, identifier)
	}
	return l.store.Delete(ctx, key)
}

// Sweep evicts closed windows.
func (l *Limiter) Sweep(ctx context.Context) (int, error) {
	return l.store.Sweep(ctx, l.now())
}

// Stats reports tracked entries per endpoint prefix.
func (l *Limiter) Stats(ctx context.Context) (Stats, error) {
	keys, err := l.store.Keys(ctx)
	if err != nil {
		return Stats{}, err
	}
	stats := Stats{
		TotalEntries: len(keys),
		ByEndpoint:   make(map[string]int),
	}
	for _, key := range keys {
		prefix, _, _ := strings.Cut(key, ":")
		stats.ByEndpoint[prefix]++
	}
	return stats, nil
}

// RetryAfter rounds the time left until resetAt up to whole seconds,
// never less than one second.
func RetryAfter(resetAt, now time.Time) time.Duration {
	left := resetAt.Sub(now)
	if left <= 0 {
		return time.Second
	}
	secs := (left + time.Second - 1) / time.Second
	return secs * time.Second
}
