package goGate

import (
	"context"
	"fmt"
	"time"
)

// HealthStatus is an on-demand backend health result.
type HealthStatus struct {
	Backend        string
	RedisAvailable bool
	RedisLatency   time.Duration
}

// MFAStats counts stored MFA sessions by effective status and method.
// Sessions already swept are not included.
func (e *Engine) MFAStats(ctx context.Context) (MFAStats, error) {
	if e == nil || e.mfa == nil {
		return MFAStats{}, ErrEngineNotReady
	}
	stats, err := e.mfa.Stats(ctx)
	if err != nil {
		return MFAStats{}, fmt.Errorf("%w: %v", ErrMFAUnavailable, err)
	}
	return MFAStats{
		Total:    stats.Total,
		ByStatus: stats.ByStatus,
		ByMethod: stats.ByMethod,
	}, nil
}

// Sweep runs both cleanup passes immediately and reports what they
// evicted. It is what the background sweepers call on every tick, and
// is useful when Config.Cleanup.Disabled is set.
func (e *Engine) Sweep(ctx context.Context) (SweepResult, error) {
	if e == nil || e.limiter == nil || e.mfa == nil {
		return SweepResult{}, ErrEngineNotReady
	}

	var res SweepResult
	n, err := e.sweepRateLimits(ctx)
	e.sweepObserver("rate_limit", MetricSweepRateLimitEvicted)(n, err)
	if err != nil {
		return res, fmt.Errorf("%w: %v", ErrRateLimitUnavailable, err)
	}
	res.RateLimitEntries = n

	n, err = e.mfa.Sweep(ctx)
	e.sweepObserver("mfa", MetricSweepMFAEvicted)(n, err)
	if err != nil {
		return res, fmt.Errorf("%w: %v", ErrMFAUnavailable, err)
	}
	res.MFASessions = n

	return res, nil
}

// sweepRateLimits evicts closed windows of endpoint counters and of the
// backup code throttle.
func (e *Engine) sweepRateLimits(ctx context.Context) (int, error) {
	n, err := e.limiter.Sweep(ctx)
	if err != nil {
		return n, err
	}
	m, err := e.backupThrottle.Sweep(ctx)
	return n + m, err
}

// Health pings the Redis backend when one is configured. Memory-backed
// engines always report healthy.
func (e *Engine) Health(ctx context.Context) HealthStatus {
	if e == nil || e.redis == nil {
		return HealthStatus{Backend: "memory"}
	}

	start := time.Now()
	err := e.redis.Ping(ctx).Err()
	return HealthStatus{
		Backend:        "redis",
		RedisAvailable: err == nil,
		RedisLatency:   time.Since(start),
	}
}
