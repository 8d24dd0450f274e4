package goGate

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

// CheckLimit counts one request for identifier against endpoint.
//
// Endpoints without a policy fail open: the result is allowed, carries
// Configured=false and Remaining=[UnlimitedRemaining], and a warning is
// logged the first time each such endpoint is seen. A failing backend
// returns [ErrRateLimitUnavailable].
func (e *Engine) CheckLimit(ctx context.Context, endpoint, identifier string) (RateLimitResult, error) {
	return e.CheckLimitWithOutcome(ctx, endpoint, identifier, OutcomeUnspecified)
}

// CheckLimitWithOutcome is [Engine.CheckLimit] for callers that know how
// the request ended, so SkipSuccessfulRequests and SkipFailedRequests
// can leave the counter untouched.
func (e *Engine) CheckLimitWithOutcome(ctx context.Context, endpoint, identifier string, outcome RequestOutcome) (RateLimitResult, error) {
	if e == nil || e.limiter == nil {
		return RateLimitResult{}, ErrEngineNotReady
	}
	started := time.Now()
	defer e.observe(MetricCheckLimitLatency, started)

	d, err := e.limiter.Check(ctx, endpoint, identifier, outcome)
	if err != nil {
		e.metricInc(MetricRateLimitBackendError)
		e.log().Error("rate limit check failed", "endpoint", endpoint, "error", err)
		return RateLimitResult{}, fmt.Errorf("%w: %v", ErrRateLimitUnavailable, err)
	}

	result := RateLimitResult{
		Allowed:    d.Allowed,
		Configured: d.Configured,
		Limit:      d.Limit,
		Remaining:  d.Remaining,
		ResetAt:    d.ResetAt,
		RetryAfter: d.RetryAfter,
	}

	if !d.Configured {
		e.metricInc(MetricRateLimitUnconfigured)
		if _, seen := e.unconfigured.LoadOrStore(endpoint, struct{}{}); !seen {
			e.log().Warn("no rate limit policy for endpoint, allowing request", "endpoint", endpoint)
			e.emitAudit(ctx, auditEventRateLimitUnconfigured, true, auditFields{endpoint: endpoint}, nil, nil)
		}
		return result, nil
	}

	if d.Allowed {
		e.metricInc(MetricRateLimitAllowed)
		return result, nil
	}

	e.metricInc(MetricRateLimitDenied)
	e.log().Info("rate limit exceeded", "endpoint", endpoint, "retry_after", d.RetryAfter)
	e.emitAudit(ctx, auditEventRateLimitExceeded, false, auditFields{endpoint: endpoint}, nil, func() map[string]string {
		return map[string]string{
			"limit":       strconv.Itoa(d.Limit),
			"count":       strconv.Itoa(d.Count),
			"retry_after": strconv.Itoa(int(d.RetryAfter / time.Second)),
		}
	})
	return result, nil
}

// ResetLimit clears the window of identifier under endpoint, typically
// after a successful login. Resetting an untracked key is not an error.
func (e *Engine) ResetLimit(ctx context.Context, endpoint, identifier string) error {
	if e == nil || e.limiter == nil {
		return ErrEngineNotReady
	}
	if err := e.limiter.Reset(ctx, endpoint, identifier); err != nil {
		e.metricInc(MetricRateLimitBackendError)
		return fmt.Errorf("%w: %v", ErrRateLimitUnavailable, err)
	}
	e.metricInc(MetricRateLimitReset)
	e.emitAudit(ctx, auditEventRateLimitReset, true, auditFields{endpoint: endpoint}, nil, nil)
	return nil
}

// RateLimitStats counts tracked windows, grouped by endpoint. Entries
// whose window already closed but were not swept yet are included.
func (e *Engine) RateLimitStats(ctx context.Context) (RateLimitStats, error) {
	if e == nil || e.limiter == nil {
		return RateLimitStats{}, ErrEngineNotReady
	}
	stats, err := e.limiter.Stats(ctx)
	if err != nil {
		return RateLimitStats{}, fmt.Errorf("%w: %v", ErrRateLimitUnavailable, err)
	}
	return RateLimitStats{
		TotalEntries: stats.TotalEntries,
		ByEndpoint:   stats.ByEndpoint,
	}, nil
}

// RetryAfterSeconds formats a RetryAfter duration for a Retry-After header.
func RetryAfterSeconds(d time.Duration) string {
	if d <= 0 {
		return "0"
	}
	secs := (d + time.Second - 1) / time.Second
	return strconv.FormatInt(int64(secs), 10)
}
