package middleware

import (
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"

	goGate "github.com/MrEthical07/goGate"
)

// KeyFunc extracts the rate limit identifier of a request.
type KeyFunc func(r *http.Request) string

// RateLimitOptions tunes [RateLimit].
type RateLimitOptions struct {
	// Key defaults to [ClientIP].
	Key KeyFunc
	// FailClosed answers 503 when the backend is unavailable instead of
	// letting the request through.
	FailClosed bool
}

// RateLimit counts every request against endpoint. Denied requests get
// 429 with Retry-After; allowed ones carry X-RateLimit-* headers when the
// endpoint has a policy. The client IP is attached to the request context
// for audit events.
func RateLimit(engine *goGate.Engine, endpoint string, opts RateLimitOptions) func(http.Handler) http.Handler {
	keyFn := opts.Key
	if keyFn == nil {
		keyFn = ClientIP
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := ClientIP(r)
			ctx := goGate.WithClientIP(r.Context(), ip)
			r = r.WithContext(ctx)

			res, err := engine.CheckLimit(ctx, endpoint, keyFn(r))
			if err != nil {
				if opts.FailClosed || errors.Is(err, goGate.ErrEngineNotReady) {
					http.Error(w, "service unavailable", http.StatusServiceUnavailable)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			if res.Configured {
				h := w.Header()
				h.Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
				h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
				h.Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))
			}
			if !res.Allowed {
				w.Header().Set("Retry-After", goGate.RetryAfterSeconds(res.RetryAfter))
				http.Error(w, "too many requests", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP returns the first X-Forwarded-For hop, then X-Real-IP, then
// the host part of RemoteAddr. Only trust forwarding headers behind a
// proxy that overwrites them.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
