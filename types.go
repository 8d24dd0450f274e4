package goGate

import (
	"time"

	"github.com/MrEthical07/goGate/internal/mfa"
	"github.com/MrEthical07/goGate/internal/rate"
)

// RateLimitPolicy is the throttling rule of one logical endpoint:
// at most MaxRequests counted requests per Window.
type RateLimitPolicy = rate.Policy

// RequestOutcome tells CheckLimitWithOutcome how the throttled operation
// ended so skip flags can apply.
type RequestOutcome = rate.Outcome

const (
	OutcomeUnspecified = rate.OutcomeUnspecified
	OutcomeSuccess     = rate.OutcomeSuccess
	OutcomeFailure     = rate.OutcomeFailure
)

// UnlimitedRemaining is reported as Remaining for unconfigured endpoints.
const UnlimitedRemaining = rate.Unlimited

// RateLimitResult is the answer to one rate limit check.
type RateLimitResult struct {
	Allowed    bool
	Configured bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	// RetryAfter is a whole number of seconds, set only when Allowed is false.
	RetryAfter time.Duration
}

// RateLimitStats reports tracked counters grouped by endpoint prefix.
type RateLimitStats struct {
	TotalEntries int
	ByEndpoint   map[string]int
}

// MFAMethod names a second-factor channel.
type MFAMethod = mfa.Method

const (
	MFAMethodTOTP      = mfa.MethodTOTP
	MFAMethodSMS       = mfa.MethodSMS
	MFAMethodEmail     = mfa.MethodEmail
	MFAMethodBiometric = mfa.MethodBiometric
)

// MFAStatus is the lifecycle state of an MFA session.
type MFAStatus = mfa.Status

const (
	MFAPending  = mfa.StatusPending
	MFAVerified = mfa.StatusVerified
	MFAFailed   = mfa.StatusFailed
	MFAExpired  = mfa.StatusExpired
)

// MFASession is a read-only snapshot of one MFA challenge.
type MFASession struct {
	SessionID   string
	UserID      string
	Method      MFAMethod
	Status      MFAStatus
	Attempts    int
	MaxAttempts int
	CreatedAt   time.Time
	ExpiresAt   time.Time
	VerifiedAt  time.Time
}

func sessionFromInternal(s mfa.Session) MFASession {
	return MFASession{
		SessionID:   s.ID,
		UserID:      s.UserID,
		Method:      s.Method,
		Status:      s.Status,
		Attempts:    s.Attempts,
		MaxAttempts: s.MaxAttempts,
		CreatedAt:   s.CreatedAt,
		ExpiresAt:   s.ExpiresAt,
		VerifiedAt:  s.VerifiedAt,
	}
}

// MFAStats counts stored sessions. A pending session past its expiry is
// counted as MFAExpired.
type MFAStats struct {
	Total    int
	ByStatus map[MFAStatus]int
	ByMethod map[MFAMethod]int
}

// SweepResult reports what one manual sweep evicted.
type SweepResult struct {
	RateLimitEntries int
	MFASessions      int
}
