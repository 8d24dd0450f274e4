package mfa

import (
	"fmt"
	"time"
)

// Method names a second-factor channel.
type Method string

const (
	MethodTOTP      Method = "TOTP"
	MethodSMS       Method = "SMS"
	MethodEmail     Method = "EMAIL"
	MethodBiometric Method = "BIOMETRIC"
)

// Status is the lifecycle state of a [Session].
type Status uint8

const (
	StatusPending Status = iota
	StatusVerified
	StatusFailed
	StatusExpired
)

var statusNames = [...]string{
	StatusPending:  "PENDING",
	StatusVerified: "VERIFIED",
	StatusFailed:   "FAILED",
	StatusExpired:  "EXPIRED",
}

func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("Status(%d)", uint8(s))
}

// MarshalText renders the status name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Terminal reports whether s accepts no further transitions.
func (s Status) Terminal() bool {
	return s != StatusPending
}

// Session is one MFA challenge.
type Session struct {
	ID          string
	UserID      string
	Method      Method
	Status      Status
	Attempts    int
	MaxAttempts int
	CreatedAt   time.Time
	ExpiresAt   time.Time
	VerifiedAt  time.Time
}

// EffectiveStatus reports EXPIRED for a pending session past ExpiresAt
// without mutating it.
func (s Session) EffectiveStatus(now time.Time) Status {
	if s.Status == StatusPending && now.After(s.ExpiresAt) {
		return StatusExpired
	}
	return s.Status
}
