package goGate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/MrEthical07/goGate/internal/mfa"
)

// MFAAssertion is the verified content of a token minted by
// [Engine.IssueMFAAssertion].
type MFAAssertion struct {
	UserID     string
	SessionID  string
	Method     MFAMethod
	VerifiedAt time.Time
	ExpiresAt  time.Time
}

// IssueMFAAssertion signs a short-lived token proving that sessionID was
// verified, for handing to a downstream service. Only VERIFIED sessions
// qualify. Returns [ErrAssertionDisabled] unless Config.Assertion.Enabled.
func (e *Engine) IssueMFAAssertion(ctx context.Context, sessionID string) (string, time.Time, error) {
	if e == nil {
		return "", time.Time{}, ErrEngineNotReady
	}
	if e.assertions == nil {
		return "", time.Time{}, ErrAssertionDisabled
	}

	session, err := e.mfa.Get(ctx, sessionID)
	if err != nil {
		return "", time.Time{}, mapMFAError(err)
	}
	if session.Status != mfa.StatusVerified {
		return "", time.Time{}, fmt.Errorf("%w: session is %s", ErrAssertionInvalid, session.Status)
	}

	token, expiresAt, err := e.assertions.CreateAssertion(session.UserID, session.ID, string(session.Method), session.VerifiedAt)
	if err != nil {
		return "", time.Time{}, err
	}

	e.metricInc(MetricAssertionIssued)
	e.emitAudit(ctx, auditEventAssertionIssued, true, auditFields{userID: session.UserID, sessionID: session.ID}, nil, nil)
	return token, expiresAt, nil
}

// ParseMFAAssertion verifies token and returns its claims. Any signature,
// expiry, issuer or audience failure yields [ErrAssertionInvalid].
func (e *Engine) ParseMFAAssertion(token string) (MFAAssertion, error) {
	if e == nil {
		return MFAAssertion{}, ErrEngineNotReady
	}
	if e.assertions == nil {
		return MFAAssertion{}, ErrAssertionDisabled
	}

	claims, err := e.assertions.ParseAssertion(token)
	if err != nil {
		return MFAAssertion{}, fmt.Errorf("%w: %v", ErrAssertionInvalid, err)
	}

	out := MFAAssertion{
		UserID:     claims.Subject,
		SessionID:  claims.SID,
		VerifiedAt: time.Unix(claims.VerifiedAt, 0).UTC(),
	}
	if len(claims.AMR) > 0 {
		out.Method = MFAMethod(strings.ToUpper(claims.AMR[0]))
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}
