package goGate

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/MrEthical07/goGate/internal/mfa"
)

// InitiateMFA opens a PENDING session for userID and returns its ID.
// It is the only MFA call that rejects input: an empty user ID returns
// [ErrMFAInvalidUser], a method outside Config.MFA.Methods returns
// [ErrMFAMethodUnsupported].
func (e *Engine) InitiateMFA(ctx context.Context, userID string, method MFAMethod) (string, error) {
	if e == nil || e.mfa == nil {
		return "", ErrEngineNotReady
	}

	session, err := e.mfa.Initiate(ctx, userID, method)
	if err != nil {
		err = mapMFAError(err)
		if errors.Is(err, ErrMFAMethodUnsupported) {
			e.metricInc(MetricMFAUnsupportedMethod)
		} else if errors.Is(err, ErrMFAUnavailable) {
			e.metricInc(MetricMFABackendError)
			e.log().Error("mfa initiate failed", "method", string(method), "error", err)
		}
		return "", err
	}

	e.metricInc(MetricMFAInitiated)
	e.emitAudit(ctx, auditEventMFAInitiated, true, auditFields{userID: userID, sessionID: session.ID}, nil, func() map[string]string {
		return map[string]string{"method": string(method)}
	})
	return session.ID, nil
}

// VerifyMFA submits code for sessionID and reports whether the session
// became VERIFIED. Every failure reads as false; use
// [Engine.VerifyMFAWithResult] to learn why.
func (e *Engine) VerifyMFA(ctx context.Context, sessionID, code string) bool {
	_, err := e.VerifyMFAWithResult(ctx, sessionID, code)
	return err == nil
}

// VerifyMFAWithResult is [Engine.VerifyMFA] with the session snapshot
// after the call and the reason for a rejection.
//
// The attempt counter is charged before the code is checked. A session
// that already reached VERIFIED, FAILED or EXPIRED returns
// [ErrMFASessionTerminal] and is left untouched. The attempt that spends
// the last of the budget moves the session to FAILED. A verifier that
// errors or panics counts as a wrong code.
func (e *Engine) VerifyMFAWithResult(ctx context.Context, sessionID, code string) (MFASession, error) {
	if e == nil || e.mfa == nil {
		return MFASession{}, ErrEngineNotReady
	}
	started := time.Now()
	defer e.observe(MetricVerifyMFALatency, started)

	session, err := e.mfa.Verify(ctx, sessionID, code)
	snapshot := sessionFromInternal(session)
	fields := auditFields{userID: session.UserID, sessionID: sessionID}

	if err == nil {
		e.metricInc(MetricMFAVerified)
		e.emitAudit(ctx, auditEventMFAVerified, true, fields, nil, func() map[string]string {
			return map[string]string{
				"method":   string(session.Method),
				"attempts": strconv.Itoa(session.Attempts),
			}
		})
		return snapshot, nil
	}

	if mfa.IsVerifierFailure(err) {
		e.metricInc(MetricMFAVerifierError)
		e.log().Warn("mfa verifier failed", "method", string(session.Method), "error", err)
	}
	public := mapMFAError(err)

	switch {
	case errors.Is(public, ErrMFACodeInvalid):
		e.metricInc(MetricMFAFailedAttempt)
		if session.Status == mfa.StatusFailed {
			e.metricInc(MetricMFAAttemptsExceeded)
			e.emitAudit(ctx, auditEventMFAAttemptsExceeded, false, fields, public, nil)
		} else {
			e.emitAudit(ctx, auditEventMFAFailure, false, fields, public, func() map[string]string {
				return map[string]string{"attempts": strconv.Itoa(session.Attempts)}
			})
		}
	case errors.Is(public, ErrMFAAttemptsExceeded):
		e.metricInc(MetricMFAAttemptsExceeded)
		e.emitAudit(ctx, auditEventMFAAttemptsExceeded, false, fields, public, nil)
	case errors.Is(public, ErrMFASessionExpired):
		e.metricInc(MetricMFAExpired)
		e.emitAudit(ctx, auditEventMFAExpired, false, fields, public, nil)
	case errors.Is(public, ErrMFASessionTerminal):
		e.metricInc(MetricMFATerminalReplay)
		e.emitAudit(ctx, auditEventMFAReplay, false, fields, public, func() map[string]string {
			return map[string]string{"status": session.Status.String()}
		})
	case errors.Is(err, mfa.ErrUpdateContention):
		e.metricInc(MetricMFABackendError)
		e.log().Warn("mfa verify lost update race", "session_id", sessionID, "error", err)
	case errors.Is(public, ErrMFAUnavailable):
		e.metricInc(MetricMFABackendError)
		e.log().Error("mfa verify failed", "error", err)
	}

	return snapshot, public
}

// GetMFASession returns a snapshot of sessionID. A PENDING session past
// its expiry is reported as MFAExpired without being modified.
func (e *Engine) GetMFASession(ctx context.Context, sessionID string) (MFASession, error) {
	if e == nil || e.mfa == nil {
		return MFASession{}, ErrEngineNotReady
	}
	session, err := e.mfa.Get(ctx, sessionID)
	if err != nil {
		return MFASession{}, mapMFAError(err)
	}
	snapshot := sessionFromInternal(session)
	snapshot.Status = session.EffectiveStatus(e.now())
	return snapshot, nil
}

func mapMFAError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mfa.ErrInvalidUser):
		return ErrMFAInvalidUser
	case errors.Is(err, mfa.ErrUnsupportedMethod):
		return fmt.Errorf("%w: %v", ErrMFAMethodUnsupported, err)
	case errors.Is(err, mfa.ErrSessionNotFound):
		return ErrMFASessionNotFound
	case errors.Is(err, mfa.ErrSessionExpired):
		return ErrMFASessionExpired
	case errors.Is(err, mfa.ErrAttemptsExceeded):
		return ErrMFAAttemptsExceeded
	case errors.Is(err, mfa.ErrSessionTerminal):
		return ErrMFASessionTerminal
	case errors.Is(err, mfa.ErrCodeInvalid), errors.Is(err, mfa.ErrVerifierFailed):
		return ErrMFACodeInvalid
	default:
		return fmt.Errorf("%w: %v", ErrMFAUnavailable, err)
	}
}
