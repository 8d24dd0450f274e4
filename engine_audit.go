package goGate

import (
	"context"
	"errors"
)

const (
	auditEventRateLimitExceeded     = "rate_limit_exceeded"
	auditEventRateLimitUnconfigured = "rate_limit_unconfigured"
	auditEventRateLimitReset        = "rate_limit_reset"
	auditEventMFAInitiated          = "mfa_initiated"
	auditEventMFAVerified           = "mfa_verified"
	auditEventMFAFailure            = "mfa_failure"
	auditEventMFAAttemptsExceeded   = "mfa_attempts_exceeded"
	auditEventMFAExpired            = "mfa_expired"
	auditEventMFAReplay             = "mfa_replay"
	auditEventBackupCodesGenerated  = "backup_codes_generated"
	auditEventBackupCodeUsed        = "backup_code_used"
	auditEventBackupCodeFailed      = "backup_code_failed"
	auditEventAssertionIssued       = "mfa_assertion_issued"
)

// AuditErrorCode is the stable, secret-free error label carried by audit events.
type AuditErrorCode string

const (
	auditErrRateLimited       AuditErrorCode = "rate_limited"
	auditErrUnsupportedMethod AuditErrorCode = "unsupported_method"
	auditErrSessionNotFound   AuditErrorCode = "session_not_found"
	auditErrSessionExpired    AuditErrorCode = "session_expired"
	auditErrAttemptsExceeded  AuditErrorCode = "attempts_exceeded"
	auditErrCodeInvalid       AuditErrorCode = "code_invalid"
	auditErrSessionTerminal   AuditErrorCode = "session_terminal"
	auditErrBackupCodeInvalid AuditErrorCode = "backup_code_invalid"
	auditErrUnavailable       AuditErrorCode = "backend_unavailable"
	auditErrInternal          AuditErrorCode = "internal_error"
)

type auditFields struct {
	userID    string
	sessionID string
	endpoint  string
}

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	fields auditFields,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: e.now().UTC(),
		EventType: eventType,
		UserID:    fields.userID,
		SessionID: fields.sessionID,
		Endpoint:  fields.endpoint,
		IP:        ClientIPFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrBackupCodeRateLimited):
		return auditErrRateLimited
	case errors.Is(err, ErrMFAMethodUnsupported):
		return auditErrUnsupportedMethod
	case errors.Is(err, ErrMFASessionNotFound):
		return auditErrSessionNotFound
	case errors.Is(err, ErrMFASessionExpired):
		return auditErrSessionExpired
	case errors.Is(err, ErrMFAAttemptsExceeded):
		return auditErrAttemptsExceeded
	case errors.Is(err, ErrMFACodeInvalid):
		return auditErrCodeInvalid
	case errors.Is(err, ErrMFASessionTerminal):
		return auditErrSessionTerminal
	case errors.Is(err, ErrBackupCodeInvalid):
		return auditErrBackupCodeInvalid
	case errors.Is(err, ErrRateLimitUnavailable),
		errors.Is(err, ErrMFAUnavailable),
		errors.Is(err, ErrBackupCodeUnavailable):
		return auditErrUnavailable
	default:
		return auditErrInternal
	}
}
