package goGate

import "errors"

var (
	// ErrRateLimitUnavailable reports a failing rate limit backend.
	ErrRateLimitUnavailable = errors.New("rate limit backend unavailable")

	// ErrMFAMethodUnsupported is returned by InitiateMFA for methods outside Config.MFA.Methods.
	ErrMFAMethodUnsupported = errors.New("mfa method unsupported")
	// ErrMFAInvalidUser is returned by InitiateMFA for an empty user ID.
	ErrMFAInvalidUser = errors.New("mfa user id required")
	// ErrMFASessionNotFound means the session never existed or was swept.
	ErrMFASessionNotFound = errors.New("mfa session not found")
	// ErrMFASessionExpired means the session outlived its TTL.
	ErrMFASessionExpired = errors.New("mfa session expired")
	// ErrMFAAttemptsExceeded means the attempt budget was already spent.
	ErrMFAAttemptsExceeded = errors.New("mfa attempts exceeded")
	// ErrMFACodeInvalid means the submitted code was rejected.
	ErrMFACodeInvalid = errors.New("mfa code invalid")
	// ErrMFASessionTerminal means the session already reached a final state.
	ErrMFASessionTerminal = errors.New("mfa session already completed")
	// ErrMFAUnavailable reports a failing MFA session backend.
	ErrMFAUnavailable = errors.New("mfa backend unavailable")

	ErrBackupCodeInvalid     = errors.New("invalid backup code")
	ErrBackupCodeUnavailable = errors.New("backup code backend unavailable")
	ErrBackupCodeRateLimited = errors.New("backup code rate limited")
	ErrBackupCodeInvalidUser = errors.New("backup code user id required")

	ErrAssertionDisabled = errors.New("mfa assertions disabled")
	ErrAssertionInvalid  = errors.New("invalid mfa assertion")

	ErrEngineNotReady = errors.New("engine not initialized")
)
