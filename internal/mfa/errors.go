package mfa

import "errors"

var (
	ErrSessionNotFound    = errors.New("mfa session not found")
	ErrSessionExpired     = errors.New("mfa session expired")
	ErrAttemptsExceeded   = errors.New("mfa attempts exceeded")
	ErrCodeInvalid        = errors.New("mfa code invalid")
	ErrSessionTerminal    = errors.New("mfa session already completed")
	ErrUnsupportedMethod  = errors.New("mfa method unsupported")
	ErrInvalidUser        = errors.New("mfa user id required")
	ErrVerifierFailed     = errors.New("mfa verifier failed")
	ErrStoreUnavailable   = errors.New("mfa store unavailable")
	ErrSessionExists      = errors.New("mfa session already exists")
	ErrUpdateContention   = errors.New("mfa update contention")
	errSessionEncodingBad = errors.New("invalid mfa session encoding")
)
