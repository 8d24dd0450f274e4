// Package goGate is an access-control core: per-endpoint fixed-window
// rate limiting plus an MFA session engine with pluggable verifiers and
// single-use backup codes.
//
// Engine methods are safe to call from multiple goroutines after
// initialization through [Builder.Build].
//
// # Rate limiting
//
// Each logical endpoint carries a [RateLimitPolicy]. [Engine.CheckLimit]
// counts one request per identifier and answers with a [RateLimitResult].
// Endpoints without a policy fail open and are reported as unconfigured.
//
// # MFA sessions
//
// [Engine.InitiateMFA] opens a PENDING session; [Engine.VerifyMFA] drives
// it to VERIFIED, FAILED or EXPIRED. Terminal sessions never change again.
// Verification of one session is serialized in the store, and the
// verifier runs outside any lock.
//
// # Storage
//
// State lives in sharded in-process maps unless [Builder.WithRedis] is
// used. In-process state does not survive a restart.
package goGate
