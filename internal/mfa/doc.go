// Package mfa implements the MFA session lifecycle used by goGate:
// session creation, bounded verification attempts, expiry and the
// pluggable per-method verifiers.
//
// # State machine
//
//	PENDING ──► VERIFIED
//	   │
//	   ├──────► FAILED   (attempt budget exhausted)
//	   └──────► EXPIRED  (verified after ExpiresAt)
//
// Terminal states never change. Every accepted attempt is counted before
// the code is validated.
//
// # Atomicity
//
// [Manager.Verify] runs in three steps: an atomic gate-and-count update,
// the verifier call outside any lock, and an atomic compare-and-set from
// PENDING to the final status. Concurrent correct codes therefore yield a
// single success.
package mfa
