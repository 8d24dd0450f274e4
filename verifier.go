package goGate

import "github.com/MrEthical07/goGate/internal/mfa"

// Verifier checks a submitted MFA code for one method. Implementations
// receive the request context and should honor its deadline when they
// call out to a provider. An error or a panic counts as a failed attempt.
type Verifier = mfa.Verifier

// VerifierFunc adapts a function to [Verifier].
type VerifierFunc = mfa.VerifierFunc

// Placeholder verifiers used when no custom [Verifier] is registered for
// a method. They validate only the code's shape.
var (
	// DigitsVerifier accepts exactly six ASCII digits (TOTP, SMS).
	DigitsVerifier = mfa.DigitsVerifier
	// EmailCodeVerifier accepts codes of exactly eight bytes.
	EmailCodeVerifier = mfa.EmailVerifier
	// BiometricVerifier accepts any non-empty assertion payload.
	BiometricVerifier = mfa.BiometricVerifier
)
