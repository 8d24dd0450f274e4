// Package jwt signs and verifies MFA assertion tokens: short-lived proofs
// that a user completed a second factor for a given session.
package jwt
