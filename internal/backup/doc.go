// Package backup issues and redeems single-use MFA backup codes.
//
// Plaintext codes leave the package exactly once, at generation. Stores
// only ever see SHA-256 digests salted with the user ID, and redemption
// removes the digest so a code cannot be replayed.
package backup
