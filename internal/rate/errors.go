package rate

import "errors"

var (
	// ErrStoreUnavailable reports a failing rate limit backend.
	ErrStoreUnavailable = errors.New("rate limit store unavailable")
	// ErrInvalidPolicy reports a policy that cannot be enforced.
	ErrInvalidPolicy = errors.New("invalid rate limit policy")
)
