package rate

import (
	"fmt"
	"time"
)

// Outcome describes the result of the throttled operation, when known.
type Outcome uint8

const (
	// OutcomeUnspecified always counts against the window.
	OutcomeUnspecified Outcome = iota
	// OutcomeSuccess is skipped when Policy.SkipSuccessfulRequests is set.
	OutcomeSuccess
	// OutcomeFailure is skipped when Policy.SkipFailedRequests is set.
	OutcomeFailure
)

// String returns the lower-case outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeFailure:
		return "failure"
	default:
		return "unspecified"
	}
}

// Policy is the static throttling rule of one logical endpoint.
type Policy struct {
	Window                 time.Duration
	MaxRequests            int
	SkipSuccessfulRequests bool
	SkipFailedRequests     bool
	KeyGenerator           func(identifier string) string
}

// Validate checks MaxRequests and Window.
func (p Policy) Validate() error {
	if p.MaxRequests < 1 {
		return fmt.Errorf("%w: MaxRequests must be >= 1", ErrInvalidPolicy)
	}
	if p.Window <= 0 {
		return fmt.Errorf("%w: Window must be > 0", ErrInvalidPolicy)
	}
	return nil
}

// Key derives the storage key for identifier under endpoint.
func (p Policy) Key(endpoint, identifier string) string {
	if p.KeyGenerator != nil {
		return p.KeyGenerator(identifier)
	}
	return DefaultKey(endpoint, identifier)
}

// Counts reports whether a hit with outcome increments the window counter.
func (p Policy) Counts(outcome Outcome) bool {
	switch outcome {
	case OutcomeSuccess:
		return !p.SkipSuccessfulRequests
	case OutcomeFailure:
		return !p.SkipFailedRequests
	default:
		return true
	}
}

// DefaultKey joins endpoint and identifier with ':'.
func DefaultKey(endpoint, identifier string) string {
	return endpoint + ":" + identifier
}
