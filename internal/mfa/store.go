package mfa

import (
	"context"
	"time"
)

// UpdateFunc mutates a session in place and reports whether the change
// must be persisted. It may run more than once under optimistic backends.
type UpdateFunc func(s *Session) bool

// Store persists sessions. Update must apply fn atomically per session.
type Store interface {
	Create(ctx context.Context, s Session, ttl time.Duration) error
	Get(ctx context.Context, id string) (Session, error)
	Update(ctx context.Context, id string, fn UpdateFunc) (Session, error)
	Delete(ctx context.Context, id string) error
	// Sweep removes sessions whose ExpiresAt is before now.
	Sweep(ctx context.Context, now time.Time) (int, error)
	List(ctx context.Context) ([]Session, error)
}
