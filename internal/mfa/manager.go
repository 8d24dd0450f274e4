package mfa

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Config holds the session lifecycle parameters.
type Config struct {
	Methods     []Method
	SessionTTL  time.Duration
	MaxAttempts int
	// Retention keeps finished records readable in backends with native
	// expiry until the next sweep would have removed them.
	Retention time.Duration
}

// Stats counts sessions by effective status and by method.
type Stats struct {
	Total    int
	ByStatus map[Status]int
	ByMethod map[Method]int
}

// Manager drives sessions through their lifecycle.
type Manager struct {
	store     Store
	cfg       Config
	methods   map[Method]struct{}
	verifiers map[Method]Verifier
	now       func() time.Time
	newID     func() string
}

// NewManager builds a [Manager]. Methods without an entry in verifiers
// fall back to [DefaultVerifiers].
func NewManager(store Store, cfg Config, verifiers map[Method]Verifier, now func() time.Time) *Manager {
	if store == nil {
		store = NewMemoryStore()
	}
	if now == nil {
		now = time.Now
	}

	registry := DefaultVerifiers()
	for method, v := range verifiers {
		if v != nil {
			registry[method] = v
		}
	}
	methods := make(map[Method]struct{}, len(cfg.Methods))
	for _, m := range cfg.Methods {
		methods[m] = struct{}{}
	}

	return &Manager{
		store:     store,
		cfg:       cfg,
		methods:   methods,
		verifiers: registry,
		now:       now,
		newID:     uuid.NewString,
	}
}

// Supports reports whether method is enabled.
func (m *Manager) Supports(method Method) bool {
	_, ok := m.methods[method]
	return ok
}

// Initiate opens a PENDING session for userID.
func (m *Manager) Initiate(ctx context.Context, userID string, method Method) (Session, error) {
	if userID == "" {
		return Session{}, ErrInvalidUser
	}
	if !m.Supports(method) {
		return Session{}, fmt.Errorf("%w: %s", ErrUnsupportedMethod, method)
	}
	if _, ok := m.verifiers[method]; !ok {
		return Session{}, fmt.Errorf("%w: no verifier for %s", ErrUnsupportedMethod, method)
	}

	now := m.now()
	session := Session{
		ID:          m.newID(),
		UserID:      userID,
		Method:      method,
		Status:      StatusPending,
		MaxAttempts: m.cfg.MaxAttempts,
		CreatedAt:   now,
		ExpiresAt:   now.Add(m.cfg.SessionTTL),
	}
	if err := m.store.Create(ctx, session, m.cfg.SessionTTL+m.cfg.Retention); err != nil {
		return Session{}, err
	}
	return session, nil
}

// Get returns the stored session.
func (m *Manager) Get(ctx context.Context, id string) (Session, error) {
	return m.store.Get(ctx, id)
}

// Verify submits code against session id. A nil error means the session
// moved to VERIFIED during this call; any other result leaves the
// returned snapshot describing the session after the call.
func (m *Manager) Verify(ctx context.Context, id, code string) (Session, error) {
	var reason error
	session, err := m.store.Update(ctx, id, func(s *Session) bool {
		reason = nil
		now := m.now()
		switch {
		case s.Status.Terminal():
			reason = ErrSessionTerminal
			return false
		case now.After(s.ExpiresAt):
			s.Status = StatusExpired
			reason = ErrSessionExpired
			return true
		case s.Attempts >= s.MaxAttempts:
			s.Status = StatusFailed
			reason = ErrAttemptsExceeded
			return true
		}
		s.Attempts++
		return true
	})
	if err != nil {
		return Session{}, err
	}
	if reason != nil {
		return session, reason
	}

	ok, verr := m.callVerifier(ctx, session, code)

	var final error
	session, err = m.store.Update(ctx, id, func(s *Session) bool {
		final = nil
		if s.Status != StatusPending {
			final = ErrSessionTerminal
			return false
		}
		if ok {
			s.Status = StatusVerified
			s.VerifiedAt = m.now()
			return true
		}
		final = ErrCodeInvalid
		if verr != nil {
			final = verr
		}
		if s.Attempts >= s.MaxAttempts {
			s.Status = StatusFailed
			return true
		}
		return false
	})
	if err != nil {
		return Session{}, err
	}
	return session, final
}

func (m *Manager) callVerifier(ctx context.Context, session Session, code string) (ok bool, err error) {
	v, found := m.verifiers[session.Method]
	if !found {
		return false, fmt.Errorf("%w: no verifier for %s", ErrVerifierFailed, session.Method)
	}

	defer func() {
		if r := recover(); r != nil {
			ok = false
			err = fmt.Errorf("%w: panic: %v", ErrVerifierFailed, r)
		}
	}()

	ok, err = v.Verify(ctx, code, session.UserID)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrVerifierFailed, err)
	}
	return ok, nil
}

// Sweep removes sessions past their expiry.
func (m *Manager) Sweep(ctx context.Context) (int, error) {
	return m.store.Sweep(ctx, m.now())
}

// Stats aggregates stored sessions. Pending sessions past expiry are
// counted as expired.
func (m *Manager) Stats(ctx context.Context) (Stats, error) {
	sessions, err := m.store.List(ctx)
	if err != nil {
		return Stats{}, err
	}
	now := m.now()
	stats := Stats{
		Total:    len(sessions),
		ByStatus: make(map[Status]int, len(statusNames)),
		ByMethod: make(map[Method]int),
	}
	for _, s := range sessions {
		stats.ByStatus[s.EffectiveStatus(now)]++
		stats.ByMethod[s.Method]++
	}
	return stats, nil
}

// IsVerifierFailure reports whether err came from a failing verifier.
func IsVerifierFailure(err error) bool {
	return errors.Is(err, ErrVerifierFailed)
}
