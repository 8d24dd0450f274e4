package backup

import (
	"context"
	"errors"
)

// Manager ties code generation, storage and the failure limiter together.
type Manager struct {
	store       Store
	limiter     *Limiter
	length      int
	randomIndex func(int) (int, error)
}

func NewManager(store Store, limiter *Limiter, length int) *Manager {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Manager{
		store:       store,
		limiter:     limiter,
		length:      length,
		randomIndex: cryptoRandomIndex,
	}
}

// Generate issues count fresh codes for userID, replacing the old set.
func (m *Manager) Generate(ctx context.Context, userID string, count int) ([]string, error) {
	codes, hashes, err := Generate(userID, count, m.length, m.randomIndex)
	if err != nil {
		return nil, err
	}
	if err := m.store.Replace(ctx, userID, hashes); err != nil {
		return nil, err
	}
	return codes, nil
}

// Redeem consumes code for userID. It reports false for unknown users,
// unknown codes and codes already used.
func (m *Manager) Redeem(ctx context.Context, userID, code string) (bool, error) {
	if err := m.limiter.Check(ctx, userID); err != nil {
		return false, err
	}

	canonical := Canonicalize(code)
	ok := false
	if userID != "" && canonical != "" {
		var err error
		ok, err = m.store.Consume(ctx, userID, HashCode(userID, canonical))
		if err != nil {
			return false, err
		}
	}

	if !ok {
		if err := m.limiter.RecordFailure(ctx, userID); err != nil && !errors.Is(err, ErrRateLimited) {
			return false, err
		}
		return false, nil
	}
	if err := m.limiter.Reset(ctx, userID); err != nil {
		return true, err
	}
	return true, nil
}

// Remaining counts unused codes of userID.
func (m *Manager) Remaining(ctx context.Context, userID string) (int, error) {
	return m.store.Remaining(ctx, userID)
}
