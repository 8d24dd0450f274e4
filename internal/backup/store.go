package backup

import (
	"context"
	"errors"
	"sync"
)

// ErrStoreUnavailable reports a failing backup code backend.
var ErrStoreUnavailable = errors.New("backup code store unavailable")

// Store keeps the current code set of each user.
type Store interface {
	// Replace discards any previous set of userID and stores hashes.
	Replace(ctx context.Context, userID string, hashes []Hash) error
	// Consume removes hash from the set of userID and reports whether it
	// was present. Concurrent calls for one hash succeed at most once.
	Consume(ctx context.Context, userID string, hash Hash) (bool, error)
	// Remaining counts unused codes of userID.
	Remaining(ctx context.Context, userID string) (int, error)
}

// MemoryStore is the in-process [Store].
type MemoryStore struct {
	mu   sync.Mutex
	sets map[string][]Hash
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sets: make(map[string][]Hash)}
}

func (s *MemoryStore) Replace(_ context.Context, userID string, hashes []Hash) error {
	copied := make([]Hash, len(hashes))
	copy(copied, hashes)

	s.mu.Lock()
	s.sets[userID] = copied
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Consume(_ context.Context, userID string, hash Hash) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set := s.sets[userID]
	for i := range set {
		if set[i] == hash {
			s.sets[userID] = append(set[:i:i], set[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStore) Remaining(_ context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sets[userID]), nil
}
