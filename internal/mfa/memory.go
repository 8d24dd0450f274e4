package mfa

import (
	"context"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
)

const memoryShardCount = 32

type memoryShard struct {
	mu       sync.Mutex
	sessions map[string]Session
}

// MemoryStore keeps sessions in process memory. In-flight sessions are
// lost when the process restarts.
type MemoryStore struct {
	shards [memoryShardCount]memoryShard
}

func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{}
	for i := range s.shards {
		s.shards[i].sessions = make(map[string]Session)
	}
	return s
}

func (s *MemoryStore) shard(id string) *memoryShard {
	return &s.shards[xxhash.Sum64String(id)%memoryShardCount]
}

func (s *MemoryStore) Create(_ context.Context, session Session, _ time.Duration) error {
	sh := s.shard(session.ID)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if _, ok := sh.sessions[session.ID]; ok {
		return ErrSessionExists
	}
	sh.sessions[session.ID] = session
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (Session, error) {
	sh := s.shard(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	session, ok := sh.sessions[id]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	return session, nil
}

func (s *MemoryStore) Update(_ context.Context, id string, fn UpdateFunc) (Session, error) {
	sh := s.shard(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	session, ok := sh.sessions[id]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	if fn(&session) {
		sh.sessions[id] = session
	}
	return session, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	sh := s.shard(id)
	sh.mu.Lock()
	delete(sh.sessions, id)
	sh.mu.Unlock()
	return nil
}

func (s *MemoryStore) Sweep(ctx context.Context, now time.Time) (int, error) {
	removed := 0
	for i := range s.shards {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		sh := &s.shards[i]
		sh.mu.Lock()
		for id, session := range sh.sessions {
			if now.After(session.ExpiresAt) {
				delete(sh.sessions, id)
				removed++
			}
		}
		sh.mu.Unlock()
	}
	return removed, nil
}

func (s *MemoryStore) List(_ context.Context) ([]Session, error) {
	var out []Session
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.Lock()
		for _, session := range sh.sessions {
			out = append(out, session)
		}
		sh.mu.Unlock()
	}
	return out, nil
}
