package rate

import (
	"context"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
)

const memoryShardCount = 32

type memoryShard struct {
	mu      sync.Mutex
	entries map[string]Entry
}

// MemoryStore is the process-local [Store]. State is lost on restart.
type MemoryStore struct {
	shards [memoryShardCount]memoryShard
}

// NewMemoryStore returns an empty [MemoryStore].
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{}
	for i := range s.shards {
		s.shards[i].entries = make(map[string]Entry)
	}
	return s
}

func (s *MemoryStore) shard(key string) *memoryShard {
	return &s.shards[xxhash.Sum64String(key)%memoryShardCount]
}

// Hit implements [Store].
func (s *MemoryStore) Hit(_ context.Context, key string, window time.Duration, now time.Time, increment bool) (Entry, error) {
	sh := s.shard(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	entry, ok := sh.entries[key]
	if !ok || !entry.Live(now) {
		entry = Entry{
			ResetAt:        now.Add(window),
			FirstRequestAt: now,
		}
	}
	if increment {
		entry.Count++
	}
	sh.entries[key] = entry

	return entry, nil
}

// Delete implements [Store].
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	sh := s.shard(key)
	sh.mu.Lock()
	delete(sh.entries, key)
	sh.mu.Unlock()
	return nil
}

// Sweep implements [Store]. Shards are locked one at a time so callers
// on other shards are never blocked by a sweep.
func (s *MemoryStore) Sweep(ctx context.Context, now time.Time) (int, error) {
	removed := 0
	for i := range s.shards {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		sh := &s.shards[i]
		sh.mu.Lock()
		for key, entry := range sh.entries {
			if !entry.Live(now) {
				delete(sh.entries, key)
				removed++
			}
		}
		sh.mu.Unlock()
	}
	return removed, nil
}

// Keys implements [Store].
func (s *MemoryStore) Keys(_ context.Context) ([]string, error) {
	var keys []string
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.Lock()
		for key := range sh.entries {
			keys = append(keys, key)
		}
		sh.mu.Unlock()
	}
	return keys, nil
}

// Get returns the stored entry for key, live or not.
func (s *MemoryStore) Get(key string) (Entry, bool) {
	sh := s.shard(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	entry, ok := sh.entries[key]
	return entry, ok
}
