package store

import (
	"context"

	"github.com/maypok86/otter/v2"
	"github.com/maypok86/otter/v2/stats"
)

// Memory is an in-process store backed by otter. Entries are only evicted
// when the size bound is reached; there is no expiry.
type Memory struct {
	cache   *otter.Cache[string, CachedToken]
	counter *stats.Counter
}

// NewMemory creates a new in-memory store holding at most maxSize users.
func NewMemory(maxSize int) *Memory {
	counter := stats.NewCounter()
	cache := otter.Must(&otter.Options[string, CachedToken]{
		MaximumSize:   maxSize,
		StatsRecorder: counter,
	})

	return &Memory{
		cache:   cache,
		counter: counter,
	}
}

func (m *Memory) Get(_ context.Context, userID string) (CachedToken, bool, error) {
	token, ok := m.cache.GetIfPresent(userID)
	if !ok {
		return CachedToken{}, false, nil
	}

	return token, true, nil
}

func (m *Memory) Put(_ context.Context, token CachedToken) error {
	m.cache.Set(token.UserID, token)
	return nil
}

func (m *Memory) Close() error {
	m.cache.InvalidateAll()
	return nil
}

// Stats reports the hit and miss counts seen by this store.
func (m *Memory) Stats() stats.Stats {
	return m.counter.Snapshot()
}
