// Package adhan fires the call-to-prayer push notification at most once per
// prayer per calendar day, gated by a persisted trigger record.
package adhan

import (
	"context"
	"sync"
	"time"
)

// DateKey formats a wall-clock instant as the calendar-day key trigger
// records are stored under, in t's location.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// TriggerStore persists daily trigger records. At most one record per
// (event, dateKey) pair is ever active; marking an already-marked pair is a
// no-op.
type TriggerStore interface {
	Fired(ctx context.Context, event, dateKey string) (bool, error)
	MarkFired(ctx context.Context, event, dateKey string) error
}

// ShouldFire reports whether the event has not yet fired today. Callers must
// MarkFired before (or atomically with) performing the side effect, to keep
// the double-fire window as small as the storage allows.
func ShouldFire(ctx context.Context, store TriggerStore, event, dateKey string) (bool, error) {
	fired, err := store.Fired(ctx, event, dateKey)
	if err != nil {
		return false, err
	}
	return !fired, nil
}

// MemoryStore is an in-process TriggerStore for tests and dry runs.
type MemoryStore struct {
	mu    sync.Mutex
	fired map[string]struct{}
}

// NewMemoryStore creates an empty in-memory trigger store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{fired: make(map[string]struct{})}
}

func (m *MemoryStore) Fired(_ context.Context, event, dateKey string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.fired[dateKey+"-"+event]
	return ok, nil
}

func (m *MemoryStore) MarkFired(_ context.Context, event, dateKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fired[dateKey+"-"+event] = struct{}{}
	return nil
}
