// Package attempts counts failed sign-in attempts per key within a fixed window.
package attempts

import (
	"context"
	"sync"
	"time"
)

const (
	DefaultLimit  = 5
	DefaultWindow = 15 * time.Minute
)

type entry struct {
	count   int
	resetAt time.Time
}

// Memory is a process-local counter, used when no redis is configured.
type Memory struct {
	window time.Duration
	now    func() time.Time

	mu      sync.Mutex
	entries map[string]entry
}

func NewMemory(window time.Duration) *Memory {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Memory{window: window, now: time.Now, entries: make(map[string]entry)}
}

// Count returns the failures recorded for key in the current window.
func (m *Memory) Count(_ context.Context, key string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok || !m.now().Before(e.resetAt) {
		return 0, nil
	}
	return e.count, nil
}

// Incr records a failure. The window starts at the first failure.
func (m *Memory) Incr(_ context.Context, key string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	e, ok := m.entries[key]
	if !ok || !now.Before(e.resetAt) {
		e = entry{resetAt: now.Add(m.window)}
	}
	e.count++
	m.entries[key] = e
	return e.count, nil
}

// Reset clears key after a successful sign-in.
func (m *Memory) Reset(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}
