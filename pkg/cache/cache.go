// Package cache provides TTL key/value storage for upstream API
// responses and usage-quota bookkeeping. Both are injected into the feed
// clients; core pipeline logic never touches them as ambient state.
package cache

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrMiss is returned when a key is absent or expired.
var ErrMiss = errors.New("cache miss")

// TTLStore is simple key/value storage with per-key expiry.
type TTLStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// QuotaTracker counts upstream API calls against a daily budget.
type QuotaTracker interface {
	// Increment records one call and returns the new count.
	Increment(ctx context.Context, key string) (int64, error)
	// Remaining returns how many calls are left in the current window.
	Remaining(ctx context.Context, key string) (int64, error)
	// ResetIfExpired clears the counter once its window has passed.
	// Implementations are expected to self-expire (Memory rolls the
	// window on access, Redis keys carry a TTL), so callers only need
	// this as an explicit maintenance hook.
	ResetIfExpired(ctx context.Context, key string) error
}

// --- In-memory implementation ---

type memoryItem struct {
	value     []byte
	expiresAt time.Time
}

// Memory is an in-process TTLStore and QuotaTracker, used by tests and
// single-shot CLI runs where Redis is not worth standing up.
type Memory struct {
	mu     sync.Mutex
	items  map[string]memoryItem
	counts map[string]*quotaWindow
	limit  int64
	window time.Duration
	now    func() time.Time
}

type quotaWindow struct {
	count   int64
	started time.Time
}

// NewMemory creates an in-memory store with the given quota budget per
// window.
func NewMemory(limit int64, window time.Duration) *Memory {
	return &Memory{
		items:  make(map[string]memoryItem),
		counts: make(map[string]*quotaWindow),
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

// Get implements TTLStore.
func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.items[key]
	if !ok || m.now().After(item.expiresAt) {
		delete(m.items, key)
		return nil, ErrMiss
	}
	return item.value, nil
}

// Set implements TTLStore.
func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = memoryItem{value: value, expiresAt: m.now().Add(ttl)}
	return nil
}

// Increment implements QuotaTracker.
func (m *Memory) Increment(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	w := m.windowLocked(key)
	w.count++
	return w.count, nil
}

// Remaining implements QuotaTracker.
func (m *Memory) Remaining(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	w := m.windowLocked(key)
	remaining := m.limit - w.count
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// ResetIfExpired implements QuotaTracker.
func (m *Memory) ResetIfExpired(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.windowLocked(key)
	return nil
}

func (m *Memory) windowLocked(key string) *quotaWindow {
	w, ok := m.counts[key]
	if !ok || m.now().Sub(w.started) >= m.window {
		w = &quotaWindow{started: m.now()}
		m.counts[key] = w
	}
	return w
}
