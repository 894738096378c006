// Package ratelimit implements fixed-window request limiting keyed by a
// caller token (usually the client IP).
package ratelimit

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrLimited is returned once a token has used up its window.
var ErrLimited = errors.New("rate limit exceeded")

// Limiter admits or rejects one request for key.
type Limiter interface {
	Allow(ctx context.Context, key string) error
}

type window struct {
	bucket int64
	count  int
}

// Memory is an in-process fixed-window limiter. Windows are aligned to
// multiples of the interval since the Unix epoch.
type Memory struct {
	limit    int
	interval time.Duration
	now      func() time.Time

	mu      sync.Mutex
	windows map[string]window
}

// NewMemory allows limit requests per key in each interval.
func NewMemory(limit int, interval time.Duration) *Memory {
	return &Memory{
		limit:    limit,
		interval: interval,
		now:      time.Now,
		windows:  make(map[string]window),
	}
}

// Allow counts one request for key in the current window.
func (m *Memory) Allow(_ context.Context, key string) error {
	bucket := m.now().UnixNano() / int64(m.interval)

	m.mu.Lock()
	defer m.mu.Unlock()

	w := m.windows[key]
	if w.bucket != bucket {
		w = window{bucket: bucket}
	}
	if w.count >= m.limit {
		m.windows[key] = w
		return ErrLimited
	}
	w.count++
	m.windows[key] = w
	return nil
}

// Sweep drops windows older than the current one. Returns the number removed.
func (m *Memory) Sweep() int {
	bucket := m.now().UnixNano() / int64(m.interval)

	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for k, w := range m.windows {
		if w.bucket != bucket {
			delete(m.windows, k)
			n++
		}
	}
	return n
}
