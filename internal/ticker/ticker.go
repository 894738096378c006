// Package ticker drives countdown refreshes at a fixed interval.
package ticker

import (
	"context"
	"errors"
	"sync"
	"time"
)

// DefaultInterval is the refresh period of a countdown view.
const DefaultInterval = 500 * time.Millisecond

// ErrAlreadyRunning is returned by Start while a previous run is active.
var ErrAlreadyRunning = errors.New("ticker already running")

// Task receives the instant sampled for one tick.
type Task func(now time.Time)

// Loop runs a Task on a fixed interval until stopped. A Loop holds at most
// one timer at a time.
type Loop struct {
	interval time.Duration
	task     Task
	now      func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a stopped loop. A non-positive interval means DefaultInterval.
func New(interval time.Duration, task Task) *Loop {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Loop{interval: interval, task: task, now: time.Now}
}

// SetClock replaces the instant source sampled on every tick. Call it
// before Start.
func (l *Loop) SetClock(now func() time.Time) {
	if now != nil {
		l.now = now
	}
}

// Start runs the task once immediately and then on every tick, until ctx is
// done or Stop is called.
func (l *Loop) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.done != nil {
		select {
		case <-l.done:
			// previous run ended on its own context
		default:
			return ErrAlreadyRunning
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	l.cancel = cancel
	l.done = done

	go l.run(runCtx, done)
	return nil
}

func (l *Loop) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	t := time.NewTicker(l.interval)
	defer t.Stop()

	l.task(l.now())
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if ctx.Err() != nil {
				return
			}
			l.task(l.now())
		}
	}
}

// Stop cancels the running loop and waits for its goroutine to exit. It is
// safe to call on a stopped loop and more than once.
func (l *Loop) Stop() {
	l.mu.Lock()
	cancel, done := l.cancel, l.done
	l.cancel, l.done = nil, nil
	l.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Running reports whether a run is active.
func (l *Loop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.done == nil {
		return false
	}
	select {
	case <-l.done:
		return false
	default:
		return true
	}
}
