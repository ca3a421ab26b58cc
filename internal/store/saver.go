package store

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// SaveFunc persists the current state. Called from the saver goroutine.
type SaveFunc func(ctx context.Context) error

// Saver coalesces save requests: a burst of staging commands produces one
// write after a quiet interval instead of one write per command. Close
// flushes any pending request before returning, so state is never lost on
// a clean shutdown.
type Saver struct {
	interval time.Duration
	save     SaveFunc

	mu      sync.Mutex
	timer   *time.Timer
	pending bool
	closed  bool
	flushed chan struct{}
}

// NewSaver returns a saver writing through fn after each quiet interval.
func NewSaver(interval time.Duration, fn SaveFunc) *Saver {
	return &Saver{
		interval: interval,
		save:     fn,
	}
}

// Notify marks state dirty and (re)arms the debounce timer. Calls after
// Close are ignored.
func (s *Saver) Notify() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.pending = true
	if s.timer == nil {
		s.timer = time.AfterFunc(s.interval, s.fire)
		return
	}
	s.timer.Reset(s.interval)
}

// fire runs on the timer goroutine.
func (s *Saver) fire() {
	s.mu.Lock()
	if s.closed || !s.pending {
		s.mu.Unlock()
		return
	}
	s.pending = false
	s.mu.Unlock()

	if err := s.save(context.Background()); err != nil {
		slog.Error("deferred save failed", "error", err)
		// Re-arm so the next Notify retries rather than dropping state.
		s.mu.Lock()
		if !s.closed {
			s.pending = true
		}
		s.mu.Unlock()
	}
}

// Close stops the timer and performs a final synchronous save if a request
// is still pending.
func (s *Saver) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
	}
	dirty := s.pending
	s.pending = false
	s.mu.Unlock()

	if dirty {
		return s.save(context.Background())
	}
	return nil
}
