// Package audit defines the append-only audit trail boundary.
//
// The engine records entries fire-and-forget: a sink failure is logged and
// never fails a commit that already swapped the repository. Durable sinks
// live in internal/store; the in-memory sink here serves tests and golden
// traces.
package audit

import (
	"context"
	"sync"
	"time"
)

// Entry is one audit record. Entries are append-only and never updated.
type Entry struct {
	Actor        string    `json:"actor"`
	RepositoryID string    `json:"repositoryId"`
	Timestamp    time.Time `json:"timestamp"`
	Action       string    `json:"action"`
}

// Sink receives audit entries.
type Sink interface {
	Record(ctx context.Context, entry Entry) error
}

// MemorySink keeps entries in memory, in record order.
//
// Thread-safety: safe for concurrent use.
type MemorySink struct {
	mu      sync.Mutex
	entries []Entry
}

// NewMemorySink creates an empty in-memory sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Record appends the entry.
func (s *MemorySink) Record(_ context.Context, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

// Entries returns the recorded entries in order.
func (s *MemorySink) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Discard is a sink that drops everything. Useful where auditing is not
// wired (throwaway CLI queries).
type Discard struct{}

// Record drops the entry.
func (Discard) Record(context.Context, Entry) error { return nil }
