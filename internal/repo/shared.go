package repo

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ConflictError is returned by TryReplace when the live repository advanced
// since the clone was taken. The failed transaction is discarded whole;
// the caller must re-derive its changes against the new snapshot.
type ConflictError struct {
	BasedOn int64 // version the clone was taken from
	Current int64 // version at replace time
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("repository changed since clone was taken (based on version %d, now %d)", e.BasedOn, e.Current)
}

// IsConflict reports whether err is (or wraps) a ConflictError.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

// Shared is the repository reference shared across open workspaces and
// views. All mutation goes through Clone + TryReplace; the compare-and-swap
// is keyed on a monotonically increasing version counter so drift detection
// is O(1) rather than a deep comparison.
//
// Thread-safety: all methods are safe for concurrent use.
type Shared struct {
	mu        sync.Mutex
	id        string
	current   *Repository
	version   int64
	updatedAt time.Time
}

// NewShared wraps a repository value for sharing. The id names the
// repository in audit entries.
func NewShared(id string, initial *Repository, now time.Time) *Shared {
	if initial == nil {
		initial = New()
	}
	return &Shared{
		id:        id,
		current:   initial,
		version:   1,
		updatedAt: now,
	}
}

// RestoreShared rebuilds a shared reference from persisted state, keeping
// the version counter the snapshot was saved at.
func RestoreShared(id string, initial *Repository, version int64, updatedAt time.Time) *Shared {
	if initial == nil {
		initial = New()
	}
	if version < 1 {
		version = 1
	}
	return &Shared{
		id:        id,
		current:   initial,
		version:   version,
		updatedAt: updatedAt,
	}
}

// ID returns the repository identity used in audit entries.
func (s *Shared) ID() string { return s.id }

// Version returns the current version counter.
func (s *Shared) Version() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// UpdatedAt returns when the repository last changed. Workspaces snapshot
// this at creation to detect external drift.
func (s *Shared) UpdatedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatedAt
}

// View returns the current snapshot for read-only use. Callers MUST NOT
// mutate the returned value; mutation goes through Clone + TryReplace.
func (s *Shared) View() *Repository {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Clone returns a private deep copy of the current snapshot together with
// the version it was derived from. The version is the CAS basis for a later
// TryReplace.
func (s *Shared) Clone() (*Repository, int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Clone(), s.version
}

// TryReplace atomically swaps in a new snapshot if the live repository is
// still at basedOn. On success the version advances and updatedAt is
// stamped. On failure nothing changes and a ConflictError is returned -
// there is no automatic retry; silent overwrite is forbidden.
func (s *Shared) TryReplace(next *Repository, basedOn int64, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.version != basedOn {
		return &ConflictError{BasedOn: basedOn, Current: s.version}
	}
	s.current = next
	s.version++
	s.updatedAt = now
	return nil
}
