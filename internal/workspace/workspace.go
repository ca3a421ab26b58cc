package workspace

import (
	"fmt"
	"time"

	"github.com/roach88/atelier/internal/model"
)

// Status is the workspace lifecycle state. Transitions are monotonic:
// DRAFT -> COMMITTED or DRAFT -> DISCARDED, both terminal.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusCommitted Status = "COMMITTED"
	StatusDiscarded Status = "DISCARDED"
)

// Workspace is the aggregate root for one editing session against the
// shared repository.
type Workspace struct {
	ID        string    `json:"id"`
	Name      string    `json:"name,omitempty"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	CreatedBy string    `json:"createdBy"`
	UpdatedAt time.Time `json:"updatedAt"`

	// RepositoryVersion and RepositoryUpdatedAt snapshot the shared
	// repository at workspace creation, used to detect external drift.
	RepositoryVersion   int64     `json:"repositoryVersion"`
	RepositoryUpdatedAt time.Time `json:"repositoryUpdatedAt"`

	Ledger *Ledger `json:"ledger"`
}

// New creates a DRAFT workspace snapshotting the given repository state.
func New(id, name, actor string, now time.Time, repoVersion int64, repoUpdatedAt time.Time) *Workspace {
	return &Workspace{
		ID:                  id,
		Name:                name,
		Status:              StatusDraft,
		CreatedAt:           now,
		CreatedBy:           actor,
		UpdatedAt:           now,
		RepositoryVersion:   repoVersion,
		RepositoryUpdatedAt: repoUpdatedAt,
		Ledger:              NewLedger(),
	}
}

// Terminal reports whether the workspace reached a terminal status.
func (w *Workspace) Terminal() bool {
	return w.Status != StatusDraft
}

// guardMutable rejects staged mutation once the workspace is terminal.
func (w *Workspace) guardMutable() error {
	if w.Terminal() {
		return fmt.Errorf("workspace %s is %s; no further staged mutation accepted", w.ID, w.Status)
	}
	return nil
}

// StageElement appends a new element record in Active state.
// The caller (the engine) has already validated the element type and
// assigned the ID.
func (w *Workspace) StageElement(el model.Element, now time.Time) (*StagedElement, error) {
	if err := w.guardMutable(); err != nil {
		return nil, err
	}
	if existing := w.Ledger.ElementRecord(el.ID); existing != nil {
		return nil, fmt.Errorf("element %s is already staged", el.ID)
	}
	rec := &StagedElement{Element: el.Clone(), State: StateActive}
	w.Ledger.Elements = append(w.Ledger.Elements, rec)
	w.UpdatedAt = now
	return rec, nil
}

// StageElementUpdate records new attributes for an element. If the element
// is already staged the record is updated in place (a pending deletion is
// revived to Active); otherwise a new Active record shadows the committed
// element.
func (w *Workspace) StageElementUpdate(el model.Element, now time.Time) (*StagedElement, error) {
	if err := w.guardMutable(); err != nil {
		return nil, err
	}
	if rec := w.Ledger.ElementRecord(el.ID); rec != nil {
		rec.Element = el.Clone()
		rec.State = StateActive
		w.UpdatedAt = now
		return rec, nil
	}
	rec := &StagedElement{Element: el.Clone(), State: StateActive}
	w.Ledger.Elements = append(w.Ledger.Elements, rec)
	w.UpdatedAt = now
	return rec, nil
}

// StageElementDelete marks an element for deletion. A record staged in this
// workspace flips to PendingDelete in place; a committed element gets a
// shadowing PendingDelete record carrying its last known payload.
func (w *Workspace) StageElementDelete(el model.Element, now time.Time) (*StagedElement, error) {
	if err := w.guardMutable(); err != nil {
		return nil, err
	}
	if rec := w.Ledger.ElementRecord(el.ID); rec != nil {
		rec.State = StatePendingDelete
		w.UpdatedAt = now
		return rec, nil
	}
	rec := &StagedElement{Element: el.Clone(), State: StatePendingDelete}
	w.Ledger.Elements = append(w.Ledger.Elements, rec)
	w.UpdatedAt = now
	return rec, nil
}

// StageRelationship appends a new relationship record in Active state.
// Endpoint, compatibility and duplicate validation happen before this call.
func (w *Workspace) StageRelationship(rel model.Relationship, now time.Time) (*StagedRelationship, error) {
	if err := w.guardMutable(); err != nil {
		return nil, err
	}
	if existing := w.Ledger.RelationshipRecord(rel.ID); existing != nil {
		return nil, fmt.Errorf("relationship %s is already staged", rel.ID)
	}
	rec := &StagedRelationship{Relationship: rel.Clone(), State: StateActive}
	w.Ledger.Relationships = append(w.Ledger.Relationships, rec)
	w.UpdatedAt = now
	return rec, nil
}

// StageRelationshipDelete marks a relationship for deletion, mirroring
// StageElementDelete.
func (w *Workspace) StageRelationshipDelete(rel model.Relationship, now time.Time) (*StagedRelationship, error) {
	if err := w.guardMutable(); err != nil {
		return nil, err
	}
	if rec := w.Ledger.RelationshipRecord(rel.ID); rec != nil {
		rec.State = StatePendingDelete
		w.UpdatedAt = now
		return rec, nil
	}
	rec := &StagedRelationship{Relationship: rel.Clone(), State: StatePendingDelete}
	w.Ledger.Relationships = append(w.Ledger.Relationships, rec)
	w.UpdatedAt = now
	return rec, nil
}

// Discard clears the ledger and moves the workspace to DISCARDED.
// Always succeeds on a draft; the repository is never touched.
func (w *Workspace) Discard(now time.Time) error {
	if err := w.guardMutable(); err != nil {
		return err
	}
	w.Ledger.Clear()
	w.Status = StatusDiscarded
	w.UpdatedAt = now
	return nil
}

// MarkCommitted moves the workspace to COMMITTED and flips every staged
// record. Called by the commit coordinator after the repository swap
// succeeded.
func (w *Workspace) MarkCommitted(now time.Time) {
	w.Ledger.MarkCommitted()
	w.Status = StatusCommitted
	w.UpdatedAt = now
}
