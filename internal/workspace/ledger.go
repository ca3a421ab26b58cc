package workspace

import (
	"github.com/roach88/atelier/internal/model"
)

// RecordState is the tri-state lifecycle of one staged record.
type RecordState string

const (
	// StateActive marks a pending create or update.
	StateActive RecordState = "ACTIVE"

	// StatePendingDelete marks a pending deletion. The record keeps its
	// payload so the deletion stays inspectable and undoable until commit.
	StatePendingDelete RecordState = "PENDING_DELETE"

	// StateCommitted marks a record whose change has been merged into the
	// repository.
	StateCommitted RecordState = "COMMITTED"
)

// StagedElement is one element delta layered over the repository.
type StagedElement struct {
	Element model.Element `json:"element"`
	State   RecordState   `json:"state"`
}

// StagedRelationship is one relationship delta layered over the repository.
type StagedRelationship struct {
	Relationship model.Relationship `json:"relationship"`
	State        RecordState        `json:"state"`
}

// Ledger is the ordered list of staged deltas for one workspace.
// Records are appended in staging order and never reordered.
type Ledger struct {
	Elements      []*StagedElement      `json:"elements"`
	Relationships []*StagedRelationship `json:"relationships"`
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{}
}

// ElementRecord returns the staged record for an element ID, if any.
func (l *Ledger) ElementRecord(id string) *StagedElement {
	for _, rec := range l.Elements {
		if rec.Element.ID == id {
			return rec
		}
	}
	return nil
}

// RelationshipRecord returns the staged record for a relationship ID, if any.
func (l *Ledger) RelationshipRecord(id string) *StagedRelationship {
	for _, rec := range l.Relationships {
		if rec.Relationship.ID == id {
			return rec
		}
	}
	return nil
}

// RelationshipByTriple returns the non-deleted staged record matching the
// (from, to, type) triple, if any.
func (l *Ledger) RelationshipByTriple(key model.Key) *StagedRelationship {
	for _, rec := range l.Relationships {
		if rec.State != StatePendingDelete && rec.Relationship.TripleKey() == key {
			return rec
		}
	}
	return nil
}

// TouchesElement reports whether the ledger holds any record for the
// element ID, regardless of state.
func (l *Ledger) TouchesElement(id string) bool {
	return l.ElementRecord(id) != nil
}

// Empty reports whether the ledger holds no records at all.
func (l *Ledger) Empty() bool {
	return len(l.Elements) == 0 && len(l.Relationships) == 0
}

// Clear drops every record. Used by discard.
func (l *Ledger) Clear() {
	l.Elements = nil
	l.Relationships = nil
}

// MarkCommitted flips every record to StateCommitted after a successful
// repository merge.
func (l *Ledger) MarkCommitted() {
	for _, rec := range l.Elements {
		rec.State = StateCommitted
	}
	for _, rec := range l.Relationships {
		rec.State = StateCommitted
	}
}
