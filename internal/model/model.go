package model

import (
	"slices"
	"time"
)

// ElementType tags an architecture element kind (Application, Capability, ...).
//
// The set of valid element types is declared by the active model profile
// (see internal/schema), not hard-coded here. Every type string entering the
// engine passes through a single centralized check against the compiled
// profile; code never compares raw type strings ad hoc.
type ElementType string

// RelationshipType tags a directed relationship kind (USES, OWNS, ...).
// Like ElementType, the valid set comes from the compiled profile.
type RelationshipType string

// Well-known attribute keys. These are the only attribute names the engine
// itself interprets; everything else is opaque domain data.
const (
	AttrName      = "name"
	AttrOwnerID   = "ownerId"
	AttrLifecycle = "lifecycleStatus"
)

// Attributes is a string-keyed attribute bag. Iteration must always go
// through SortedKeys for deterministic output (fingerprints, audit, JSON).
type Attributes map[string]string

// SortedKeys returns the attribute keys in ascending order.
func (a Attributes) SortedKeys() []string {
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Clone returns a deep copy of the attribute bag.
// Returns an empty (non-nil) bag for a nil receiver so callers can mutate.
func (a Attributes) Clone() Attributes {
	out := make(Attributes, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Equal reports whether two bags hold exactly the same key/value pairs.
func (a Attributes) Equal(b Attributes) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if bv, ok := b[k]; !ok || bv != v {
			return false
		}
	}
	return true
}

// Element is a node in the architecture graph.
//
// Elements are owned by the Repository and referenced by ID everywhere else.
// CreatedAt/CreatedBy are assigned exactly once when the element first enters
// the repository and are immutable thereafter; ModifiedAt/ModifiedBy are
// restamped on every real (attribute-changing) update.
type Element struct {
	ID         string      `json:"id"`
	Type       ElementType `json:"type"`
	Attributes Attributes  `json:"attributes"`
	CreatedAt  time.Time   `json:"createdAt,omitzero"`
	CreatedBy  string      `json:"createdBy,omitempty"`
	ModifiedAt time.Time   `json:"modifiedAt,omitzero"`
	ModifiedBy string      `json:"modifiedBy,omitempty"`
}

// Name returns the element's name attribute ("" if unset).
func (e Element) Name() string {
	return e.Attributes[AttrName]
}

// Clone returns a deep copy of the element.
func (e Element) Clone() Element {
	out := e
	out.Attributes = e.Attributes.Clone()
	return out
}

// SameContent reports attribute-level equality, ignoring the volatile
// bookkeeping fields (ModifiedAt/ModifiedBy). Used by the commit diff to
// skip no-op updates so unchanged elements keep their modification stamps.
func (e Element) SameContent(other Element) bool {
	return e.Type == other.Type && e.Attributes.Equal(other.Attributes)
}

// Relationship is a directed edge between two elements, referenced by ID.
// Self-loops (FromID == ToID) are never valid; no relationship type permits
// them.
type Relationship struct {
	ID         string           `json:"id"`
	FromID     string           `json:"fromId"`
	ToID       string           `json:"toId"`
	Type       RelationshipType `json:"type"`
	Attributes Attributes       `json:"attributes"`
	CreatedAt  time.Time        `json:"createdAt,omitzero"`
	CreatedBy  string           `json:"createdBy,omitempty"`
	ModifiedAt time.Time        `json:"modifiedAt,omitzero"`
	ModifiedBy string           `json:"modifiedBy,omitempty"`
}

// Clone returns a deep copy of the relationship.
func (r Relationship) Clone() Relationship {
	out := r
	out.Attributes = r.Attributes.Clone()
	return out
}

// SameContent reports attribute-level equality, ignoring volatile fields.
func (r Relationship) SameContent(other Relationship) bool {
	return r.Type == other.Type &&
		r.FromID == other.FromID &&
		r.ToID == other.ToID &&
		r.Attributes.Equal(other.Attributes)
}

// Key identifies a relationship by its semantic triple. Two relationships
// with the same key are duplicates regardless of their IDs.
type Key struct {
	FromID string
	ToID   string
	Type   RelationshipType
}

// TripleKey returns the duplicate-detection key for the relationship.
func (r Relationship) TripleKey() Key {
	return Key{FromID: r.FromID, ToID: r.ToID, Type: r.Type}
}
