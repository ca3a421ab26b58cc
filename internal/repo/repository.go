package repo

import (
	"fmt"

	"github.com/roach88/atelier/internal/model"
)

// Repository is one snapshot of the committed graph.
//
// Invariant: every relationship's FromID/ToID resolves to an element present
// in the same snapshot. The mutators below preserve it; RemoveElement
// requires the caller to cascade relationship removal first (the commit
// coordinator does).
type Repository struct {
	elements      map[string]model.Element
	elementOrder  []string
	relationships []model.Relationship
}

// New creates an empty repository.
func New() *Repository {
	return &Repository{
		elements: make(map[string]model.Element),
	}
}

// Clone returns a deep copy. The clone shares nothing with the receiver.
func (r *Repository) Clone() *Repository {
	out := &Repository{
		elements:      make(map[string]model.Element, len(r.elements)),
		elementOrder:  make([]string, len(r.elementOrder)),
		relationships: make([]model.Relationship, len(r.relationships)),
	}
	for id, e := range r.elements {
		out.elements[id] = e.Clone()
	}
	copy(out.elementOrder, r.elementOrder)
	for i, rel := range r.relationships {
		out.relationships[i] = rel.Clone()
	}
	return out
}

// Element returns the element with the given ID.
func (r *Repository) Element(id string) (model.Element, bool) {
	e, ok := r.elements[id]
	return e, ok
}

// Elements returns all elements in insertion order.
func (r *Repository) Elements() []model.Element {
	out := make([]model.Element, 0, len(r.elementOrder))
	for _, id := range r.elementOrder {
		out = append(out, r.elements[id])
	}
	return out
}

// Relationships returns all relationships in sequence order.
func (r *Repository) Relationships() []model.Relationship {
	out := make([]model.Relationship, len(r.relationships))
	copy(out, r.relationships)
	return out
}

// Relationship returns the relationship with the given ID.
func (r *Repository) Relationship(id string) (model.Relationship, bool) {
	for _, rel := range r.relationships {
		if rel.ID == id {
			return rel, true
		}
	}
	return model.Relationship{}, false
}

// HasTriple reports whether a relationship with the same (from, to, type)
// triple exists.
func (r *Repository) HasTriple(key model.Key) bool {
	for _, rel := range r.relationships {
		if rel.TripleKey() == key {
			return true
		}
	}
	return false
}

// RelationshipsTouching returns every relationship with the given element
// as either endpoint, in sequence order.
func (r *Repository) RelationshipsTouching(elementID string) []model.Relationship {
	var out []model.Relationship
	for _, rel := range r.relationships {
		if rel.FromID == elementID || rel.ToID == elementID {
			out = append(out, rel)
		}
	}
	return out
}

// PutElement inserts or replaces an element. Insertion order is preserved
// for existing IDs.
func (r *Repository) PutElement(e model.Element) {
	if _, exists := r.elements[e.ID]; !exists {
		r.elementOrder = append(r.elementOrder, e.ID)
	}
	r.elements[e.ID] = e.Clone()
}

// RemoveElement deletes an element. Returns an error if relationships still
// reference it - callers must cascade first to keep the endpoint invariant.
func (r *Repository) RemoveElement(id string) error {
	if _, ok := r.elements[id]; !ok {
		return fmt.Errorf("remove element %s: not present", id)
	}
	if touching := r.RelationshipsTouching(id); len(touching) > 0 {
		return fmt.Errorf("remove element %s: %d relationships still reference it", id, len(touching))
	}
	delete(r.elements, id)
	for i, oid := range r.elementOrder {
		if oid == id {
			r.elementOrder = append(r.elementOrder[:i], r.elementOrder[i+1:]...)
			break
		}
	}
	return nil
}

// PutRelationship inserts or replaces a relationship. Both endpoints must
// resolve within this snapshot.
func (r *Repository) PutRelationship(rel model.Relationship) error {
	if _, ok := r.elements[rel.FromID]; !ok {
		return fmt.Errorf("put relationship %s: from endpoint %s not present", rel.ID, rel.FromID)
	}
	if _, ok := r.elements[rel.ToID]; !ok {
		return fmt.Errorf("put relationship %s: to endpoint %s not present", rel.ID, rel.ToID)
	}
	for i, existing := range r.relationships {
		if existing.ID == rel.ID {
			r.relationships[i] = rel.Clone()
			return nil
		}
	}
	r.relationships = append(r.relationships, rel.Clone())
	return nil
}

// RemoveRelationship deletes a relationship by ID. Removing an absent ID is
// a no-op (cascade deletion may race with explicit staged deletion).
func (r *Repository) RemoveRelationship(id string) {
	for i, rel := range r.relationships {
		if rel.ID == id {
			r.relationships = append(r.relationships[:i], r.relationships[i+1:]...)
			return
		}
	}
}

// ElementCount returns the number of elements.
func (r *Repository) ElementCount() int { return len(r.elements) }

// RelationshipCount returns the number of relationships.
func (r *Repository) RelationshipCount() int { return len(r.relationships) }

// Fingerprint computes the content-addressed identity of the snapshot.
func (r *Repository) Fingerprint() (string, error) {
	return model.RepositoryFingerprint(r.Elements(), r.Relationships())
}

// Equal reports deep content equality via fingerprints.
func (r *Repository) Equal(other *Repository) (bool, error) {
	a, err := r.Fingerprint()
	if err != nil {
		return false, err
	}
	b, err := other.Fingerprint()
	if err != nil {
		return false, err
	}
	return a == b, nil
}
