package workspace

import (
	"github.com/roach88/atelier/internal/model"
	"github.com/roach88/atelier/internal/repo"
)

// MergedView is the read-only overlay of a staged ledger on top of a
// repository snapshot. Validators and the connection resolver query it;
// nothing writes through it.
//
// Resolution rules:
//   - a staged record shadows the committed entity with the same ID
//   - PendingDelete records make the entity unresolvable
//   - iteration order is repository order followed by staged insertion order
type MergedView struct {
	repo   *repo.Repository
	ledger *Ledger
}

// NewMergedView builds a view over the given snapshot and ledger.
// A nil ledger behaves as empty.
func NewMergedView(r *repo.Repository, l *Ledger) *MergedView {
	if l == nil {
		l = NewLedger()
	}
	return &MergedView{repo: r, ledger: l}
}

// Element resolves an element ID against the overlay.
func (v *MergedView) Element(id string) (model.Element, bool) {
	if rec := v.ledger.ElementRecord(id); rec != nil {
		if rec.State == StatePendingDelete {
			return model.Element{}, false
		}
		return rec.Element, true
	}
	return v.repo.Element(id)
}

// ElementType resolves an element's type tag.
func (v *MergedView) ElementType(id string) (model.ElementType, bool) {
	el, ok := v.Element(id)
	if !ok {
		return "", false
	}
	return el.Type, true
}

// Elements returns every resolvable element: repository elements (with
// staged updates applied, pending deletions dropped) then staged-new
// elements, in deterministic order.
func (v *MergedView) Elements() []model.Element {
	var out []model.Element
	for _, el := range v.repo.Elements() {
		if rec := v.ledger.ElementRecord(el.ID); rec != nil {
			if rec.State == StatePendingDelete {
				continue
			}
			out = append(out, rec.Element)
			continue
		}
		out = append(out, el)
	}
	for _, rec := range v.ledger.Elements {
		if rec.State == StatePendingDelete {
			continue
		}
		if _, inRepo := v.repo.Element(rec.Element.ID); inRepo {
			continue // already emitted as an override
		}
		out = append(out, rec.Element)
	}
	return out
}

// Relationships returns every resolvable relationship under the same
// overlay rules as Elements. Relationships whose endpoints became
// unresolvable through a pending element deletion are still listed; the
// validation pipeline reports them rather than hiding them.
func (v *MergedView) Relationships() []model.Relationship {
	var out []model.Relationship
	for _, rel := range v.repo.Relationships() {
		if rec := v.ledger.RelationshipRecord(rel.ID); rec != nil {
			if rec.State == StatePendingDelete {
				continue
			}
			out = append(out, rec.Relationship)
			continue
		}
		out = append(out, rel)
	}
	for _, rec := range v.ledger.Relationships {
		if rec.State == StatePendingDelete {
			continue
		}
		if _, inRepo := v.repo.Relationship(rec.Relationship.ID); inRepo {
			continue
		}
		out = append(out, rec.Relationship)
	}
	return out
}

// HasTriple reports whether any non-deleted relationship (committed or
// staged) matches the (from, to, type) triple.
func (v *MergedView) HasTriple(key model.Key) bool {
	for _, rel := range v.Relationships() {
		if rel.TripleKey() == key {
			return true
		}
	}
	return false
}

// TouchesElement reports whether the ledger holds a record for the ID.
func (v *MergedView) TouchesElement(id string) bool {
	return v.ledger.TouchesElement(id)
}

// Ledger exposes the underlying ledger for structural checks.
func (v *MergedView) Ledger() *Ledger {
	return v.ledger
}

// Repository exposes the underlying snapshot.
func (v *MergedView) Repository() *repo.Repository {
	return v.repo
}
