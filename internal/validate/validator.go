package validate

import (
	"fmt"

	"github.com/roach88/atelier/internal/model"
	"github.com/roach88/atelier/internal/schema"
	"github.com/roach88/atelier/internal/workspace"
)

// RelationshipValidator validates candidate (from, to, type) triples against
// the compatibility table and the merged repository+ledger view.
//
// Validate is a pure function of the snapshot it is given: no side effects,
// no caching, no retries.
type RelationshipValidator struct {
	table *schema.Table
}

// NewRelationshipValidator builds a validator over a compiled profile.
func NewRelationshipValidator(table *schema.Table) *RelationshipValidator {
	return &RelationshipValidator{table: table}
}

// Validate checks one candidate triple. Failure order is fixed: endpoint
// resolution, self-loop, type compatibility, duplicate detection.
func (v *RelationshipValidator) Validate(view *workspace.MergedView, fromID, toID string, typ model.RelationshipType) Outcome {
	fromType, ok := view.ElementType(fromID)
	if !ok {
		return Fail(CodeEndpointUnresolved, fmt.Sprintf("source element %s does not resolve", fromID))
	}
	toType, ok := view.ElementType(toID)
	if !ok {
		return Fail(CodeEndpointUnresolved, fmt.Sprintf("target element %s does not resolve", toID))
	}

	// No relationship type permits a self-loop.
	if fromID == toID {
		return Fail(CodeTypeIncompatible, fmt.Sprintf("%s cannot connect an element to itself", typ))
	}

	if out := v.TypeCompatible(fromType, toType, typ); !out.Valid {
		return out
	}

	if view.HasTriple(model.Key{FromID: fromID, ToID: toID, Type: typ}) {
		return Fail(CodeDuplicateRelationship, fmt.Sprintf("a %s relationship from %s to %s already exists", typ, fromID, toID))
	}

	return OK()
}

// TypeCompatible checks endpoint compatibility at the type level only,
// ignoring element identity. The connection resolver uses this for indirect
// hops through intermediate element types that do not exist yet.
func (v *RelationshipValidator) TypeCompatible(fromType, toType model.ElementType, typ model.RelationshipType) Outcome {
	if !v.table.KnownRelationshipType(typ) {
		return Fail(CodeTypeIncompatible, fmt.Sprintf("unknown relationship kind %q", typ))
	}
	if !v.table.Allows(typ, fromType, toType) {
		return Fail(CodeTypeIncompatible, fmt.Sprintf("%s does not permit (%s, %s)", typ, fromType, toType))
	}
	return OK()
}

// Table exposes the compatibility table (read-only) for the resolver.
func (v *RelationshipValidator) Table() *schema.Table {
	return v.table
}
