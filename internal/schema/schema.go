package schema

import (
	"regexp"

	"github.com/roach88/atelier/internal/model"
)

// Pair is one allowed (source, target) endpoint combination for a
// relationship type.
type Pair struct {
	From model.ElementType `json:"from"`
	To   model.ElementType `json:"to"`
}

// ElementDef declares an element kind.
type ElementDef struct {
	Type model.ElementType `json:"type"`

	// Required lists attribute names that must be present and non-empty
	// on every element of this kind. "name" is always implicitly required.
	Required []string `json:"required,omitempty"`

	// Lifecycle lists the known lifecycleStatus values for this kind.
	// Empty means the kind has no lifecycle tracking.
	Lifecycle []string `json:"lifecycle,omitempty"`
}

// RelationshipDef declares a relationship kind and its endpoint
// compatibility. When Pairs is non-empty it takes precedence; the
// FromTypes/ToTypes cross product is only consulted as a fallback.
type RelationshipDef struct {
	Type model.RelationshipType `json:"type"`

	Pairs     []Pair              `json:"pairs,omitempty"`
	FromTypes []model.ElementType `json:"from,omitempty"`
	ToTypes   []model.ElementType `json:"to,omitempty"`

	// Required lists attribute names that must be present and non-empty
	// on every relationship of this kind.
	Required []string `json:"required,omitempty"`
}

// RuleKind categorizes governance rules.
type RuleKind string

const (
	// RuleCardinality bounds how many relationships of a given type may
	// touch an element of a given kind.
	RuleCardinality RuleKind = "cardinality"

	// RuleNaming constrains element names (required pattern and/or
	// forbidden substrings).
	RuleNaming RuleKind = "naming"

	// RuleLifecycle restricts the lifecycleStatus attribute to a known set.
	RuleLifecycle RuleKind = "lifecycle"
)

// Direction selects which endpoint of a relationship a cardinality rule
// counts.
type Direction string

const (
	DirectionFrom Direction = "from"
	DirectionTo   Direction = "to"
)

// ElementAny is the wildcard appliesTo value matching every element kind.
const ElementAny model.ElementType = "*"

// GovernanceRule is one declarative validation predicate. Rules are pure
// data evaluated by internal/validate; the engine never hard-wires a rule
// per element.
type GovernanceRule struct {
	ID       string            `json:"id"`
	Kind     RuleKind          `json:"kind"`
	Severity string            `json:"severity"` // "error" | "warning" | "info"
	Element  model.ElementType `json:"element"`  // appliesTo kind, or ElementAny
	Message  string            `json:"message,omitempty"`

	// Cardinality fields.
	Relationship model.RelationshipType `json:"relationship,omitempty"`
	Direction    Direction              `json:"direction,omitempty"`
	Min          int                    `json:"min,omitempty"`
	Max          int                    `json:"max,omitempty"` // 0 means unbounded

	// Naming fields.
	Pattern *regexp.Regexp `json:"-"`
	Forbid  []string       `json:"forbid,omitempty"`

	// Lifecycle fields.
	Allowed []string `json:"allowed,omitempty"`
}

// AppliesTo reports whether the rule covers the given element kind.
func (r GovernanceRule) AppliesTo(t model.ElementType) bool {
	return r.Element == ElementAny || r.Element == t
}

// Profile is a compiled model profile in declaration order.
type Profile struct {
	Name          string
	Elements      []ElementDef
	Relationships []RelationshipDef
	Rules         []GovernanceRule
}

// Table is the lookup view over a compiled profile. It is immutable after
// construction and safe for concurrent reads.
type Table struct {
	name              string
	elements          map[model.ElementType]ElementDef
	elementOrder      []model.ElementType
	relationships     map[model.RelationshipType]RelationshipDef
	relationshipOrder []model.RelationshipType
	rules             []GovernanceRule
}

// NewTable builds the lookup table from a compiled profile.
func NewTable(p *Profile) *Table {
	t := &Table{
		name:          p.Name,
		elements:      make(map[model.ElementType]ElementDef, len(p.Elements)),
		relationships: make(map[model.RelationshipType]RelationshipDef, len(p.Relationships)),
		rules:         make([]GovernanceRule, len(p.Rules)),
	}
	for _, def := range p.Elements {
		t.elements[def.Type] = def
		t.elementOrder = append(t.elementOrder, def.Type)
	}
	for _, def := range p.Relationships {
		t.relationships[def.Type] = def
		t.relationshipOrder = append(t.relationshipOrder, def.Type)
	}
	copy(t.rules, p.Rules)
	return t
}

// Name returns the profile name.
func (t *Table) Name() string { return t.name }

// ElementTypes returns the declared element kinds in declaration order.
func (t *Table) ElementTypes() []model.ElementType {
	out := make([]model.ElementType, len(t.elementOrder))
	copy(out, t.elementOrder)
	return out
}

// RelationshipTypes returns the declared relationship kinds in declaration
// order.
func (t *Table) RelationshipTypes() []model.RelationshipType {
	out := make([]model.RelationshipType, len(t.relationshipOrder))
	copy(out, t.relationshipOrder)
	return out
}

// KnownElementType is the single centralized check for element type tags.
func (t *Table) KnownElementType(typ model.ElementType) bool {
	_, ok := t.elements[typ]
	return ok
}

// KnownRelationshipType is the single centralized check for relationship
// type tags.
func (t *Table) KnownRelationshipType(typ model.RelationshipType) bool {
	_, ok := t.relationships[typ]
	return ok
}

// Allows reports whether the relationship type permits the (from, to)
// element type pair. An explicit pairs list takes precedence over the
// from-set/to-set fallback; an undeclared relationship type allows nothing.
func (t *Table) Allows(typ model.RelationshipType, from, to model.ElementType) bool {
	def, ok := t.relationships[typ]
	if !ok {
		return false
	}
	if len(def.Pairs) > 0 {
		for _, p := range def.Pairs {
			if p.From == from && p.To == to {
				return true
			}
		}
		return false
	}
	return containsType(def.FromTypes, from) && containsType(def.ToTypes, to)
}

// AllowedPairs expands the full set of allowed endpoint pairs for the
// relationship type, materializing the from/to cross product when no
// explicit pairs are declared. Order is deterministic (declaration order).
func (t *Table) AllowedPairs(typ model.RelationshipType) []Pair {
	def, ok := t.relationships[typ]
	if !ok {
		return nil
	}
	if len(def.Pairs) > 0 {
		out := make([]Pair, len(def.Pairs))
		copy(out, def.Pairs)
		return out
	}
	var out []Pair
	for _, f := range def.FromTypes {
		for _, to := range def.ToTypes {
			out = append(out, Pair{From: f, To: to})
		}
	}
	return out
}

// RequiredElementAttributes returns the required attribute names for an
// element kind. "name" is always included.
func (t *Table) RequiredElementAttributes(typ model.ElementType) []string {
	out := []string{model.AttrName}
	def, ok := t.elements[typ]
	if !ok {
		return out
	}
	for _, attr := range def.Required {
		if attr != model.AttrName {
			out = append(out, attr)
		}
	}
	return out
}

// RequiredRelationshipAttributes returns the required attribute names for a
// relationship kind.
func (t *Table) RequiredRelationshipAttributes(typ model.RelationshipType) []string {
	def, ok := t.relationships[typ]
	if !ok {
		return nil
	}
	out := make([]string, len(def.Required))
	copy(out, def.Required)
	return out
}

// LifecycleStates returns the known lifecycle states for an element kind.
func (t *Table) LifecycleStates(typ model.ElementType) []string {
	def, ok := t.elements[typ]
	if !ok {
		return nil
	}
	out := make([]string, len(def.Lifecycle))
	copy(out, def.Lifecycle)
	return out
}

// Rules returns the governance rules in declaration order.
func (t *Table) Rules() []GovernanceRule {
	out := make([]GovernanceRule, len(t.rules))
	copy(out, t.rules)
	return out
}

func containsType(set []model.ElementType, t model.ElementType) bool {
	for _, s := range set {
		if s == t {
			return true
		}
	}
	return false
}
