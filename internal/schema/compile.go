package schema

import (
	"fmt"
	"regexp"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/atelier/internal/model"
)

// CompileError reports a profile compilation failure with CUE position info.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var validSeverities = map[string]bool{
	"error":   true,
	"warning": true,
	"info":    true,
}

// CompileProfile parses a CUE value into a Profile.
// Uses the CUE SDK's Go API directly (not a CLI subprocess).
//
// The CUE value should be the profile document root, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`name: "standard", element: { ... }`)
//	profile, err := CompileProfile(v)
//
// Declaration order of elements, relationships and rules is preserved.
func CompileProfile(v cue.Value) (*Profile, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	p := &Profile{}

	nameVal := v.LookupPath(cue.ParsePath("name"))
	if !nameVal.Exists() {
		return nil, &CompileError{Field: "name", Message: "profile name is required", Pos: v.Pos()}
	}
	name, err := nameVal.String()
	if err != nil {
		return nil, formatCUEError(err)
	}
	p.Name = name

	p.Elements, err = parseElements(v)
	if err != nil {
		return nil, err
	}
	if len(p.Elements) == 0 {
		return nil, &CompileError{Field: "element", Message: "at least one element kind is required", Pos: v.Pos()}
	}

	p.Relationships, err = parseRelationships(v)
	if err != nil {
		return nil, err
	}

	p.Rules, err = parseRules(v)
	if err != nil {
		return nil, err
	}

	if err := checkReferences(p); err != nil {
		return nil, err
	}

	return p, nil
}

// parseElements extracts element kind declarations.
func parseElements(v cue.Value) ([]ElementDef, error) {
	var defs []ElementDef

	elemVal := v.LookupPath(cue.ParsePath("element"))
	if !elemVal.Exists() {
		return defs, nil
	}

	iter, err := elemVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	for iter.Next() {
		def := ElementDef{Type: model.ElementType(iter.Label())}
		body := iter.Value()

		def.Required, err = parseStringList(body, "required")
		if err != nil {
			return nil, err
		}
		def.Lifecycle, err = parseStringList(body, "lifecycle")
		if err != nil {
			return nil, err
		}

		defs = append(defs, def)
	}

	return defs, nil
}

// parseRelationships extracts relationship kind declarations.
func parseRelationships(v cue.Value) ([]RelationshipDef, error) {
	var defs []RelationshipDef

	relVal := v.LookupPath(cue.ParsePath("relationship"))
	if !relVal.Exists() {
		return defs, nil
	}

	iter, err := relVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	for iter.Next() {
		def := RelationshipDef{Type: model.RelationshipType(iter.Label())}
		body := iter.Value()

		def.Pairs, err = parsePairs(body)
		if err != nil {
			return nil, err
		}

		from, err := parseStringList(body, "from")
		if err != nil {
			return nil, err
		}
		to, err := parseStringList(body, "to")
		if err != nil {
			return nil, err
		}
		for _, f := range from {
			def.FromTypes = append(def.FromTypes, model.ElementType(f))
		}
		for _, t := range to {
			def.ToTypes = append(def.ToTypes, model.ElementType(t))
		}

		def.Required, err = parseStringList(body, "required")
		if err != nil {
			return nil, err
		}

		if len(def.Pairs) == 0 && (len(def.FromTypes) == 0 || len(def.ToTypes) == 0) {
			return nil, &CompileError{
				Field:   string(def.Type),
				Message: "relationship must declare pairs or both from and to sets",
				Pos:     body.Pos(),
			}
		}

		defs = append(defs, def)
	}

	return defs, nil
}

// parsePairs extracts an allowed-pairs list: [{from: "X", to: "Y"}, ...].
func parsePairs(v cue.Value) ([]Pair, error) {
	pairsVal := v.LookupPath(cue.ParsePath("pairs"))
	if !pairsVal.Exists() {
		return nil, nil
	}

	iter, err := pairsVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var pairs []Pair
	for iter.Next() {
		item := iter.Value()
		from, err := lookupString(item, "from")
		if err != nil {
			return nil, err
		}
		to, err := lookupString(item, "to")
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, Pair{
			From: model.ElementType(from),
			To:   model.ElementType(to),
		})
	}
	return pairs, nil
}

// parseRules extracts governance rule declarations.
func parseRules(v cue.Value) ([]GovernanceRule, error) {
	var rules []GovernanceRule

	ruleVal := v.LookupPath(cue.ParsePath("rule"))
	if !ruleVal.Exists() {
		return rules, nil
	}

	iter, err := ruleVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	for iter.Next() {
		rule, err := parseRule(iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}

	return rules, nil
}

func parseRule(id string, v cue.Value) (GovernanceRule, error) {
	rule := GovernanceRule{ID: id}

	kind, err := lookupString(v, "kind")
	if err != nil {
		return rule, err
	}
	rule.Kind = RuleKind(kind)
	switch rule.Kind {
	case RuleCardinality, RuleNaming, RuleLifecycle:
	default:
		return rule, &CompileError{
			Field:   id,
			Message: fmt.Sprintf("unknown rule kind %q", kind),
			Pos:     v.Pos(),
		}
	}

	severity, err := lookupString(v, "severity")
	if err != nil {
		return rule, err
	}
	if !validSeverities[severity] {
		return rule, &CompileError{
			Field:   id,
			Message: fmt.Sprintf("invalid severity %q: must be error, warning or info", severity),
			Pos:     v.Pos(),
		}
	}
	rule.Severity = severity

	element, err := lookupString(v, "element")
	if err != nil {
		return rule, err
	}
	rule.Element = model.ElementType(element)

	if msgVal := v.LookupPath(cue.ParsePath("message")); msgVal.Exists() {
		rule.Message, err = msgVal.String()
		if err != nil {
			return rule, formatCUEError(err)
		}
	}

	switch rule.Kind {
	case RuleCardinality:
		return parseCardinalityRule(rule, v)
	case RuleNaming:
		return parseNamingRule(rule, v)
	case RuleLifecycle:
		return parseLifecycleRule(rule, v)
	}
	return rule, nil
}

func parseCardinalityRule(rule GovernanceRule, v cue.Value) (GovernanceRule, error) {
	rel, err := lookupString(v, "relationship")
	if err != nil {
		return rule, err
	}
	rule.Relationship = model.RelationshipType(rel)

	dir, err := lookupString(v, "direction")
	if err != nil {
		return rule, err
	}
	rule.Direction = Direction(dir)
	if rule.Direction != DirectionFrom && rule.Direction != DirectionTo {
		return rule, &CompileError{
			Field:   rule.ID,
			Message: fmt.Sprintf("direction must be %q or %q, got %q", DirectionFrom, DirectionTo, dir),
			Pos:     v.Pos(),
		}
	}

	if minVal := v.LookupPath(cue.ParsePath("min")); minVal.Exists() {
		n, err := minVal.Int64()
		if err != nil {
			return rule, formatCUEError(err)
		}
		rule.Min = int(n)
	}
	if maxVal := v.LookupPath(cue.ParsePath("max")); maxVal.Exists() {
		n, err := maxVal.Int64()
		if err != nil {
			return rule, formatCUEError(err)
		}
		rule.Max = int(n)
	}
	if rule.Max != 0 && rule.Max < rule.Min {
		return rule, &CompileError{
			Field:   rule.ID,
			Message: fmt.Sprintf("max (%d) must not be below min (%d)", rule.Max, rule.Min),
			Pos:     v.Pos(),
		}
	}
	return rule, nil
}

func parseNamingRule(rule GovernanceRule, v cue.Value) (GovernanceRule, error) {
	if patVal := v.LookupPath(cue.ParsePath("pattern")); patVal.Exists() {
		pat, err := patVal.String()
		if err != nil {
			return rule, formatCUEError(err)
		}
		re, err := regexp.Compile(pat)
		if err != nil {
			return rule, &CompileError{
				Field:   rule.ID,
				Message: fmt.Sprintf("invalid pattern: %v", err),
				Pos:     patVal.Pos(),
			}
		}
		rule.Pattern = re
	}

	var err error
	rule.Forbid, err = parseStringList(v, "forbid")
	if err != nil {
		return rule, err
	}

	if rule.Pattern == nil && len(rule.Forbid) == 0 {
		return rule, &CompileError{
			Field:   rule.ID,
			Message: "naming rule must declare a pattern or a forbid list",
			Pos:     v.Pos(),
		}
	}
	return rule, nil
}

func parseLifecycleRule(rule GovernanceRule, v cue.Value) (GovernanceRule, error) {
	var err error
	rule.Allowed, err = parseStringList(v, "allowed")
	if err != nil {
		return rule, err
	}
	if len(rule.Allowed) == 0 {
		return rule, &CompileError{
			Field:   rule.ID,
			Message: "lifecycle rule must declare an allowed list",
			Pos:     v.Pos(),
		}
	}
	return rule, nil
}

// checkReferences validates cross references after all declarations parsed:
// pairs and rules may only name declared element/relationship kinds.
func checkReferences(p *Profile) error {
	elements := make(map[model.ElementType]bool, len(p.Elements))
	for _, def := range p.Elements {
		elements[def.Type] = true
	}
	relationships := make(map[model.RelationshipType]bool, len(p.Relationships))
	for _, def := range p.Relationships {
		if relationships[def.Type] {
			return &CompileError{Field: string(def.Type), Message: "duplicate relationship kind"}
		}
		relationships[def.Type] = true
	}

	for _, def := range p.Relationships {
		for _, pair := range def.Pairs {
			if !elements[pair.From] || !elements[pair.To] {
				return &CompileError{
					Field:   string(def.Type),
					Message: fmt.Sprintf("pair (%s, %s) references undeclared element kind", pair.From, pair.To),
				}
			}
		}
		for _, t := range def.FromTypes {
			if !elements[t] {
				return &CompileError{Field: string(def.Type), Message: fmt.Sprintf("from set references undeclared element kind %q", t)}
			}
		}
		for _, t := range def.ToTypes {
			if !elements[t] {
				return &CompileError{Field: string(def.Type), Message: fmt.Sprintf("to set references undeclared element kind %q", t)}
			}
		}
	}

	for _, rule := range p.Rules {
		if rule.Element != ElementAny && !elements[rule.Element] {
			return &CompileError{Field: rule.ID, Message: fmt.Sprintf("rule references undeclared element kind %q", rule.Element)}
		}
		if rule.Kind == RuleCardinality && !relationships[rule.Relationship] {
			return &CompileError{Field: rule.ID, Message: fmt.Sprintf("rule references undeclared relationship kind %q", rule.Relationship)}
		}
	}

	return nil
}

// lookupString reads a required string field from a CUE value.
func lookupString(v cue.Value, field string) (string, error) {
	fieldVal := v.LookupPath(cue.ParsePath(field))
	if !fieldVal.Exists() {
		return "", &CompileError{Field: field, Message: field + " is required", Pos: v.Pos()}
	}
	s, err := fieldVal.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

// parseStringList reads an optional list-of-strings field.
func parseStringList(v cue.Value, field string) ([]string, error) {
	listVal := v.LookupPath(cue.ParsePath(field))
	if !listVal.Exists() {
		return nil, nil
	}

	iter, err := listVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out = append(out, s)
	}
	return out, nil
}

// formatCUEError converts CUE SDK errors into CompileErrors with position
// info where available.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
