package validate

import (
	"fmt"
	"strings"

	"github.com/roach88/atelier/internal/model"
	"github.com/roach88/atelier/internal/schema"
	"github.com/roach88/atelier/internal/workspace"
)

// Pipeline runs structural checks and governance rules over a staged ledger.
type Pipeline struct {
	table     *schema.Table
	validator *RelationshipValidator
}

// NewPipeline builds a pipeline over a compiled profile.
func NewPipeline(table *schema.Table) *Pipeline {
	return &Pipeline{
		table:     table,
		validator: NewRelationshipValidator(table),
	}
}

// Evaluate computes the issue list for the ledger layered over the
// repository snapshot. Issues are recomputed from scratch on every call;
// nothing is cached or stored.
//
// In ModeSoft every issue is demoted to non-blocking guidance (error ->
// warning); in ModeHard issues keep their true severity and error issues
// block commit.
func (p *Pipeline) Evaluate(view *workspace.MergedView, mode Mode) []Issue {
	var issues []Issue

	issues = append(issues, p.structuralElementIssues(view)...)
	issues = append(issues, p.structuralRelationshipIssues(view)...)
	issues = append(issues, p.governanceIssues(view)...)

	if mode == ModeSoft {
		for i := range issues {
			if issues[i].Severity == SeverityError {
				issues[i].Severity = SeverityWarning
			}
		}
	}
	return issues
}

// structuralElementIssues checks every staged, non-deleted element:
// known kind, non-empty name, required attributes present.
func (p *Pipeline) structuralElementIssues(view *workspace.MergedView) []Issue {
	var issues []Issue
	for _, rec := range view.Ledger().Elements {
		if rec.State == workspace.StatePendingDelete {
			continue
		}
		el := rec.Element

		if !p.table.KnownElementType(el.Type) {
			issues = append(issues, Issue{
				Severity:  SeverityError,
				Code:      CodeTypeIncompatible,
				Message:   fmt.Sprintf("unknown element kind %q", el.Type),
				ElementID: el.ID,
			})
			continue
		}

		for _, attr := range p.table.RequiredElementAttributes(el.Type) {
			if strings.TrimSpace(el.Attributes[attr]) == "" {
				issues = append(issues, Issue{
					Severity:  SeverityError,
					Code:      CodeMissingRequiredAttribute,
					Message:   fmt.Sprintf("%s %q is missing required attribute %q", el.Type, el.Name(), attr),
					ElementID: el.ID,
				})
			}
		}
	}
	return issues
}

// structuralRelationshipIssues checks every staged, non-deleted
// relationship: endpoints resolvable, at least one endpoint staged, type
// still compatible, no duplicate against the merged view, required
// attributes present.
func (p *Pipeline) structuralRelationshipIssues(view *workspace.MergedView) []Issue {
	var issues []Issue
	for _, rec := range view.Ledger().Relationships {
		if rec.State == workspace.StatePendingDelete {
			continue
		}
		rel := rec.Relationship

		fromType, fromOK := view.ElementType(rel.FromID)
		toType, toOK := view.ElementType(rel.ToID)
		if !fromOK || !toOK {
			missing := rel.FromID
			if fromOK {
				missing = rel.ToID
			}
			issues = append(issues, Issue{
				Severity:         SeverityError,
				Code:             CodeEndpointUnresolved,
				Message:          fmt.Sprintf("%s relationship endpoint %s does not resolve", rel.Type, missing),
				RelationshipID:   rel.ID,
				RelationshipType: rel.Type,
			})
			continue
		}

		// A relationship wholly between two untouched repository elements
		// is not a valid staged change.
		if !view.TouchesElement(rel.FromID) && !view.TouchesElement(rel.ToID) {
			issues = append(issues, Issue{
				Severity:         SeverityError,
				Code:             CodeDanglingStagedRelationship,
				Message:          fmt.Sprintf("%s relationship touches no staged element", rel.Type),
				RelationshipID:   rel.ID,
				RelationshipType: rel.Type,
			})
		}

		if out := p.validator.TypeCompatible(fromType, toType, rel.Type); !out.Valid {
			issues = append(issues, Issue{
				Severity:         SeverityError,
				Code:             out.Code,
				Message:          out.Message,
				RelationshipID:   rel.ID,
				RelationshipType: rel.Type,
			})
		}

		// Re-check duplicates against the repository: the shared repository
		// may have advanced since this relationship was staged. A committed
		// relationship the ledger marks PendingDelete does not count; the
		// commit applies the deletion before the add.
		if hasCommittedDuplicate(view, rel) {
			issues = append(issues, Issue{
				Severity:         SeverityError,
				Code:             CodeDuplicateRelationship,
				Message:          fmt.Sprintf("a committed %s relationship from %s to %s already exists", rel.Type, rel.FromID, rel.ToID),
				RelationshipID:   rel.ID,
				RelationshipType: rel.Type,
			})
		}

		for _, attr := range p.table.RequiredRelationshipAttributes(rel.Type) {
			if strings.TrimSpace(rel.Attributes[attr]) == "" {
				issues = append(issues, Issue{
					Severity:         SeverityError,
					Code:             CodeMissingRequiredAttribute,
					Message:          fmt.Sprintf("%s relationship is missing required attribute %q", rel.Type, attr),
					RelationshipID:   rel.ID,
					RelationshipType: rel.Type,
				})
			}
		}
	}
	return issues
}

// hasCommittedDuplicate reports whether the repository holds a live
// relationship with the same (from, to, type) triple as rel. A committed
// relationship is not live when it is rel's own shadowed original or when
// the ledger holds a PendingDelete record for it.
func hasCommittedDuplicate(view *workspace.MergedView, rel model.Relationship) bool {
	key := rel.TripleKey()
	for _, committed := range view.Repository().Relationships() {
		if committed.TripleKey() != key || committed.ID == rel.ID {
			continue
		}
		if rec := view.Ledger().RelationshipRecord(committed.ID); rec != nil && rec.State == workspace.StatePendingDelete {
			continue
		}
		return true
	}
	return false
}

// governanceIssues evaluates the profile's declarative rules over the
// merged graph. Rules apply to elements the ledger touches (staged,
// non-deleted); relationship counts span the whole merged view.
func (p *Pipeline) governanceIssues(view *workspace.MergedView) []Issue {
	var issues []Issue
	for _, rule := range p.table.Rules() {
		for _, rec := range view.Ledger().Elements {
			if rec.State == workspace.StatePendingDelete {
				continue
			}
			el := rec.Element
			if !rule.AppliesTo(el.Type) {
				continue
			}
			if issue, violated := evaluateRule(rule, el, view); violated {
				issues = append(issues, issue)
			}
		}
	}
	return issues
}

// evaluateRule applies one declarative rule to one element.
func evaluateRule(rule schema.GovernanceRule, el model.Element, view *workspace.MergedView) (Issue, bool) {
	switch rule.Kind {
	case schema.RuleCardinality:
		return evaluateCardinality(rule, el, view)
	case schema.RuleNaming:
		return evaluateNaming(rule, el)
	case schema.RuleLifecycle:
		return evaluateLifecycle(rule, el)
	default:
		return Issue{}, false
	}
}

func evaluateCardinality(rule schema.GovernanceRule, el model.Element, view *workspace.MergedView) (Issue, bool) {
	count := 0
	for _, rel := range view.Relationships() {
		if rel.Type != rule.Relationship {
			continue
		}
		switch rule.Direction {
		case schema.DirectionFrom:
			if rel.FromID == el.ID {
				count++
			}
		case schema.DirectionTo:
			if rel.ToID == el.ID {
				count++
			}
		}
	}

	if count >= rule.Min && (rule.Max == 0 || count <= rule.Max) {
		return Issue{}, false
	}

	msg := rule.Message
	if msg == "" {
		msg = fmt.Sprintf("%s %q has %d %s relationships, expected between %d and %d",
			el.Type, el.Name(), count, rule.Relationship, rule.Min, rule.Max)
	}
	return Issue{
		Severity:         Severity(rule.Severity),
		Code:             CodeCardinalityViolation,
		Message:          msg,
		ElementID:        el.ID,
		RelationshipType: rule.Relationship,
		RuleID:           rule.ID,
	}, true
}

func evaluateNaming(rule schema.GovernanceRule, el model.Element) (Issue, bool) {
	name := el.Name()

	violated := false
	if rule.Pattern != nil && !rule.Pattern.MatchString(name) {
		violated = true
	}
	lower := strings.ToLower(name)
	for _, banned := range rule.Forbid {
		if strings.Contains(lower, strings.ToLower(banned)) {
			violated = true
			break
		}
	}
	if !violated {
		return Issue{}, false
	}

	msg := rule.Message
	if msg == "" {
		msg = fmt.Sprintf("%s name %q violates naming policy %s", el.Type, name, rule.ID)
	}
	return Issue{
		Severity:  Severity(rule.Severity),
		Code:      CodeNamingPolicyViolation,
		Message:   msg,
		ElementID: el.ID,
		RuleID:    rule.ID,
	}, true
}

func evaluateLifecycle(rule schema.GovernanceRule, el model.Element) (Issue, bool) {
	status := el.Attributes[model.AttrLifecycle]
	if status == "" {
		// Absence is a required-attribute concern, not a lifecycle one.
		return Issue{}, false
	}
	for _, allowed := range rule.Allowed {
		if status == allowed {
			return Issue{}, false
		}
	}

	msg := rule.Message
	if msg == "" {
		msg = fmt.Sprintf("%s %q has lifecycle status %q, allowed: %s",
			el.Type, el.Name(), status, strings.Join(rule.Allowed, ", "))
	}
	return Issue{
		Severity:  Severity(rule.Severity),
		Code:      CodeLifecyclePolicyViolation,
		Message:   msg,
		ElementID: el.ID,
		RuleID:    rule.ID,
	}, true
}
