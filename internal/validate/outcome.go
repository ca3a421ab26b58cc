package validate

import (
	"github.com/roach88/atelier/internal/model"
)

// Code categorizes validation failures. Codes are stable identifiers used
// in issues, CLI output and tests; messages are for humans.
type Code string

const (
	// CodeEndpointUnresolved: an endpoint ID does not resolve to an element
	// in the repository or the non-deleted staged ledger.
	CodeEndpointUnresolved Code = "EndpointUnresolved"

	// CodeTypeIncompatible: the (sourceType, targetType) pair is not
	// declared for the relationship type. Self-loops always land here.
	CodeTypeIncompatible Code = "TypeIncompatible"

	// CodeDuplicateRelationship: a non-deleted relationship with the same
	// (from, to, type) triple already exists, committed or staged.
	CodeDuplicateRelationship Code = "DuplicateRelationship"

	// CodeMissingRequiredAttribute: a required attribute is absent or empty.
	CodeMissingRequiredAttribute Code = "MissingRequiredAttribute"

	// CodeCardinalityViolation: a cardinality governance rule is violated.
	CodeCardinalityViolation Code = "CardinalityViolation"

	// CodeNamingPolicyViolation: a naming governance rule is violated.
	CodeNamingPolicyViolation Code = "NamingPolicyViolation"

	// CodeLifecyclePolicyViolation: a lifecycle governance rule is violated.
	CodeLifecyclePolicyViolation Code = "LifecyclePolicyViolation"

	// CodeDanglingStagedRelationship: a staged relationship connects two
	// elements neither of which is touched by the ledger - not a valid
	// staged change.
	CodeDanglingStagedRelationship Code = "DanglingStagedRelationship"
)

// Outcome is the result of validating one candidate relationship triple.
// Failures are returned as data; Valid outcomes carry no code or message.
type Outcome struct {
	Valid   bool   `json:"valid"`
	Code    Code   `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// OK is the successful outcome.
func OK() Outcome {
	return Outcome{Valid: true}
}

// Fail builds a failed outcome.
func Fail(code Code, message string) Outcome {
	return Outcome{Valid: false, Code: code, Message: message}
}

// Severity ranks validation issues.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Mode selects how issue severities are surfaced.
type Mode string

const (
	// ModeSoft surfaces every issue as non-blocking guidance: errors are
	// demoted to warnings, nothing blocks commit.
	ModeSoft Mode = "soft"

	// ModeHard keeps true severities; error issues block commit.
	ModeHard Mode = "hard"
)

// Issue is one severity-tagged validation finding. Issues are pure derived
// data: never stored, always recomputed from the current snapshot.
type Issue struct {
	Severity         Severity               `json:"severity"`
	Code             Code                   `json:"code"`
	Message          string                 `json:"message"`
	ElementID        string                 `json:"elementId,omitempty"`
	RelationshipID   string                 `json:"relationshipId,omitempty"`
	RelationshipType model.RelationshipType `json:"relationshipType,omitempty"`
	RuleID           string                 `json:"ruleId,omitempty"`
}

// HasErrors reports whether any issue carries error severity.
func HasErrors(issues []Issue) bool {
	for _, issue := range issues {
		if issue.Severity == SeverityError {
			return true
		}
	}
	return false
}
