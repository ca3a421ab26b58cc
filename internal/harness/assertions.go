package harness

import (
	"context"
	"fmt"

	"github.com/roach88/atelier/internal/workspace"
)

// CheckAssertions evaluates every assertion against the final state.
// Returns one error per failed assertion.
func CheckAssertions(result *Result) []error {
	var failures []error
	for i, assertion := range result.Scenario.Assertions {
		if err := checkAssertion(result, assertion); err != nil {
			failures = append(failures, fmt.Errorf("assertion %d (%s): %w", i+1, assertion.Type, err))
		}
	}
	return failures
}

func checkAssertion(result *Result, a Assertion) error {
	view := result.Shared.View()

	switch a.Type {
	case AssertElementCount:
		if got := view.ElementCount(); got != a.Count {
			return fmt.Errorf("expected %d element(s), got %d", a.Count, got)
		}

	case AssertRelationshipCount:
		if got := view.RelationshipCount(); got != a.Count {
			return fmt.Errorf("expected %d relationship(s), got %d", a.Count, got)
		}

	case AssertAuditCount:
		entries, err := result.Store.AuditEntries(context.Background(), result.Shared.ID(), 0)
		if err != nil {
			return fmt.Errorf("read audit log: %w", err)
		}
		if got := len(entries); got != a.Count {
			return fmt.Errorf("expected %d audit entrie(s), got %d", a.Count, got)
		}

	case AssertWorkspaceStatus:
		if got := result.WorkspaceStatus(); got != workspace.Status(a.Status) {
			return fmt.Errorf("expected workspace status %s, got %s", a.Status, got)
		}

	case AssertElementExists:
		id := deref(result.Refs, a.Ref)
		if _, ok := view.Element(id); !ok {
			return fmt.Errorf("element %s (%s) not in repository", a.Ref, id)
		}

	case AssertElementAbsent:
		id := deref(result.Refs, a.Ref)
		if _, ok := view.Element(id); ok {
			return fmt.Errorf("element %s (%s) unexpectedly in repository", a.Ref, id)
		}

	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}
