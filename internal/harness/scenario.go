package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario. Scenarios drive the real
// engine through a sequence of workspace operations and assert on the
// resulting trace and final repository state.
type Scenario struct {
	// Name uniquely identifies this scenario; it names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Actor is recorded on staged changes and audit entries.
	// Defaults to "harness".
	Actor string `yaml:"actor,omitempty"`

	// Steps is the operation sequence to execute in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final repository and workspace state.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step is one engine operation. Op selects the operation; the other
// fields apply per op as documented on the constants below.
type Step struct {
	// Op is one of the Op* constants.
	Op string `yaml:"op"`

	// Ref names the created entity so later steps can reference it.
	// Used by stage-element and stage-relationship.
	Ref string `yaml:"ref,omitempty"`

	// Name is the workspace name (open) or element name (stage-element).
	Name string `yaml:"name,omitempty"`

	// Kind is the element or relationship kind.
	Kind string `yaml:"kind,omitempty"`

	// Attrs are extra attributes for staged elements/relationships, and
	// the changed attributes for stage-update.
	Attrs map[string]string `yaml:"attrs,omitempty"`

	// From/To reference relationship endpoints by ref or literal ID.
	From string `yaml:"from,omitempty"`
	To   string `yaml:"to,omitempty"`

	// Target references the entity of stage-update, stage-delete,
	// stage-relationship-delete and resolve targets.
	Target string `yaml:"target,omitempty"`

	// Mode selects soft or hard validation (validate). Defaults to soft.
	Mode string `yaml:"mode,omitempty"`

	// Source is the gesture source element (resolve).
	Source string `yaml:"source,omitempty"`

	// Targets are the gesture targets to report (resolve). Empty reports
	// every visible element.
	Targets []string `yaml:"targets,omitempty"`
}

// Step operations.
const (
	OpOpen                    = "open"
	OpStageElement            = "stage-element"
	OpStageUpdate             = "stage-update"
	OpStageDelete             = "stage-delete"
	OpStageRelationship       = "stage-relationship"
	OpStageRelationshipDelete = "stage-relationship-delete"
	OpValidate                = "validate"
	OpResolve                 = "resolve"
	OpCommit                  = "commit"
	OpDiscard                 = "discard"
	OpRebase                  = "rebase"
)

// Assertion validates final state after all steps ran.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Count is the expected value for count-type assertions.
	Count int `yaml:"count,omitempty"`

	// Status is the expected workspace status (workspace_status).
	Status string `yaml:"status,omitempty"`

	// Ref names an element expected present (element_exists) or absent
	// (element_absent) in the committed repository.
	Ref string `yaml:"ref,omitempty"`
}

// Assertion type constants.
const (
	AssertElementCount      = "element_count"      // committed repository element count
	AssertRelationshipCount = "relationship_count" // committed repository relationship count
	AssertAuditCount        = "audit_count"        // audit entries recorded
	AssertWorkspaceStatus   = "workspace_status"   // final workspace status
	AssertElementExists     = "element_exists"     // ref resolves in the committed repository
	AssertElementAbsent     = "element_absent"     // ref does not resolve in the committed repository
)

// LoadScenario reads and parses a scenario YAML file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}

	var scenario Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", filepath.Base(path), err)
	}
	if scenario.Name == "" {
		return nil, fmt.Errorf("scenario %s: missing name", filepath.Base(path))
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %s: no steps", scenario.Name)
	}
	return &scenario, nil
}

// LoadScenarios reads every .yaml scenario under dir.
func LoadScenarios(dir string) ([]*Scenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read scenario dir: %w", err)
	}

	var scenarios []*Scenario
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}
		s, err := LoadScenario(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}
