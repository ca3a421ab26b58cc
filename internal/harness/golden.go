package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/atelier/internal/model"
)

// TraceSnapshot captures the complete trace for a scenario execution.
// Serialized as canonical JSON for byte-stable golden comparison.
type TraceSnapshot struct {
	ScenarioName string
	Trace        []TraceEvent
}

// toCanonicalMap converts a TraceSnapshot to plain maps for canonical JSON
// serialization. Zero-value fields are omitted.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	traceList := make([]any, len(s.Trace))
	for i, event := range s.Trace {
		eventMap := map[string]any{
			"op": event.Op,
		}
		if event.WorkspaceID != "" {
			eventMap["workspaceId"] = event.WorkspaceID
		}
		if event.ElementID != "" {
			eventMap["elementId"] = event.ElementID
		}
		if event.RelationshipID != "" {
			eventMap["relationshipId"] = event.RelationshipID
		}
		if event.Rejected {
			eventMap["rejected"] = true
		}
		if event.Code != "" {
			eventMap["code"] = event.Code
		}
		if len(event.Issues) > 0 {
			eventMap["issues"] = event.Issues
		}
		if len(event.Resolutions) > 0 {
			eventMap["resolutions"] = event.Resolutions
		}
		if event.Added != 0 {
			eventMap["added"] = event.Added
		}
		if event.Updated != 0 {
			eventMap["updated"] = event.Updated
		}
		if event.Removed != 0 {
			eventMap["removed"] = event.Removed
		}
		if event.Error != "" {
			eventMap["error"] = event.Error
		}
		traceList[i] = eventMap
	}

	return map[string]any{
		"scenario_name": s.ScenarioName,
		"trace":         traceList,
	}
}

// RunWithGolden executes a scenario and compares the trace against a
// golden file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	snapshot := TraceSnapshot{
		ScenarioName: scenario.Name,
		Trace:        result.Trace,
	}
	traceJSON, err := model.MarshalCanonical(snapshot.toCanonicalMap())
	if err != nil {
		result.Close()
		return nil, err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, traceJSON)

	return result, nil
}
