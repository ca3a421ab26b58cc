// Package harness provides a conformance testing framework for the
// modeling engine.
//
// Scenarios are YAML files describing a sequence of workspace operations.
// The harness executes them against a real engine wired with deterministic
// IDs, a fixed clock, an in-memory store for the audit log, and a
// recording notification bus, then compares the produced trace against a
// golden file.
package harness

import (
	"context"
	"fmt"

	"github.com/roach88/atelier/internal/bus"
	"github.com/roach88/atelier/internal/engine"
	"github.com/roach88/atelier/internal/model"
	"github.com/roach88/atelier/internal/repo"
	"github.com/roach88/atelier/internal/resolve"
	"github.com/roach88/atelier/internal/schema"
	"github.com/roach88/atelier/internal/store"
	"github.com/roach88/atelier/internal/testutil"
	"github.com/roach88/atelier/internal/validate"
	"github.com/roach88/atelier/internal/workspace"
)

// TraceEvent records the observable outcome of one step. Empty fields are
// omitted from the golden serialization.
type TraceEvent struct {
	Op             string   `json:"op"`
	WorkspaceID    string   `json:"workspaceId,omitempty"`
	ElementID      string   `json:"elementId,omitempty"`
	RelationshipID string   `json:"relationshipId,omitempty"`
	Rejected       bool     `json:"rejected,omitempty"`
	Code           string   `json:"code,omitempty"`
	Issues         []string `json:"issues,omitempty"`      // "severity code target"
	Resolutions    []string `json:"resolutions,omitempty"` // "target recommendation"
	Added          int      `json:"added,omitempty"`
	Updated        int      `json:"updated,omitempty"`
	Removed        int      `json:"removed,omitempty"`
	Error          string   `json:"error,omitempty"`
}

// Result is the outcome of running a scenario.
type Result struct {
	Scenario *Scenario
	Trace    []TraceEvent
	Engine   *engine.Engine
	Shared   *repo.Shared
	Store    *store.Store
	Events   []bus.Event
	Refs     map[string]string // symbolic ref -> generated ID
}

// Run executes a scenario against a fresh engine and in-memory store.
//
// Determinism: IDs come from a sequence generator ("id-1", "id-2", ...),
// the clock is fixed, and all iteration follows insertion order, so the
// same scenario always produces the same trace.
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("create in-memory store: %w", err)
	}

	actor := scenario.Actor
	if actor == "" {
		actor = "harness"
	}

	clock := testutil.NewFixedClock()
	recorder := bus.NewRecorder()
	shared := repo.NewShared("main", repo.New(), clock.Now())

	eng := engine.New(shared, schema.DefaultTable(),
		engine.WithIDGenerator(model.NewSequenceGenerator("id")),
		engine.WithClock(clock),
		engine.WithBus(recorder),
		engine.WithAuditSink(store.NewAuditSink(st)),
	)

	result := &Result{
		Scenario: scenario,
		Engine:   eng,
		Shared:   shared,
		Store:    st,
		Refs:     map[string]string{},
	}

	for i, step := range scenario.Steps {
		event, err := runStep(eng, actor, step, result.Refs)
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("scenario %s step %d (%s): %w", scenario.Name, i+1, step.Op, err)
		}
		result.Trace = append(result.Trace, event)
	}

	result.Events = recorder.Events()
	return result, nil
}

// runStep executes one step. Expected domain failures (rejected
// relationships, blocked commits, conflicts) land in the trace event;
// the error return covers scenario bugs only.
func runStep(eng *engine.Engine, actor string, step Step, refs map[string]string) (TraceEvent, error) {
	event := TraceEvent{Op: step.Op}

	switch step.Op {
	case OpOpen:
		ws := eng.OpenWorkspace(step.Name, actor)
		event.WorkspaceID = ws.ID

	case OpStageElement:
		rec, err := eng.StageElement(model.ElementType(step.Kind), step.Name, attrsOf(step.Attrs))
		if err != nil {
			event.Error = err.Error()
			return event, nil
		}
		event.ElementID = rec.Element.ID
		if step.Ref != "" {
			refs[step.Ref] = rec.Element.ID
		}

	case OpStageUpdate:
		rec, err := eng.StageElementUpdate(deref(refs, step.Target), attrsOf(step.Attrs))
		if err != nil {
			event.Error = err.Error()
			return event, nil
		}
		event.ElementID = rec.Element.ID

	case OpStageDelete:
		rec, err := eng.StageElementDelete(deref(refs, step.Target))
		if err != nil {
			event.Error = err.Error()
			return event, nil
		}
		event.ElementID = rec.Element.ID

	case OpStageRelationship:
		out, rec, err := eng.StageRelationship(
			deref(refs, step.From), deref(refs, step.To),
			model.RelationshipType(step.Kind), attrsOf(step.Attrs))
		if err != nil {
			return event, err
		}
		if !out.Valid {
			event.Rejected = true
			event.Code = string(out.Code)
			break
		}
		event.RelationshipID = rec.Relationship.ID
		if step.Ref != "" {
			refs[step.Ref] = rec.Relationship.ID
		}

	case OpStageRelationshipDelete:
		rec, err := eng.StageRelationshipDelete(deref(refs, step.Target))
		if err != nil {
			event.Error = err.Error()
			return event, nil
		}
		event.RelationshipID = rec.Relationship.ID

	case OpValidate:
		mode := validate.ModeSoft
		if step.Mode == "hard" {
			mode = validate.ModeHard
		}
		for _, issue := range eng.Validate(mode) {
			target := issue.ElementID
			if issue.RelationshipID != "" {
				target = issue.RelationshipID
			}
			event.Issues = append(event.Issues,
				fmt.Sprintf("%s %s %s", issue.Severity, issue.Code, target))
		}

	case OpResolve:
		gesture, err := eng.BeginGesture(deref(refs, step.Source))
		if err != nil {
			event.Error = err.Error()
			return event, nil
		}
		resolutions := pickResolutions(gesture, step.Targets, refs)
		for _, res := range resolutions {
			event.Resolutions = append(event.Resolutions,
				fmt.Sprintf("%s %s", res.TargetID, res.Recommendation))
		}
		gesture.End()

	case OpCommit:
		result, err := eng.Commit(context.Background(), actor)
		if err != nil {
			event.Error = err.Error()
			return event, nil
		}
		event.Added = result.Added
		event.Updated = result.Updated
		event.Removed = result.Removed

	case OpDiscard:
		if err := eng.Discard(context.Background(), actor); err != nil {
			event.Error = err.Error()
		}

	case OpRebase:
		if err := eng.Rebase(); err != nil {
			event.Error = err.Error()
		}

	default:
		return event, fmt.Errorf("unknown op %q", step.Op)
	}
	return event, nil
}

// pickResolutions returns the requested targets, or everything in
// deterministic order when none were named.
func pickResolutions(g *resolve.Gesture, targets []string, refs map[string]string) []resolve.Resolution {
	if len(targets) == 0 {
		return g.Resolutions()
	}
	out := make([]resolve.Resolution, 0, len(targets))
	for _, target := range targets {
		if res, ok := g.Resolution(deref(refs, target)); ok {
			out = append(out, res)
		}
	}
	return out
}

// deref resolves a symbolic ref to its generated ID, falling back to the
// literal value so scenarios can also name committed IDs directly.
func deref(refs map[string]string, key string) string {
	if id, ok := refs[key]; ok {
		return id
	}
	return key
}

// attrsOf converts the scenario attribute map.
func attrsOf(m map[string]string) model.Attributes {
	attrs := model.Attributes{}
	for k, v := range m {
		attrs[k] = v
	}
	return attrs
}

// WorkspaceStatus returns the final status of the scenario's workspace.
func (r *Result) WorkspaceStatus() workspace.Status {
	if ws := r.Engine.Workspace(); ws != nil {
		return ws.Status
	}
	return ""
}

// Close releases the in-memory store.
func (r *Result) Close() error {
	return r.Store.Close()
}
