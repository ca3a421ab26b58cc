package resolve

import (
	"fmt"

	"github.com/roach88/atelier/internal/model"
	"github.com/roach88/atelier/internal/schema"
	"github.com/roach88/atelier/internal/validate"
	"github.com/roach88/atelier/internal/workspace"
)

// Resolver computes connection resolutions against a compatibility table.
// The resolver itself is stateless; all per-gesture state lives in the
// Gesture value it hands out.
type Resolver struct {
	table     *schema.Table
	validator *validate.RelationshipValidator
}

// NewResolver builds a resolver sharing the given validator's table.
func NewResolver(validator *validate.RelationshipValidator) *Resolver {
	return &Resolver{
		table:     validator.Table(),
		validator: validator,
	}
}

// Gesture is the explicit, gesture-scoped resolution cache. Built once at
// gesture start (drag start), queried during the gesture, discarded at
// gesture end. Never share a Gesture across gestures: the snapshot it was
// computed from may have changed.
type Gesture struct {
	sourceID    string
	order       []string
	resolutions map[string]Resolution
	ended       bool
}

// BeginGesture computes the full resolution map for the source element
// against every other resolvable element in the view.
func (r *Resolver) BeginGesture(view *workspace.MergedView, sourceID string) (*Gesture, error) {
	source, ok := view.Element(sourceID)
	if !ok {
		return nil, fmt.Errorf("begin gesture: source element %s does not resolve", sourceID)
	}

	g := &Gesture{
		sourceID:    sourceID,
		resolutions: make(map[string]Resolution),
	}
	for _, target := range view.Elements() {
		if target.ID == sourceID {
			continue
		}
		res := r.resolveTarget(view, source, target)
		g.order = append(g.order, target.ID)
		g.resolutions[target.ID] = res
	}
	return g, nil
}

// resolveTarget computes the verdict for one (source, target) pair.
//
// Direct paths dominate: when any direct type validates, the indirect
// search is skipped entirely for this target.
func (r *Resolver) resolveTarget(view *workspace.MergedView, source, target model.Element) Resolution {
	res := Resolution{
		SourceID: source.ID,
		TargetID: target.ID,
	}

	for _, typ := range r.table.RelationshipTypes() {
		if out := r.validator.Validate(view, source.ID, target.ID, typ); out.Valid {
			res.DirectTypes = append(res.DirectTypes, typ)
		}
	}

	if len(res.DirectTypes) == 0 {
		res.IndirectPaths = r.indirectPaths(source.Type, target.Type)
	}

	res.HasAnyPath = len(res.DirectTypes) > 0 || len(res.IndirectPaths) > 0
	res.Recommendation = classify(res)
	return res
}

// indirectPaths enumerates every two-hop chain (t1, M, t2) where both hops
// are type-compatible. Intermediates do not exist yet, so identity and
// duplicate checks are skipped; only the compatibility table is consulted.
// Enumeration order is declaration order throughout, so output is
// deterministic.
func (r *Resolver) indirectPaths(sourceType, targetType model.ElementType) []IndirectPath {
	var paths []IndirectPath
	for _, t1 := range r.table.RelationshipTypes() {
		for _, via := range r.table.ElementTypes() {
			if !r.table.Allows(t1, sourceType, via) {
				continue
			}
			for _, t2 := range r.table.RelationshipTypes() {
				if r.table.Allows(t2, via, targetType) {
					paths = append(paths, IndirectPath{FirstHop: t1, Via: via, SecondHop: t2})
				}
			}
		}
	}
	return paths
}

// classify derives the UI recommendation from the option set. Because
// direct paths dominate (indirect search skipped when any direct type
// exists), a literal direct/indirect mix cannot occur; choose-any covers
// the competing-indirect-chains case.
func classify(res Resolution) Recommendation {
	switch {
	case len(res.DirectTypes) == 1:
		return RecommendAutoCreate
	case len(res.DirectTypes) >= 2:
		return RecommendChooseDirect
	case len(res.IndirectPaths) == 1:
		return RecommendAutoCreate
	case len(res.IndirectPaths) >= 2:
		return RecommendChooseAny
	default:
		return RecommendNone
	}
}

// SourceID returns the gesture's source element.
func (g *Gesture) SourceID() string { return g.sourceID }

// Resolution returns the cached verdict for a target.
// Returns false after End or for unknown targets.
func (g *Gesture) Resolution(targetID string) (Resolution, bool) {
	if g.ended {
		return Resolution{}, false
	}
	res, ok := g.resolutions[targetID]
	return res, ok
}

// Resolutions returns every verdict in deterministic (view) order.
func (g *Gesture) Resolutions() []Resolution {
	if g.ended {
		return nil
	}
	out := make([]Resolution, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.resolutions[id])
	}
	return out
}

// End discards the cache. The gesture must not be queried afterwards;
// a new gesture starts with a fresh BeginGesture against the live snapshot.
func (g *Gesture) End() {
	g.ended = true
	g.resolutions = nil
	g.order = nil
}
