package resolve

import (
	"github.com/roach88/atelier/internal/model"
)

// MaxIndirectHops caps indirect path search at two hops (one intermediate
// element). This is a design constant, not a configuration knob.
const MaxIndirectHops = 2

// Recommendation tells the presentation layer what to do with a drop
// gesture onto a target.
type Recommendation string

const (
	// RecommendAutoCreate: exactly one option exists; create silently.
	RecommendAutoCreate Recommendation = "auto-create"

	// RecommendChooseDirect: several direct types exist; prompt a picker.
	RecommendChooseDirect Recommendation = "choose-direct"

	// RecommendChooseAny: several indirect chains compete; prompt a picker
	// over the full option set.
	RecommendChooseAny Recommendation = "choose-any"

	// RecommendNone: no direct type and no depth-2 chain connects the pair.
	RecommendNone Recommendation = "none"
)

// IndirectPath is a two-hop chain through a hypothetical intermediate
// element type. The intermediate does not exist yet; both hops are checked
// for type compatibility only.
type IndirectPath struct {
	FirstHop  model.RelationshipType `json:"firstHop"`
	Via       model.ElementType      `json:"via"`
	SecondHop model.RelationshipType `json:"secondHop"`
}

// Resolution is the per-target verdict for one source element.
type Resolution struct {
	SourceID       string                   `json:"sourceId"`
	TargetID       string                   `json:"targetId"`
	HasAnyPath     bool                     `json:"hasAnyPath"`
	DirectTypes    []model.RelationshipType `json:"directTypes,omitempty"`
	IndirectPaths  []IndirectPath           `json:"indirectPaths,omitempty"`
	Recommendation Recommendation           `json:"recommendation"`
}
