package schema

import (
	"testing"

	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/atelier/internal/model"
)

func compileString(t *testing.T, src string) (*Profile, error) {
	t.Helper()
	ctx := cuecontext.New()
	v := ctx.CompileString(src)
	return CompileProfile(v)
}

func TestCompileProfileMinimal(t *testing.T) {
	profile, err := compileString(t, `
name: "tiny"
element: {
	Actor: {}
	Application: {
		required: ["ownerId"]
		lifecycle: ["active", "retired"]
	}
}
relationship: {
	OWNS: {
		pairs: [{from: "Actor", to: "Application"}]
	}
}
`)
	require.NoError(t, err)
	assert.Equal(t, "tiny", profile.Name)
	require.Len(t, profile.Elements, 2)
	assert.Equal(t, []string{"ownerId"}, profile.Elements[1].Required)
	assert.Equal(t, []string{"active", "retired"}, profile.Elements[1].Lifecycle)
	require.Len(t, profile.Relationships, 1)
	assert.Equal(t, Pair{From: "Actor", To: "Application"}, profile.Relationships[0].Pairs[0])
}

func TestCompileProfileFromToSets(t *testing.T) {
	profile, err := compileString(t, `
name: "sets"
element: {
	Service: {}
	Application: {}
}
relationship: {
	SERVES: {
		from: ["Service"]
		to: ["Application"]
	}
}
`)
	require.NoError(t, err)
	def := profile.Relationships[0]
	assert.Empty(t, def.Pairs)
	assert.Equal(t, []model.ElementType{"Service"}, def.FromTypes)
	assert.Equal(t, []model.ElementType{"Application"}, def.ToTypes)
}

func TestCompileProfileRules(t *testing.T) {
	profile, err := compileString(t, `
name: "ruled"
element: {
	Actor: {}
	Capability: {}
}
relationship: {
	OWNS: {
		pairs: [{from: "Actor", to: "Capability"}]
	}
}
rule: {
	"single-owner": {
		kind: "cardinality"
		severity: "error"
		element: "Capability"
		relationship: "OWNS"
		direction: "to"
		min: 1
		max: 1
	}
	"no-placeholders": {
		kind: "naming"
		severity: "warning"
		element: "*"
		forbid: ["TODO"]
	}
	"style": {
		kind: "naming"
		severity: "info"
		element: "Actor"
		pattern: "^[A-Z]"
	}
}
`)
	require.NoError(t, err)
	require.Len(t, profile.Rules, 3)

	cardinality := profile.Rules[0]
	assert.Equal(t, RuleCardinality, cardinality.Kind)
	assert.Equal(t, 1, cardinality.Min)
	assert.Equal(t, 1, cardinality.Max)
	assert.Equal(t, DirectionTo, cardinality.Direction)

	naming := profile.Rules[2]
	require.NotNil(t, naming.Pattern)
	assert.True(t, naming.Pattern.MatchString("Alice"))
	assert.False(t, naming.Pattern.MatchString("alice"))
}

func TestCompileProfileErrors(t *testing.T) {
	cases := []struct {
		name string
		src  string
	}{
		{"missing name", `element: {Actor: {}}`},
		{"no elements", `name: "x"`},
		{"bad severity", `
name: "x"
element: {Actor: {}}
rule: {"r": {kind: "naming", severity: "fatal", element: "Actor", forbid: ["y"]}}
`},
		{"unknown rule kind", `
name: "x"
element: {Actor: {}}
rule: {"r": {kind: "magic", severity: "error", element: "Actor"}}
`},
		{"pair references undeclared element", `
name: "x"
element: {Actor: {}}
relationship: {OWNS: {pairs: [{from: "Actor", to: "Ghost"}]}}
`},
		{"rule references undeclared relationship", `
name: "x"
element: {Actor: {}}
rule: {"r": {kind: "cardinality", severity: "error", element: "Actor", relationship: "GHOST", direction: "to", min: 1}}
`},
		{"bad pattern", `
name: "x"
element: {Actor: {}}
rule: {"r": {kind: "naming", severity: "info", element: "Actor", pattern: "(["}}
`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := compileString(t, tc.src)
			assert.Error(t, err)
		})
	}
}

func TestCompileErrorIncludesPosition(t *testing.T) {
	_, err := compileString(t, `element: {Actor: {}}`)
	require.Error(t, err)

	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "name", ce.Field)
}

func TestDefaultProfileCompiles(t *testing.T) {
	profile, err := DefaultProfile()
	require.NoError(t, err)
	assert.Equal(t, "standard", profile.Name)
	assert.NotEmpty(t, profile.Rules)
}
