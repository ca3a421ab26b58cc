package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/atelier/internal/model"
	"github.com/roach88/atelier/internal/repo"
	"github.com/roach88/atelier/internal/schema"
	"github.com/roach88/atelier/internal/validate"
	"github.com/roach88/atelier/internal/workspace"
)

func newResolver() *Resolver {
	return NewResolver(validate.NewRelationshipValidator(schema.DefaultTable()))
}

func viewOf(t *testing.T, elements []model.Element, relationships []model.Relationship) *workspace.MergedView {
	t.Helper()
	r := repo.New()
	for _, el := range elements {
		r.PutElement(el)
	}
	for _, rel := range relationships {
		require.NoError(t, r.PutRelationship(rel))
	}
	return workspace.NewMergedView(r, workspace.NewLedger())
}

func TestResolveDirectDominates(t *testing.T) {
	view := viewOf(t, []model.Element{
		{ID: "svc", Type: "Service", Attributes: model.Attributes{"name": "Invoices"}},
		{ID: "proc", Type: "Process", Attributes: model.Attributes{"name": "Close books", "ownerId": "a"}},
	}, nil)

	g, err := newResolver().BeginGesture(view, "svc")
	require.NoError(t, err)

	res, ok := g.Resolution("proc")
	require.True(t, ok)
	assert.True(t, res.HasAnyPath)
	assert.Equal(t, []model.RelationshipType{"REALIZES", "SERVES"}, res.DirectTypes)
	assert.Empty(t, res.IndirectPaths, "indirect search is skipped when a direct type validates")
	assert.Equal(t, RecommendChooseDirect, res.Recommendation)
}

func TestResolveSingleDirectAutoCreates(t *testing.T) {
	view := viewOf(t, []model.Element{
		{ID: "actor", Type: "Actor", Attributes: model.Attributes{"name": "Ops"}},
		{ID: "proc", Type: "Process", Attributes: model.Attributes{"name": "Close books", "ownerId": "actor"}},
	}, nil)

	g, err := newResolver().BeginGesture(view, "actor")
	require.NoError(t, err)

	res, ok := g.Resolution("proc")
	require.True(t, ok)
	assert.Equal(t, []model.RelationshipType{"OWNS"}, res.DirectTypes)
	assert.Equal(t, RecommendAutoCreate, res.Recommendation)
}

func TestResolveSingleIndirectAutoCreates(t *testing.T) {
	view := viewOf(t, []model.Element{
		{ID: "actor", Type: "Actor", Attributes: model.Attributes{"name": "Ops"}},
		{ID: "svc", Type: "Service", Attributes: model.Attributes{"name": "Invoices"}},
	}, nil)

	g, err := newResolver().BeginGesture(view, "actor")
	require.NoError(t, err)

	res, ok := g.Resolution("svc")
	require.True(t, ok)
	assert.Empty(t, res.DirectTypes)
	require.Len(t, res.IndirectPaths, 1)
	assert.Equal(t, IndirectPath{FirstHop: "OWNS", Via: "Application", SecondHop: "USES"}, res.IndirectPaths[0])
	assert.Equal(t, RecommendAutoCreate, res.Recommendation)
}

func TestResolveCompetingIndirectChains(t *testing.T) {
	// The direct OWNS edge already exists, so the only remaining options are
	// two-hop chains through an intermediate.
	view := viewOf(t, []model.Element{
		{ID: "actor", Type: "Actor", Attributes: model.Attributes{"name": "Ops"}},
		{ID: "app", Type: "Application", Attributes: model.Attributes{"name": "Billing", "ownerId": "actor"}},
	}, []model.Relationship{
		{ID: "owns", FromID: "actor", ToID: "app", Type: "OWNS"},
	})

	g, err := newResolver().BeginGesture(view, "actor")
	require.NoError(t, err)

	res, ok := g.Resolution("app")
	require.True(t, ok)
	assert.Empty(t, res.DirectTypes, "the duplicate triple disqualifies the direct path")
	assert.Equal(t, []IndirectPath{
		{FirstHop: "OWNS", Via: "Process", SecondHop: "USES"},
		{FirstHop: "OWNS", Via: "Application", SecondHop: "USES"},
	}, res.IndirectPaths)
	assert.Equal(t, RecommendChooseAny, res.Recommendation)
}

func TestResolveNoPath(t *testing.T) {
	view := viewOf(t, []model.Element{
		{ID: "data", Type: "DataObject", Attributes: model.Attributes{"name": "Ledger"}},
		{ID: "node", Type: "Node", Attributes: model.Attributes{"name": "vm-1"}},
	}, nil)

	g, err := newResolver().BeginGesture(view, "data")
	require.NoError(t, err)

	res, ok := g.Resolution("node")
	require.True(t, ok)
	assert.False(t, res.HasAnyPath)
	assert.Empty(t, res.DirectTypes)
	assert.Empty(t, res.IndirectPaths)
	assert.Equal(t, RecommendNone, res.Recommendation)
}

func TestBeginGestureRequiresResolvableSource(t *testing.T) {
	view := viewOf(t, []model.Element{
		{ID: "app", Type: "Application", Attributes: model.Attributes{"name": "Billing"}},
	}, nil)

	_, err := newResolver().BeginGesture(view, "ghost")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost does not resolve")
}

func TestGestureOrderAndEnd(t *testing.T) {
	view := viewOf(t, []model.Element{
		{ID: "actor", Type: "Actor", Attributes: model.Attributes{"name": "Ops"}},
		{ID: "app", Type: "Application", Attributes: model.Attributes{"name": "Billing"}},
		{ID: "svc", Type: "Service", Attributes: model.Attributes{"name": "Invoices"}},
	}, nil)

	g, err := newResolver().BeginGesture(view, "actor")
	require.NoError(t, err)
	assert.Equal(t, "actor", g.SourceID())

	all := g.Resolutions()
	require.Len(t, all, 2, "the source is never its own target")
	assert.Equal(t, "app", all[0].TargetID)
	assert.Equal(t, "svc", all[1].TargetID)

	_, ok := g.Resolution("actor")
	assert.False(t, ok)

	g.End()
	_, ok = g.Resolution("app")
	assert.False(t, ok, "ended gestures answer nothing")
	assert.Nil(t, g.Resolutions())
}
