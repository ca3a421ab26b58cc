package repo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/atelier/internal/model"
)

func seedRepository(t *testing.T) *Repository {
	t.Helper()
	r := New()
	r.PutElement(model.Element{ID: "app", Type: "Application", Attributes: model.Attributes{"name": "Billing"}})
	r.PutElement(model.Element{ID: "svc", Type: "Service", Attributes: model.Attributes{"name": "Invoices"}})
	require.NoError(t, r.PutRelationship(model.Relationship{
		ID: "rel", FromID: "svc", ToID: "app", Type: "SERVES", Attributes: model.Attributes{},
	}))
	return r
}

func TestCloneSharesNothing(t *testing.T) {
	orig := seedRepository(t)
	clone := orig.Clone()

	clone.PutElement(model.Element{ID: "extra", Type: "Actor", Attributes: model.Attributes{"name": "Ops"}})
	el, _ := clone.Element("app")
	el.Attributes["name"] = "Payments"
	clone.PutElement(el)

	kept, ok := orig.Element("app")
	require.True(t, ok)
	assert.Equal(t, "Billing", kept.Name())
	_, ok = orig.Element("extra")
	assert.False(t, ok)
	assert.Equal(t, 2, orig.ElementCount())
	assert.Equal(t, 3, clone.ElementCount())
}

func TestCloneDeepCopiesAttributes(t *testing.T) {
	orig := seedRepository(t)
	clone := orig.Clone()

	// Mutating the clone's returned element must not leak into the original
	// even without a PutElement round-trip.
	el, _ := clone.Element("svc")
	el.Attributes["name"] = "Ledger"

	kept, _ := orig.Element("svc")
	assert.Equal(t, "Invoices", kept.Name())
}

func TestElementsInsertionOrder(t *testing.T) {
	r := New()
	r.PutElement(model.Element{ID: "c", Type: "Actor"})
	r.PutElement(model.Element{ID: "a", Type: "Actor"})
	r.PutElement(model.Element{ID: "b", Type: "Actor"})

	// Replacing an existing ID keeps its original slot.
	r.PutElement(model.Element{ID: "a", Type: "Service"})

	var ids []string
	for _, e := range r.Elements() {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []string{"c", "a", "b"}, ids)

	replaced, _ := r.Element("a")
	assert.Equal(t, model.ElementType("Service"), replaced.Type)
}

func TestPutRelationshipRequiresEndpoints(t *testing.T) {
	r := New()
	r.PutElement(model.Element{ID: "app", Type: "Application"})

	err := r.PutRelationship(model.Relationship{ID: "r1", FromID: "ghost", ToID: "app", Type: "USES"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "from endpoint ghost")

	err = r.PutRelationship(model.Relationship{ID: "r1", FromID: "app", ToID: "ghost", Type: "USES"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "to endpoint ghost")
}

func TestPutRelationshipReplacesByID(t *testing.T) {
	r := seedRepository(t)
	require.NoError(t, r.PutRelationship(model.Relationship{
		ID: "rel", FromID: "app", ToID: "svc", Type: "USES",
	}))

	assert.Equal(t, 1, r.RelationshipCount())
	got, ok := r.Relationship("rel")
	require.True(t, ok)
	assert.Equal(t, model.RelationshipType("USES"), got.Type)
}

func TestHasTriple(t *testing.T) {
	r := seedRepository(t)

	assert.True(t, r.HasTriple(model.Key{FromID: "svc", ToID: "app", Type: "SERVES"}))
	assert.False(t, r.HasTriple(model.Key{FromID: "app", ToID: "svc", Type: "SERVES"}), "direction matters")
	assert.False(t, r.HasTriple(model.Key{FromID: "svc", ToID: "app", Type: "USES"}))
}

func TestRemoveElementBlocksWhileReferenced(t *testing.T) {
	r := seedRepository(t)

	err := r.RemoveElement("app")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 relationships still reference it")
	_, ok := r.Element("app")
	assert.True(t, ok, "failed removal must leave the element in place")

	r.RemoveRelationship("rel")
	require.NoError(t, r.RemoveElement("app"))
	_, ok = r.Element("app")
	assert.False(t, ok)
}

func TestRemoveElementAbsent(t *testing.T) {
	r := New()
	err := r.RemoveElement("ghost")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not present")
}

func TestRemoveRelationshipAbsentIsNoop(t *testing.T) {
	r := seedRepository(t)
	r.RemoveRelationship("ghost")
	assert.Equal(t, 1, r.RelationshipCount())
}

func TestRelationshipsTouching(t *testing.T) {
	r := seedRepository(t)
	r.PutElement(model.Element{ID: "actor", Type: "Actor"})
	require.NoError(t, r.PutRelationship(model.Relationship{ID: "owns", FromID: "actor", ToID: "app", Type: "OWNS"}))

	touching := r.RelationshipsTouching("app")
	require.Len(t, touching, 2)
	assert.Equal(t, "rel", touching[0].ID)
	assert.Equal(t, "owns", touching[1].ID)

	assert.Empty(t, r.RelationshipsTouching("ghost"))
}

func TestFingerprintEqual(t *testing.T) {
	a := seedRepository(t)
	b := seedRepository(t)

	eq, err := a.Equal(b)
	require.NoError(t, err)
	assert.True(t, eq)

	el, _ := b.Element("app")
	el.Attributes["name"] = "Payments"
	b.PutElement(el)

	eq, err = a.Equal(b)
	require.NoError(t, err)
	assert.False(t, eq)
}
