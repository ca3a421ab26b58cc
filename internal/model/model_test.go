package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttributesClone(t *testing.T) {
	orig := Attributes{"name": "Billing", "ownerId": "a-1"}
	clone := orig.Clone()

	clone["name"] = "Payments"
	assert.Equal(t, "Billing", orig["name"])

	var nilBag Attributes
	cloned := nilBag.Clone()
	require.NotNil(t, cloned)
	cloned["x"] = "y" // must not panic
}

func TestAttributesEqual(t *testing.T) {
	a := Attributes{"name": "x", "ownerId": "o"}
	assert.True(t, a.Equal(Attributes{"ownerId": "o", "name": "x"}))
	assert.False(t, a.Equal(Attributes{"name": "x"}))
	assert.False(t, a.Equal(Attributes{"name": "x", "ownerId": "other"}))
}

func TestAttributesSortedKeys(t *testing.T) {
	a := Attributes{"z": "1", "a": "2", "m": "3"}
	assert.Equal(t, []string{"a", "m", "z"}, a.SortedKeys())
}

func TestElementSameContentIgnoresModificationStamps(t *testing.T) {
	el := Element{ID: "e-1", Type: "Application", Attributes: Attributes{"name": "Billing"}}

	restamped := el.Clone()
	restamped.ModifiedAt = time.Now()
	restamped.ModifiedBy = "alice"
	assert.True(t, el.SameContent(restamped))

	changed := el.Clone()
	changed.Attributes["name"] = "Payments"
	assert.False(t, el.SameContent(changed))
}

func TestRelationshipSameContent(t *testing.T) {
	rel := Relationship{ID: "r-1", FromID: "a", ToID: "b", Type: "USES", Attributes: Attributes{}}

	other := rel.Clone()
	assert.True(t, rel.SameContent(other))

	other.ToID = "c"
	assert.False(t, rel.SameContent(other))
}

func TestTripleKey(t *testing.T) {
	rel := Relationship{ID: "r-1", FromID: "a", ToID: "b", Type: "USES"}
	key := rel.TripleKey()
	assert.Equal(t, Key{FromID: "a", ToID: "b", Type: "USES"}, key)

	// The triple ignores the relationship ID: a second staging of the same
	// edge collides regardless of its fresh ID.
	dup := Relationship{ID: "r-2", FromID: "a", ToID: "b", Type: "USES"}
	assert.Equal(t, key, dup.TripleKey())
}

func TestUUIDv7GeneratorProducesSortableIDs(t *testing.T) {
	gen := UUIDv7Generator{}
	a := gen.Generate()
	b := gen.Generate()
	assert.NotEqual(t, a, b)
	assert.Len(t, a, 36)
}

func TestFixedGenerator(t *testing.T) {
	gen := NewFixedGenerator("one", "two")
	assert.Equal(t, "one", gen.Generate())
	assert.Equal(t, "two", gen.Generate())
	assert.Panics(t, func() { gen.Generate() })
}

func TestSequenceGenerator(t *testing.T) {
	gen := NewSequenceGenerator("el")
	assert.Equal(t, "el-1", gen.Generate())
	assert.Equal(t, "el-2", gen.Generate())
}
