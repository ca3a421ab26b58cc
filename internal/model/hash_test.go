package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestElementFingerprintStable(t *testing.T) {
	el := Element{
		ID:         "e-1",
		Type:       "Application",
		Attributes: Attributes{"name": "Billing", "ownerId": "a-1"},
		CreatedAt:  time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		CreatedBy:  "alice",
	}

	first, err := el.Fingerprint()
	require.NoError(t, err)
	second, err := el.Clone().Fingerprint()
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestElementFingerprintSensitiveToContent(t *testing.T) {
	el := Element{ID: "e-1", Type: "Application", Attributes: Attributes{"name": "Billing"}}
	base, err := el.Fingerprint()
	require.NoError(t, err)

	renamed := el.Clone()
	renamed.Attributes["name"] = "Payments"
	changed, err := renamed.Fingerprint()
	require.NoError(t, err)
	assert.NotEqual(t, base, changed)
}

func TestFingerprintDomainSeparation(t *testing.T) {
	// An element and a relationship with overlapping field values must not
	// collide; the domain prefix separates the hash spaces.
	el := Element{ID: "x-1", Type: "Node", Attributes: Attributes{}}
	rel := Relationship{ID: "x-1", Type: "USES", Attributes: Attributes{}}

	ef, err := el.Fingerprint()
	require.NoError(t, err)
	rf, err := rel.Fingerprint()
	require.NoError(t, err)
	assert.NotEqual(t, ef, rf)
}

func TestFingerprintZeroTimeCanonicalization(t *testing.T) {
	// Unset timestamps hash identically whether zero in UTC or zero in a
	// different location.
	zoned := Element{ID: "e-1", Type: "Actor", Attributes: Attributes{}}
	zoned.CreatedAt = time.Time{}.In(time.FixedZone("X", 3600))

	plain := Element{ID: "e-1", Type: "Actor", Attributes: Attributes{}}

	a, err := zoned.Fingerprint()
	require.NoError(t, err)
	b, err := plain.Fingerprint()
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestRepositoryFingerprintOrderSensitive(t *testing.T) {
	a := Element{ID: "a", Type: "Actor", Attributes: Attributes{}}
	b := Element{ID: "b", Type: "Actor", Attributes: Attributes{}}

	ab, err := RepositoryFingerprint([]Element{a, b}, nil)
	require.NoError(t, err)
	ba, err := RepositoryFingerprint([]Element{b, a}, nil)
	require.NoError(t, err)

	// Insertion order is part of repository identity.
	assert.NotEqual(t, ab, ba)

	again, err := RepositoryFingerprint([]Element{a, b}, nil)
	require.NoError(t, err)
	assert.Equal(t, ab, again)
}
