package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Domain prefixes for content-addressed fingerprints.
// The version suffix enables future algorithm migration.
const (
	DomainElement      = "atelier/element/v1"
	DomainRelationship = "atelier/relationship/v1"
	DomainRepository   = "atelier/repository/v1"
)

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data). The null separator prevents
// domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// canonicalTime lowers a timestamp for canonical serialization.
// The zero time maps to "" so unset stamps hash identically everywhere.
func canonicalTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func (e Element) canonicalMap() map[string]any {
	attrs := make(map[string]any, len(e.Attributes))
	for k, v := range e.Attributes {
		attrs[k] = v
	}
	return map[string]any{
		"id":         e.ID,
		"type":       string(e.Type),
		"attributes": attrs,
		"createdAt":  canonicalTime(e.CreatedAt),
		"createdBy":  e.CreatedBy,
		"modifiedAt": canonicalTime(e.ModifiedAt),
		"modifiedBy": e.ModifiedBy,
	}
}

func (r Relationship) canonicalMap() map[string]any {
	attrs := make(map[string]any, len(r.Attributes))
	for k, v := range r.Attributes {
		attrs[k] = v
	}
	return map[string]any{
		"id":         r.ID,
		"fromId":     r.FromID,
		"toId":       r.ToID,
		"type":       string(r.Type),
		"attributes": attrs,
		"createdAt":  canonicalTime(r.CreatedAt),
		"createdBy":  r.CreatedBy,
		"modifiedAt": canonicalTime(r.ModifiedAt),
		"modifiedBy": r.ModifiedBy,
	}
}

// Fingerprint computes the content-addressed identity of the element.
func (e Element) Fingerprint() (string, error) {
	canonical, err := MarshalCanonical(e.canonicalMap())
	if err != nil {
		return "", fmt.Errorf("element fingerprint: %w", err)
	}
	return hashWithDomain(DomainElement, canonical), nil
}

// Fingerprint computes the content-addressed identity of the relationship.
func (r Relationship) Fingerprint() (string, error) {
	canonical, err := MarshalCanonical(r.canonicalMap())
	if err != nil {
		return "", fmt.Errorf("relationship fingerprint: %w", err)
	}
	return hashWithDomain(DomainRelationship, canonical), nil
}

// RepositoryFingerprint hashes an ordered set of elements and relationships.
// Callers (internal/repo) pass elements in insertion order and relationships
// in sequence order so the fingerprint is stable across identical snapshots.
func RepositoryFingerprint(elements []Element, relationships []Relationship) (string, error) {
	elems := make([]any, len(elements))
	for i, e := range elements {
		elems[i] = e.canonicalMap()
	}
	rels := make([]any, len(relationships))
	for i, r := range relationships {
		rels[i] = r.canonicalMap()
	}
	canonical, err := MarshalCanonical(map[string]any{
		"elements":      elems,
		"relationships": rels,
	})
	if err != nil {
		return "", fmt.Errorf("repository fingerprint: %w", err)
	}
	return hashWithDomain(DomainRepository, canonical), nil
}
