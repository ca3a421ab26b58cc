// Package model provides the foundational types of the Atelier engine.
//
// This package contains entity definitions, identity, and canonical
// serialization only. All other internal packages import model; model
// imports nothing internal. This keeps it the foundational layer with no
// circular dependencies.
//
// Key design constraints:
//   - Elements and Relationships reference each other by ID only, never by
//     pointer, so graph snapshots can be cloned without cycle tracking.
//   - Attribute iteration is always sorted; fingerprints are computed over
//     canonical JSON so identical snapshots hash identically.
//   - No floats anywhere in canonical data (non-deterministic formatting).
package model
