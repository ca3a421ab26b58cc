// Package schema compiles declarative model profiles into the typed tables
// the engine validates against.
//
// A model profile is a CUE document declaring:
//   - element kinds (with required attributes and known lifecycle states)
//   - relationship kinds (with endpoint compatibility: explicit pairs, or a
//     looser from-set/to-set fallback)
//   - governance rules (cardinality, naming policy, lifecycle policy)
//
// Profiles are data: adding a new governance rule is a CUE edit, never a
// code change in the validator or resolver. The compiler uses the CUE SDK's
// Go API directly (not a CLI subprocess) and preserves declaration order,
// which the engine relies on for deterministic evaluation.
package schema
