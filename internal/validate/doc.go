// Package validate implements relationship validation and the staged-change
// validation pipeline.
//
// Every failure in this package is data, never control flow: the validator
// returns an Outcome, the pipeline returns severity-tagged Issues, and the
// caller decides whether to surface, block or ignore. Only the commit path
// (internal/engine) converts validation results into Go errors, and only for
// the two failures that prevent a state transition.
//
// Governance rules are evaluated as declarative predicates from the compiled
// profile (internal/schema) over the merged repository+ledger view - adding
// a rule is a profile edit, not a validator change.
package validate
