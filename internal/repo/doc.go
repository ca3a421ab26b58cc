// Package repo holds the committed architecture graph and its sharing
// discipline.
//
// A Repository is a value: a mapping of element IDs to elements plus an
// ordered sequence of relationships. It is never mutated in place by the
// engine. Mutation always follows clone-then-replace: derive a private clone
// from the Shared store, mutate the clone, then attempt an atomic
// compare-and-swap keyed on the version the clone was taken from. If the
// live repository advanced in the meantime the swap fails with a
// ConflictError and the caller must recompute - the primitive owns
// atomicity, the caller owns retry policy.
package repo
