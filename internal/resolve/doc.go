// Package resolve computes connection resolutions: for a source element,
// the full set of reachable targets and whether each is connectable
// directly, indirectly through one hypothetical intermediate element type,
// or not at all.
//
// Resolutions exist so the presentation layer can decide, per drop gesture,
// whether to create a relationship silently, prompt a type picker, or
// explain why no connection is possible - a decision-ready verdict, not a
// boolean.
//
// The resolution map is scoped strictly to one user gesture: it is built by
// BeginGesture, carried as an explicit Gesture value through the call chain,
// and discarded at gesture end. There is no process-wide or cross-gesture
// cache, since the repository and ledger it was computed against can change
// between gestures.
package resolve
