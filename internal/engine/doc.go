// Package engine wires the staged modeling workspace together: the command
// surface consumed by the presentation layer (stage, validate, resolve,
// commit, discard) and the commit coordinator that merges a staged ledger
// into the shared repository.
//
// The engine has no internal parallelism and performs no blocking I/O;
// every operation completes synchronously within the caller's turn.
// Concurrency is about shared state, not threads: the repository is shared
// by reference across open workspaces, and mutation is always
// clone-then-atomic-swap with no automatic retry.
//
// Commit is atomic end to end. Validation runs first (hard mode) and blocks
// on any error-severity issue with no mutation. The diff is applied to a
// private clone; the swap either installs the whole clone or fails with a
// conflict, never a partial merge. Notifications and audit entries are
// emitted only after the swap succeeded.
package engine
