// Package workspace implements the design workspace aggregate: a staged
// ledger of tentative graph edits layered over the shared repository.
//
// A workspace moves DRAFT -> COMMITTED or DRAFT -> DISCARDED; both terminal,
// never back. Staged records carry an explicit tri-state
// (Active | PendingDelete | Committed) instead of a deletion attribute flag,
// so pending deletions stay inspectable and undoable until commit.
//
// The ledger is bookkeeping only: endpoint, duplicate and governance
// validation live in internal/validate and are applied by the engine before
// records are accepted. Ledger iteration is always insertion order - never
// map order - so commits, notifications and audit entries are deterministic.
package workspace
