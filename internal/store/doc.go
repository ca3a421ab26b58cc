// Package store provides SQLite-backed durable storage for the modeling
// engine: repository snapshots, workspace ledgers, and the audit log.
//
// The database is a single file opened with WAL mode and a single writer
// connection. Repository and ledger state is stored as JSON columns;
// lookups that the CLI needs (workspace status, audit history) get real
// columns and indexes.
package store
