package store

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/atelier/internal/audit"
)

// AuditSink records audit entries into the audit_entries table. It
// implements audit.Sink so the engine can be wired to durable auditing.
type AuditSink struct {
	store *Store
}

// NewAuditSink returns a sink writing to the given store.
func NewAuditSink(s *Store) *AuditSink {
	return &AuditSink{store: s}
}

// Record appends one audit entry. Entries are append-only; ordering is the
// autoincrement rowid, not the timestamp.
func (a *AuditSink) Record(ctx context.Context, entry audit.Entry) error {
	_, err := a.store.db.ExecContext(ctx, `
		INSERT INTO audit_entries (actor, repository_id, timestamp, action)
		VALUES (?, ?, ?, ?)
	`,
		entry.Actor,
		entry.RepositoryID,
		entry.Timestamp.UTC().Format(time.RFC3339Nano),
		entry.Action,
	)
	if err != nil {
		return fmt.Errorf("record audit entry: %w", err)
	}
	return nil
}

// AuditEntries returns the audit log for a repository in append order.
// A limit of 0 returns everything.
func (s *Store) AuditEntries(ctx context.Context, repositoryID string, limit int) ([]audit.Entry, error) {
	query := `
		SELECT actor, repository_id, timestamp, action
		FROM audit_entries
		WHERE repository_id = ?
		ORDER BY id ASC
	`
	args := []any{repositoryID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("read audit entries: %w", err)
	}
	defer rows.Close()

	var out []audit.Entry
	for rows.Next() {
		var (
			entry audit.Entry
			ts    string
		)
		if err := rows.Scan(&entry.Actor, &entry.RepositoryID, &ts, &entry.Action); err != nil {
			return nil, fmt.Errorf("read audit entries: %w", err)
		}
		if entry.Timestamp, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return nil, fmt.Errorf("read audit entries: parse timestamp: %w", err)
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}
