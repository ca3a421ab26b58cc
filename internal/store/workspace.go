package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/atelier/internal/workspace"
)

// SaveWorkspace persists a workspace and its staged ledger. The row is
// keyed on workspace ID; saving again overwrites, so the store always
// holds the latest staged state.
func (s *Store) SaveWorkspace(ctx context.Context, ws *workspace.Workspace) error {
	ledger, err := json.Marshal(ws.Ledger)
	if err != nil {
		return fmt.Errorf("save workspace %s: %w", ws.ID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO workspaces
		(id, name, status, created_at, created_by, updated_at,
		 repository_version, repository_updated_at, ledger)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			status = excluded.status,
			updated_at = excluded.updated_at,
			repository_version = excluded.repository_version,
			repository_updated_at = excluded.repository_updated_at,
			ledger = excluded.ledger
	`,
		ws.ID,
		ws.Name,
		string(ws.Status),
		ws.CreatedAt.UTC().Format(time.RFC3339Nano),
		ws.CreatedBy,
		ws.UpdatedAt.UTC().Format(time.RFC3339Nano),
		ws.RepositoryVersion,
		ws.RepositoryUpdatedAt.UTC().Format(time.RFC3339Nano),
		string(ledger),
	)
	if err != nil {
		return fmt.Errorf("save workspace %s: %w", ws.ID, err)
	}
	return nil
}

// LoadWorkspace restores a workspace by ID. Returns ErrNotFound when the
// workspace was never saved.
func (s *Store) LoadWorkspace(ctx context.Context, id string) (*workspace.Workspace, error) {
	var (
		ws        workspace.Workspace
		status    string
		createdAt string
		updatedAt string
		repoAt    string
		ledger    string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, status, created_at, created_by, updated_at,
		       repository_version, repository_updated_at, ledger
		FROM workspaces WHERE id = ?
	`, id).Scan(
		&ws.ID, &ws.Name, &status, &createdAt, &ws.CreatedBy, &updatedAt,
		&ws.RepositoryVersion, &repoAt, &ledger,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("load workspace %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load workspace %s: %w", id, err)
	}

	ws.Status = workspace.Status(status)
	if ws.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("load workspace %s: parse created_at: %w", id, err)
	}
	if ws.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("load workspace %s: parse updated_at: %w", id, err)
	}
	if ws.RepositoryUpdatedAt, err = time.Parse(time.RFC3339Nano, repoAt); err != nil {
		return nil, fmt.Errorf("load workspace %s: parse repository_updated_at: %w", id, err)
	}

	ws.Ledger = &workspace.Ledger{}
	if err := json.Unmarshal([]byte(ledger), ws.Ledger); err != nil {
		return nil, fmt.Errorf("load workspace %s: decode ledger: %w", id, err)
	}
	return &ws, nil
}

// WorkspaceSummary is the listing row for the CLI status table.
type WorkspaceSummary struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Status    workspace.Status `json:"status"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// ListWorkspaces returns summaries of all saved workspaces, most recently
// updated first.
func (s *Store) ListWorkspaces(ctx context.Context) ([]WorkspaceSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, status, updated_at
		FROM workspaces
		ORDER BY updated_at DESC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list workspaces: %w", err)
	}
	defer rows.Close()

	var out []WorkspaceSummary
	for rows.Next() {
		var (
			sum       WorkspaceSummary
			status    string
			updatedAt string
		)
		if err := rows.Scan(&sum.ID, &sum.Name, &status, &updatedAt); err != nil {
			return nil, fmt.Errorf("list workspaces: %w", err)
		}
		sum.Status = workspace.Status(status)
		if sum.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
			return nil, fmt.Errorf("list workspaces: parse updated_at: %w", err)
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}
