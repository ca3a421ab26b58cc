package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/atelier/internal/model"
	"github.com/roach88/atelier/internal/repo"
)

// ErrNotFound is returned when a repository or workspace row is absent.
var ErrNotFound = errors.New("not found")

// repositorySnapshot is the JSON shape of a persisted repository. Elements
// keep their insertion order so a reload iterates identically.
type repositorySnapshot struct {
	Elements      []model.Element      `json:"elements"`
	Relationships []model.Relationship `json:"relationships"`
}

// SaveRepository persists the current snapshot of a shared repository.
// The row is keyed on repository ID; saving again overwrites.
func (s *Store) SaveRepository(ctx context.Context, shared *repo.Shared) error {
	snap, version := shared.Clone()
	doc := repositorySnapshot{
		Elements:      snap.Elements(),
		Relationships: snap.Relationships(),
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("save repository %s: %w", shared.ID(), err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO repositories (id, version, updated_at, snapshot)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			version = excluded.version,
			updated_at = excluded.updated_at,
			snapshot = excluded.snapshot
	`,
		shared.ID(),
		version,
		shared.UpdatedAt().UTC().Format(time.RFC3339Nano),
		string(data),
	)
	if err != nil {
		return fmt.Errorf("save repository %s: %w", shared.ID(), err)
	}
	return nil
}

// LoadRepository restores a shared repository by ID. Returns ErrNotFound
// when no snapshot was ever saved under that ID.
func (s *Store) LoadRepository(ctx context.Context, id string) (*repo.Shared, error) {
	var (
		version   int64
		updatedAt string
		snapshot  string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT version, updated_at, snapshot FROM repositories WHERE id = ?
	`, id).Scan(&version, &updatedAt, &snapshot)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("load repository %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load repository %s: %w", id, err)
	}

	var doc repositorySnapshot
	if err := json.Unmarshal([]byte(snapshot), &doc); err != nil {
		return nil, fmt.Errorf("load repository %s: decode snapshot: %w", id, err)
	}

	r := repo.New()
	for _, el := range doc.Elements {
		r.PutElement(el)
	}
	for _, rel := range doc.Relationships {
		if err := r.PutRelationship(rel); err != nil {
			return nil, fmt.Errorf("load repository %s: %w", id, err)
		}
	}

	at, err := time.Parse(time.RFC3339Nano, updatedAt)
	if err != nil {
		return nil, fmt.Errorf("load repository %s: parse updated_at: %w", id, err)
	}
	return repo.RestoreShared(id, r, version, at), nil
}
