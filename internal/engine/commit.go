package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/atelier/internal/audit"
	"github.com/roach88/atelier/internal/bus"
	"github.com/roach88/atelier/internal/repo"
	"github.com/roach88/atelier/internal/validate"
	"github.com/roach88/atelier/internal/workspace"
)

// Change describes one applied repository mutation.
type Change struct {
	Kind           bus.Kind `json:"kind"`
	ElementID      string   `json:"elementId,omitempty"`
	RelationshipID string   `json:"relationshipId,omitempty"`
	Description    string   `json:"description"`
}

// CommitResult summarizes a successful commit.
type CommitResult struct {
	WorkspaceID       string   `json:"workspaceId"`
	RepositoryVersion int64    `json:"repositoryVersion"`
	Added             int      `json:"added"`
	Updated           int      `json:"updated"`
	Removed           int      `json:"removed"`
	Changes           []Change `json:"changes"`
}

// Commit merges the staged ledger into the shared repository as one atomic
// transaction.
//
// Sequence: hard validation (BlockedError, no mutation), drift check and
// clone, diff application on the clone (no-op diffs skipped), atomic swap
// (ConflictError, transaction discarded whole), then notifications, audit
// entries and workspace transition to COMMITTED.
//
// The context covers audit sink writes only; the in-memory transaction is
// synchronous and not cancellable.
func (e *Engine) Commit(ctx context.Context, actor string) (*CommitResult, error) {
	if err := e.requireWorkspace(); err != nil {
		return nil, err
	}
	if e.ws.Terminal() {
		return nil, fmt.Errorf("workspace %s is %s; cannot commit", e.ws.ID, e.ws.Status)
	}

	// Gate: hard-mode validation. Error issues block with no mutation.
	issues := e.Validate(validate.ModeHard)
	if validate.HasErrors(issues) {
		slog.Info("commit blocked",
			"workspace", e.ws.ID,
			"issues", len(issues),
		)
		return nil, &BlockedError{Issues: issues}
	}

	// Drift check: the ledger was built against the workspace's snapshot.
	// If the shared repository advanced, the caller must re-validate and
	// Rebase before committing - silent overwrite is forbidden.
	if current := e.shared.Version(); current != e.ws.RepositoryVersion {
		return nil, fmt.Errorf("commit workspace %s: %w", e.ws.ID,
			&repo.ConflictError{BasedOn: e.ws.RepositoryVersion, Current: current})
	}

	clone, basedOn := e.shared.Clone()
	now := e.clock.Now()

	changes, deleted, err := e.applyElements(clone, actor, now)
	if err != nil {
		return nil, fmt.Errorf("commit workspace %s: %w", e.ws.ID, err)
	}
	relChanges, err := e.applyRelationships(clone, deleted, actor, now)
	if err != nil {
		return nil, fmt.Errorf("commit workspace %s: %w", e.ws.ID, err)
	}
	changes = append(changes, relChanges...)

	// Atomic swap. On conflict the whole transaction is discarded; the
	// ledger stays intact for the caller to recompute.
	if err := e.shared.TryReplace(clone, basedOn, now); err != nil {
		return nil, fmt.Errorf("commit workspace %s: %w", e.ws.ID, err)
	}

	result := &CommitResult{
		WorkspaceID:       e.ws.ID,
		RepositoryVersion: e.shared.Version(),
		Changes:           changes,
	}
	for _, ch := range changes {
		switch ch.Kind {
		case bus.ElementCreated, bus.RelationshipCreated:
			result.Added++
		case bus.ElementUpdated, bus.RelationshipUpdated:
			result.Updated++
		case bus.ElementDeleted, bus.RelationshipDeleted:
			result.Removed++
		}
	}

	e.emit(changes)
	e.recordAudit(ctx, actor, now, result)

	e.ws.MarkCommitted(now)
	slog.Info("workspace committed",
		"workspace", e.ws.ID,
		"actor", actor,
		"added", result.Added,
		"updated", result.Updated,
		"removed", result.Removed,
		"repository_version", result.RepositoryVersion,
	)
	return result, nil
}

// applyElements folds staged element records into the clone in staging
// order. Returns the change list and the set of deleted element IDs for
// the relationship pass.
func (e *Engine) applyElements(clone *repo.Repository, actor string, now time.Time) ([]Change, map[string]bool, error) {
	var changes []Change
	deleted := make(map[string]bool)

	for _, rec := range e.ws.Ledger.Elements {
		el := rec.Element

		if rec.State == workspace.StatePendingDelete {
			existing, present := clone.Element(el.ID)
			if !present {
				continue // staged then deleted before ever committing
			}
			// Cascade: relationships touching a deleted element go first.
			for _, rel := range clone.RelationshipsTouching(el.ID) {
				clone.RemoveRelationship(rel.ID)
				changes = append(changes, Change{
					Kind:           bus.RelationshipDeleted,
					RelationshipID: rel.ID,
					Description:    fmt.Sprintf("deleted %s relationship %s (cascade from element %s)", rel.Type, rel.ID, el.ID),
				})
			}
			if err := clone.RemoveElement(el.ID); err != nil {
				return nil, nil, err
			}
			deleted[el.ID] = true
			changes = append(changes, Change{
				Kind:        bus.ElementDeleted,
				ElementID:   el.ID,
				Description: fmt.Sprintf("deleted %s %q (%s)", existing.Type, existing.Name(), el.ID),
			})
			continue
		}

		existing, present := clone.Element(el.ID)
		if !present {
			created := el.Clone()
			created.CreatedAt = now
			created.CreatedBy = actor
			clone.PutElement(created)
			changes = append(changes, Change{
				Kind:        bus.ElementCreated,
				ElementID:   el.ID,
				Description: fmt.Sprintf("created %s %q (%s)", el.Type, el.Name(), el.ID),
			})
			continue
		}

		// No-op diffs are skipped so untouched elements keep their
		// modification stamps.
		if existing.SameContent(el) {
			continue
		}
		updated := el.Clone()
		updated.CreatedAt = existing.CreatedAt // immutable after first commit
		updated.CreatedBy = existing.CreatedBy
		updated.ModifiedAt = now
		updated.ModifiedBy = actor
		clone.PutElement(updated)
		changes = append(changes, Change{
			Kind:        bus.ElementUpdated,
			ElementID:   el.ID,
			Description: fmt.Sprintf("updated %s %q (%s)", el.Type, el.Name(), el.ID),
		})
	}
	return changes, deleted, nil
}

// applyRelationships folds staged relationship records into the clone,
// skipping any relationship whose endpoint was deleted in the element pass.
func (e *Engine) applyRelationships(clone *repo.Repository, deleted map[string]bool, actor string, now time.Time) ([]Change, error) {
	var changes []Change

	for _, rec := range e.ws.Ledger.Relationships {
		rel := rec.Relationship

		if rec.State == workspace.StatePendingDelete {
			if _, present := clone.Relationship(rel.ID); !present {
				continue // never committed, or already cascade-removed
			}
			clone.RemoveRelationship(rel.ID)
			changes = append(changes, Change{
				Kind:           bus.RelationshipDeleted,
				RelationshipID: rel.ID,
				Description:    fmt.Sprintf("deleted %s relationship %s", rel.Type, rel.ID),
			})
			continue
		}

		if deleted[rel.FromID] || deleted[rel.ToID] {
			continue
		}

		existing, present := clone.Relationship(rel.ID)
		if !present {
			created := rel.Clone()
			created.CreatedAt = now
			created.CreatedBy = actor
			if err := clone.PutRelationship(created); err != nil {
				return nil, err
			}
			changes = append(changes, Change{
				Kind:           bus.RelationshipCreated,
				RelationshipID: rel.ID,
				Description:    fmt.Sprintf("created %s relationship %s -> %s (%s)", rel.Type, rel.FromID, rel.ToID, rel.ID),
			})
			continue
		}

		if existing.SameContent(rel) {
			continue
		}
		updated := rel.Clone()
		updated.CreatedAt = existing.CreatedAt
		updated.CreatedBy = existing.CreatedBy
		updated.ModifiedAt = now
		updated.ModifiedBy = actor
		if err := clone.PutRelationship(updated); err != nil {
			return nil, err
		}
		changes = append(changes, Change{
			Kind:           bus.RelationshipUpdated,
			RelationshipID: rel.ID,
			Description:    fmt.Sprintf("updated %s relationship %s", rel.Type, rel.ID),
		})
	}
	return changes, nil
}

// emit publishes one change notification per applied mutation.
func (e *Engine) emit(changes []Change) {
	if e.notifier == nil {
		return
	}
	for _, ch := range changes {
		e.notifier.Emit(bus.Event{
			Kind:           ch.Kind,
			WorkspaceID:    e.ws.ID,
			ElementID:      ch.ElementID,
			RelationshipID: ch.RelationshipID,
		})
	}
}

// recordAudit appends one summary entry plus one entry per change.
// Sink failures are logged and swallowed: the repository swap already
// happened and auditing is fire-and-forget.
func (e *Engine) recordAudit(ctx context.Context, actor string, now time.Time, result *CommitResult) {
	entries := make([]audit.Entry, 0, len(result.Changes)+1)
	entries = append(entries, audit.Entry{
		Actor:        actor,
		RepositoryID: e.shared.ID(),
		Timestamp:    now,
		Action: fmt.Sprintf("committed workspace %s: added=%d updated=%d removed=%d",
			result.WorkspaceID, result.Added, result.Updated, result.Removed),
	})
	for _, ch := range result.Changes {
		entries = append(entries, audit.Entry{
			Actor:        actor,
			RepositoryID: e.shared.ID(),
			Timestamp:    now,
			Action:       ch.Description,
		})
	}
	for _, entry := range entries {
		if err := e.sink.Record(ctx, entry); err != nil {
			slog.Error("audit record failed",
				"error", err,
				"workspace", result.WorkspaceID,
				"action", entry.Action,
			)
		}
	}
}

// Discard clears the ledger and moves the workspace to DISCARDED. The
// repository is never touched; discard always succeeds on a draft.
func (e *Engine) Discard(ctx context.Context, actor string) error {
	if err := e.requireWorkspace(); err != nil {
		return err
	}
	now := e.clock.Now()
	if err := e.ws.Discard(now); err != nil {
		return err
	}
	if err := e.sink.Record(ctx, audit.Entry{
		Actor:        actor,
		RepositoryID: e.shared.ID(),
		Timestamp:    now,
		Action:       fmt.Sprintf("discarded workspace %s", e.ws.ID),
	}); err != nil {
		slog.Error("audit record failed", "error", err, "workspace", e.ws.ID)
	}
	slog.Info("workspace discarded", "workspace", e.ws.ID, "actor", actor)
	return nil
}
