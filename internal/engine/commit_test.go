package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/atelier/internal/bus"
	"github.com/roach88/atelier/internal/model"
	"github.com/roach88/atelier/internal/repo"
	"github.com/roach88/atelier/internal/validate"
	"github.com/roach88/atelier/internal/workspace"
)

func TestCommitAppliesStagedChanges(t *testing.T) {
	f := newFixture(t, nil, "id")
	f.engine.OpenWorkspace("sketch", "alice")

	_, err := f.engine.StageElement("Actor", "Ops", nil)
	require.NoError(t, err)
	_, err = f.engine.StageElement("Application", "Billing", model.Attributes{"ownerId": "id-2"})
	require.NoError(t, err)
	out, _, err := f.engine.StageRelationship("id-2", "id-3", "OWNS", nil)
	require.NoError(t, err)
	require.True(t, out.Valid)

	result, err := f.engine.Commit(context.Background(), "alice")
	require.NoError(t, err)

	assert.Equal(t, "id-1", result.WorkspaceID)
	assert.Equal(t, int64(2), result.RepositoryVersion)
	assert.Equal(t, 3, result.Added)
	assert.Zero(t, result.Updated)
	assert.Zero(t, result.Removed)
	require.Len(t, result.Changes, 3)

	// Creation stamps land exactly once; modification stamps stay empty.
	committed := f.shared.View()
	app, ok := committed.Element("id-3")
	require.True(t, ok)
	assert.Equal(t, "alice", app.CreatedBy)
	assert.False(t, app.CreatedAt.IsZero())
	assert.True(t, app.ModifiedAt.IsZero())
	assert.Empty(t, app.ModifiedBy)

	rel, ok := committed.Relationship("id-4")
	require.True(t, ok)
	assert.Equal(t, "alice", rel.CreatedBy)

	ws := f.engine.Workspace()
	assert.Equal(t, workspace.StatusCommitted, ws.Status)
	for _, rec := range ws.Ledger.Elements {
		assert.Equal(t, workspace.StateCommitted, rec.State)
	}

	// One notification per applied change, in application order.
	events := f.recorder.Events()
	require.Len(t, events, 3)
	assert.Equal(t, bus.ElementCreated, events[0].Kind)
	assert.Equal(t, "id-2", events[0].ElementID)
	assert.Equal(t, bus.RelationshipCreated, events[2].Kind)
	assert.Equal(t, "id-4", events[2].RelationshipID)
	for _, ev := range events {
		assert.Equal(t, "id-1", ev.WorkspaceID)
	}

	// One summary audit entry plus one per change.
	entries := f.sink.Entries()
	require.Len(t, entries, 4)
	assert.Equal(t, "committed workspace id-1: added=3 updated=0 removed=0", entries[0].Action)
	assert.Equal(t, "alice", entries[0].Actor)
	assert.Equal(t, "main", entries[0].RepositoryID)
	assert.Contains(t, entries[1].Action, `created Actor "Ops"`)
}

func TestCommitBlockedMutatesNothing(t *testing.T) {
	f := newFixture(t, nil, "id")
	f.engine.OpenWorkspace("sketch", "alice")

	// Application without its required ownerId attribute.
	_, err := f.engine.StageElement("Application", "Billing", nil)
	require.NoError(t, err)

	_, err = f.engine.Commit(context.Background(), "alice")
	require.Error(t, err)
	assert.True(t, IsBlocked(err))
	assert.Equal(t, "commit blocked: 1 error issue(s)", err.Error())

	var blocked *BlockedError
	require.ErrorAs(t, err, &blocked)
	require.Len(t, blocked.Issues, 1)
	assert.Equal(t, validate.CodeMissingRequiredAttribute, blocked.Issues[0].Code)

	// Nothing moved: repository, workspace, notifications, audit.
	assert.Equal(t, int64(1), f.shared.Version())
	assert.Equal(t, 0, f.shared.View().ElementCount())
	assert.Equal(t, workspace.StatusDraft, f.engine.Workspace().Status)
	assert.Empty(t, f.recorder.Events())
	assert.Empty(t, f.sink.Entries())

	// The ledger stays editable: fix the issue and commit again.
	_, err = f.engine.StageElementUpdate("id-2", model.Attributes{"ownerId": "someone"})
	require.NoError(t, err)
	result, err := f.engine.Commit(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Added)
}

func TestCommitConflictAndRebase(t *testing.T) {
	f1 := newFixture(t, nil, "a")
	// Second engine over the same shared repository.
	e2 := New(f1.shared, f1.engine.Table(),
		WithIDGenerator(model.NewSequenceGenerator("b")),
		WithClock(f1.clock),
	)

	f1.engine.OpenWorkspace("first", "alice")
	ws2 := e2.OpenWorkspace("second", "bob")

	_, err := f1.engine.StageElement("Actor", "Ops", nil)
	require.NoError(t, err)
	_, err = e2.StageElement("Actor", "Security", nil)
	require.NoError(t, err)

	_, err = f1.engine.Commit(context.Background(), "alice")
	require.NoError(t, err)

	// The loser's commit fails whole; its ledger survives for recompute.
	_, err = e2.Commit(context.Background(), "bob")
	require.Error(t, err)
	assert.True(t, IsConflict(err))
	assert.Equal(t, workspace.StatusDraft, ws2.Status)
	require.Len(t, ws2.Ledger.Elements, 1)
	assert.Equal(t, workspace.StateActive, ws2.Ledger.Elements[0].State)

	// Recompute path: re-validate against the new snapshot, then rebase.
	issues := e2.Validate(validate.ModeHard)
	assert.False(t, validate.HasErrors(issues))
	require.NoError(t, e2.Rebase())

	result, err := e2.Commit(context.Background(), "bob")
	require.NoError(t, err)
	assert.Equal(t, int64(3), result.RepositoryVersion)
	assert.Equal(t, 2, f1.shared.View().ElementCount())
}

func TestCommitUpdatePreservesCreationStamps(t *testing.T) {
	f := newFixture(t, nil, "id")
	f.engine.OpenWorkspace("first", "alice")
	_, err := f.engine.StageElement("Actor", "Ops", nil)
	require.NoError(t, err)
	_, err = f.engine.Commit(context.Background(), "alice")
	require.NoError(t, err)

	created, _ := f.shared.View().Element("id-2")

	f.engine.OpenWorkspace("second", "bob")
	_, err = f.engine.StageElementUpdate("id-2", model.Attributes{"name": "Platform Ops"})
	require.NoError(t, err)

	result, err := f.engine.Commit(context.Background(), "bob")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Updated)
	assert.Zero(t, result.Added)

	updated, _ := f.shared.View().Element("id-2")
	assert.Equal(t, "Platform Ops", updated.Name())
	assert.Equal(t, created.CreatedAt, updated.CreatedAt, "creation stamps are immutable")
	assert.Equal(t, "alice", updated.CreatedBy)
	assert.Equal(t, "bob", updated.ModifiedBy)
	assert.True(t, updated.ModifiedAt.After(updated.CreatedAt))
}

func TestCommitSkipsNoopUpdates(t *testing.T) {
	initial := repo.New()
	initial.PutElement(model.Element{ID: "actor", Type: "Actor", Attributes: model.Attributes{"name": "Ops"}})

	f := newFixture(t, initial, "id")
	f.engine.OpenWorkspace("sketch", "alice")

	// Same content staged again: no diff, no stamps touched.
	_, err := f.engine.StageElementUpdate("actor", model.Attributes{"name": "Ops"})
	require.NoError(t, err)

	result, err := f.engine.Commit(context.Background(), "alice")
	require.NoError(t, err)
	assert.Empty(t, result.Changes)
	assert.Zero(t, result.Added+result.Updated+result.Removed)
	assert.Empty(t, f.recorder.Events())

	kept, _ := f.shared.View().Element("actor")
	assert.True(t, kept.ModifiedAt.IsZero())
}

func TestCommitCascadesElementDeletion(t *testing.T) {
	initial := repo.New()
	initial.PutElement(model.Element{ID: "actor", Type: "Actor", Attributes: model.Attributes{"name": "Ops"}})
	initial.PutElement(model.Element{ID: "app", Type: "Application", Attributes: model.Attributes{"name": "Billing", "ownerId": "actor"}})
	require.NoError(t, initial.PutRelationship(model.Relationship{ID: "owns", FromID: "actor", ToID: "app", Type: "OWNS"}))

	f := newFixture(t, initial, "id")
	f.engine.OpenWorkspace("sketch", "alice")

	_, err := f.engine.StageElementDelete("app")
	require.NoError(t, err)

	result, err := f.engine.Commit(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Removed, "the touching relationship goes with the element")
	require.Len(t, result.Changes, 2)
	assert.Equal(t, bus.RelationshipDeleted, result.Changes[0].Kind)
	assert.Equal(t, "owns", result.Changes[0].RelationshipID)
	assert.Equal(t, bus.ElementDeleted, result.Changes[1].Kind)

	committed := f.shared.View()
	_, ok := committed.Element("app")
	assert.False(t, ok)
	_, ok = committed.Relationship("owns")
	assert.False(t, ok)
	_, ok = committed.Element("actor")
	assert.True(t, ok)
}

func TestCommitStagedThenDeletedNeverLands(t *testing.T) {
	f := newFixture(t, nil, "id")
	f.engine.OpenWorkspace("sketch", "alice")

	_, err := f.engine.StageElement("Actor", "Ops", nil)
	require.NoError(t, err)
	_, err = f.engine.StageElementDelete("id-2")
	require.NoError(t, err)

	result, err := f.engine.Commit(context.Background(), "alice")
	require.NoError(t, err)
	assert.Empty(t, result.Changes)
	assert.Equal(t, 0, f.shared.View().ElementCount())
}

func TestCommitExplicitRelationshipDeletion(t *testing.T) {
	initial := repo.New()
	initial.PutElement(model.Element{ID: "actor", Type: "Actor", Attributes: model.Attributes{"name": "Ops"}})
	initial.PutElement(model.Element{ID: "app", Type: "Application", Attributes: model.Attributes{"name": "Billing", "ownerId": "actor"}})
	require.NoError(t, initial.PutRelationship(model.Relationship{ID: "owns", FromID: "actor", ToID: "app", Type: "OWNS"}))

	f := newFixture(t, initial, "id")
	f.engine.OpenWorkspace("sketch", "alice")

	_, err := f.engine.StageRelationshipDelete("owns")
	require.NoError(t, err)

	result, err := f.engine.Commit(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Removed)

	_, ok := f.shared.View().Relationship("owns")
	assert.False(t, ok)
	_, ok = f.shared.View().Element("app")
	assert.True(t, ok, "only the relationship was deleted")
}

func TestCommitRestagedTripleAfterDeletion(t *testing.T) {
	initial := repo.New()
	initial.PutElement(model.Element{ID: "actor", Type: "Actor", Attributes: model.Attributes{"name": "Ops"}})
	initial.PutElement(model.Element{ID: "app", Type: "Application", Attributes: model.Attributes{"name": "Billing", "ownerId": "actor"}})
	require.NoError(t, initial.PutRelationship(model.Relationship{ID: "owns", FromID: "actor", ToID: "app", Type: "OWNS"}))

	f := newFixture(t, initial, "id")
	f.engine.OpenWorkspace("sketch", "alice")

	// Delete the committed edge and stage the same triple again; the
	// pending deletion frees it for both staging and commit.
	_, err := f.engine.StageElementUpdate("actor", model.Attributes{"name": "Ops Team"})
	require.NoError(t, err)
	_, err = f.engine.StageRelationshipDelete("owns")
	require.NoError(t, err)
	out, rec, err := f.engine.StageRelationship("actor", "app", "OWNS", nil)
	require.NoError(t, err)
	require.True(t, out.Valid)

	result, err := f.engine.Commit(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Added)
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, 1, result.Removed)

	committed := f.shared.View()
	_, ok := committed.Relationship("owns")
	assert.False(t, ok)
	restaged, ok := committed.Relationship(rec.Relationship.ID)
	require.True(t, ok)
	assert.Equal(t, "actor", restaged.FromID)
	assert.Equal(t, "app", restaged.ToID)
	assert.Equal(t, 1, committed.RelationshipCount(), "exactly one OWNS edge survives")
}

func TestCommitOnTerminalWorkspace(t *testing.T) {
	f := newFixture(t, nil, "id")
	f.engine.OpenWorkspace("sketch", "alice")
	_, err := f.engine.StageElement("Actor", "Ops", nil)
	require.NoError(t, err)
	_, err = f.engine.Commit(context.Background(), "alice")
	require.NoError(t, err)

	_, err = f.engine.Commit(context.Background(), "alice")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot commit")

	err = f.engine.Rebase()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot rebase")
}

func TestDiscardLeavesRepositoryUntouched(t *testing.T) {
	f := newFixture(t, nil, "id")
	f.engine.OpenWorkspace("sketch", "alice")
	_, err := f.engine.StageElement("Actor", "Ops", nil)
	require.NoError(t, err)

	require.NoError(t, f.engine.Discard(context.Background(), "alice"))

	assert.Equal(t, int64(1), f.shared.Version())
	assert.Equal(t, 0, f.shared.View().ElementCount())
	assert.Equal(t, workspace.StatusDiscarded, f.engine.Workspace().Status)
	assert.True(t, f.engine.Workspace().Ledger.Empty())

	entries := f.sink.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "discarded workspace id-1", entries[0].Action)

	// Discarded is terminal.
	err = f.engine.Discard(context.Background(), "alice")
	require.Error(t, err)
}
