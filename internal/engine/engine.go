package engine

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/atelier/internal/audit"
	"github.com/roach88/atelier/internal/bus"
	"github.com/roach88/atelier/internal/model"
	"github.com/roach88/atelier/internal/repo"
	"github.com/roach88/atelier/internal/resolve"
	"github.com/roach88/atelier/internal/schema"
	"github.com/roach88/atelier/internal/validate"
	"github.com/roach88/atelier/internal/workspace"
)

// Clock abstracts wall-clock time for bookkeeping stamps.
// Implemented by SystemClock (production) and testutil.FixedClock (tests).
type Clock interface {
	Now() time.Time
}

// SystemClock reads the real time in UTC.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time { return time.Now().UTC() }

// Engine binds one workspace to the shared repository and the compiled
// profile. It is the single entry point for the presentation layer.
//
// The engine assumes a single editor per workspace; it is not safe for
// concurrent use. Cross-workspace safety comes from the repository's
// compare-and-swap, not from locking here.
type Engine struct {
	shared    *repo.Shared
	table     *schema.Table
	validator *validate.RelationshipValidator
	pipeline  *validate.Pipeline
	resolver  *resolve.Resolver
	ws        *workspace.Workspace

	notifier bus.Bus
	sink     audit.Sink
	ids      model.IDGenerator
	clock    Clock
}

// Option configures an Engine.
type Option func(*Engine)

// WithIDGenerator overrides the entity ID generator (default UUIDv7).
func WithIDGenerator(g model.IDGenerator) Option {
	return func(e *Engine) { e.ids = g }
}

// WithClock overrides the wall clock (default system UTC).
func WithClock(c Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithBus sets the change-notification bus (default: none, notifications
// dropped).
func WithBus(b bus.Bus) Option {
	return func(e *Engine) { e.notifier = b }
}

// WithAuditSink sets the audit sink (default: audit.Discard).
func WithAuditSink(s audit.Sink) Option {
	return func(e *Engine) { e.sink = s }
}

// New creates an engine over the shared repository and compiled profile.
// Attach or open a workspace before staging.
func New(shared *repo.Shared, table *schema.Table, opts ...Option) *Engine {
	validator := validate.NewRelationshipValidator(table)
	e := &Engine{
		shared:    shared,
		table:     table,
		validator: validator,
		pipeline:  validate.NewPipeline(table),
		resolver:  resolve.NewResolver(validator),
		sink:      audit.Discard{},
		ids:       model.UUIDv7Generator{},
		clock:     SystemClock{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// OpenWorkspace creates a fresh DRAFT workspace snapshotting the current
// repository state and binds it to the engine.
func (e *Engine) OpenWorkspace(name, actor string) *workspace.Workspace {
	now := e.clock.Now()
	ws := workspace.New(e.ids.Generate(), name, actor, now, e.shared.Version(), e.shared.UpdatedAt())
	e.ws = ws
	slog.Debug("workspace opened",
		"workspace", ws.ID,
		"name", name,
		"actor", actor,
		"repository_version", ws.RepositoryVersion,
	)
	return ws
}

// AttachWorkspace binds a previously persisted workspace to the engine.
func (e *Engine) AttachWorkspace(ws *workspace.Workspace) {
	e.ws = ws
}

// Workspace returns the bound workspace (nil if none).
func (e *Engine) Workspace() *workspace.Workspace { return e.ws }

// Table returns the compiled profile table.
func (e *Engine) Table() *schema.Table { return e.table }

// View returns the merged read view of the live repository and the bound
// workspace's ledger. The view is a snapshot accessor, not a copy; take a
// fresh one after any mutation.
func (e *Engine) View() *workspace.MergedView {
	var ledger *workspace.Ledger
	if e.ws != nil {
		ledger = e.ws.Ledger
	}
	return workspace.NewMergedView(e.shared.View(), ledger)
}

func (e *Engine) requireWorkspace() error {
	if e.ws == nil {
		return fmt.Errorf("no workspace bound to engine")
	}
	return nil
}

// StageElement stages a new element of the given kind. The kind is checked
// centrally against the profile; this is the only place a free-form type
// tag enters the ledger.
func (e *Engine) StageElement(typ model.ElementType, name string, attrs model.Attributes) (*workspace.StagedElement, error) {
	if err := e.requireWorkspace(); err != nil {
		return nil, err
	}
	if !e.table.KnownElementType(typ) {
		return nil, fmt.Errorf("unknown element kind %q", typ)
	}

	merged := attrs.Clone()
	merged[model.AttrName] = name
	el := model.Element{
		ID:         e.ids.Generate(),
		Type:       typ,
		Attributes: merged,
	}

	rec, err := e.ws.StageElement(el, e.clock.Now())
	if err != nil {
		return nil, err
	}
	slog.Debug("element staged",
		"workspace", e.ws.ID,
		"element_id", el.ID,
		"kind", typ,
		"name", name,
	)
	return rec, nil
}

// StageElementUpdate stages new attribute values for an existing element.
// Provided keys overwrite; other attributes are preserved.
func (e *Engine) StageElementUpdate(id string, attrs model.Attributes) (*workspace.StagedElement, error) {
	if err := e.requireWorkspace(); err != nil {
		return nil, err
	}
	current, ok := e.View().Element(id)
	if !ok {
		return nil, fmt.Errorf("element %s does not resolve", id)
	}

	updated := current.Clone()
	for k, v := range attrs {
		updated.Attributes[k] = v
	}

	rec, err := e.ws.StageElementUpdate(updated, e.clock.Now())
	if err != nil {
		return nil, err
	}
	slog.Debug("element update staged", "workspace", e.ws.ID, "element_id", id)
	return rec, nil
}

// StageElementDelete stages the deletion of an element. The deletion stays
// inspectable in the ledger until commit; relationships touching the
// element are cascade-deleted at commit time.
func (e *Engine) StageElementDelete(id string) (*workspace.StagedElement, error) {
	if err := e.requireWorkspace(); err != nil {
		return nil, err
	}
	current, ok := e.View().Element(id)
	if !ok {
		return nil, fmt.Errorf("element %s does not resolve", id)
	}

	rec, err := e.ws.StageElementDelete(current, e.clock.Now())
	if err != nil {
		return nil, err
	}
	slog.Debug("element delete staged", "workspace", e.ws.ID, "element_id", id)
	return rec, nil
}

// StageRelationship validates and stages a relationship. Validation
// failures come back as a data Outcome, never as an error: the caller
// decides whether to surface or ignore. The error return covers workspace
// state only (terminal workspace, no workspace).
func (e *Engine) StageRelationship(fromID, toID string, typ model.RelationshipType, attrs model.Attributes) (validate.Outcome, *workspace.StagedRelationship, error) {
	if err := e.requireWorkspace(); err != nil {
		return validate.Outcome{}, nil, err
	}

	out := e.validator.Validate(e.View(), fromID, toID, typ)
	if !out.Valid {
		slog.Debug("relationship rejected",
			"workspace", e.ws.ID,
			"from", fromID,
			"to", toID,
			"kind", typ,
			"code", out.Code,
		)
		return out, nil, nil
	}

	rel := model.Relationship{
		ID:         e.ids.Generate(),
		FromID:     fromID,
		ToID:       toID,
		Type:       typ,
		Attributes: attrs.Clone(),
	}
	rec, err := e.ws.StageRelationship(rel, e.clock.Now())
	if err != nil {
		return validate.Outcome{}, nil, err
	}
	slog.Debug("relationship staged",
		"workspace", e.ws.ID,
		"relationship_id", rel.ID,
		"from", fromID,
		"to", toID,
		"kind", typ,
	)
	return out, rec, nil
}

// StageRelationshipDelete stages the deletion of a relationship.
func (e *Engine) StageRelationshipDelete(id string) (*workspace.StagedRelationship, error) {
	if err := e.requireWorkspace(); err != nil {
		return nil, err
	}

	if rec := e.ws.Ledger.RelationshipRecord(id); rec != nil {
		return e.ws.StageRelationshipDelete(rec.Relationship, e.clock.Now())
	}
	current, ok := e.shared.View().Relationship(id)
	if !ok {
		return nil, fmt.Errorf("relationship %s does not resolve", id)
	}
	return e.ws.StageRelationshipDelete(current, e.clock.Now())
}

// Validate runs the validation pipeline over the bound ledger.
func (e *Engine) Validate(mode validate.Mode) []validate.Issue {
	return e.pipeline.Evaluate(e.View(), mode)
}

// BeginGesture computes the gesture-scoped resolution map for a source
// element. The caller owns the gesture and must End it when the gesture
// finishes; the engine keeps no reference.
func (e *Engine) BeginGesture(sourceID string) (*resolve.Gesture, error) {
	return e.resolver.BeginGesture(e.View(), sourceID)
}

// Rebase re-snapshots the repository version on the workspace after the
// caller re-validated its staged diff against the new repository state.
// This is the recompute path after a conflict; it is never automatic.
func (e *Engine) Rebase() error {
	if err := e.requireWorkspace(); err != nil {
		return err
	}
	if e.ws.Terminal() {
		return fmt.Errorf("workspace %s is %s; cannot rebase", e.ws.ID, e.ws.Status)
	}
	e.ws.RepositoryVersion = e.shared.Version()
	e.ws.RepositoryUpdatedAt = e.shared.UpdatedAt()
	e.ws.UpdatedAt = e.clock.Now()
	return nil
}
