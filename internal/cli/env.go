package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/atelier/internal/engine"
	"github.com/roach88/atelier/internal/repo"
	"github.com/roach88/atelier/internal/schema"
	"github.com/roach88/atelier/internal/store"
)

// repositoryID keys the single shared repository in the state database.
const repositoryID = "main"

// env wires the persistent store, the compiled profile and the engine for
// one command invocation. Commands mutate through the engine and call
// saveAll before closing.
type env struct {
	opts   *RootOptions
	store  *store.Store
	shared *repo.Shared
	table  *schema.Table
	eng    *engine.Engine
}

// openEnv loads the state database and repository. The repository must
// exist; run init first.
func openEnv(ctx context.Context, opts *RootOptions) (*env, error) {
	st, err := store.Open(opts.StatePath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "opening state database", err)
	}

	table, err := LoadProfile(opts.Profile)
	if err != nil {
		st.Close()
		return nil, err
	}

	shared, err := st.LoadRepository(ctx, repositoryID)
	if err != nil {
		st.Close()
		if errors.Is(err, store.ErrNotFound) {
			return nil, NewExitError(ExitCommandError, "repository not initialized: run 'atelier init' first")
		}
		return nil, WrapExitError(ExitCommandError, "loading repository", err)
	}

	e := &env{opts: opts, store: st, shared: shared, table: table}
	e.eng = engine.New(shared, table,
		engine.WithAuditSink(store.NewAuditSink(st)),
	)
	return e, nil
}

// attach loads the workspace named by --workspace and binds it to the
// engine. Staging, validate, resolve, commit and discard all require it.
func (e *env) attach(ctx context.Context) error {
	if e.opts.Workspace == "" {
		return NewExitError(ExitCommandError, "no workspace selected: pass --workspace (see 'atelier open')")
	}
	ws, err := e.store.LoadWorkspace(ctx, e.opts.Workspace)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return NewExitError(ExitCommandError, fmt.Sprintf("workspace %s not found", e.opts.Workspace))
		}
		return WrapExitError(ExitCommandError, "loading workspace", err)
	}
	e.eng.AttachWorkspace(ws)
	return nil
}

// saveAll persists the repository and, when bound, the workspace.
func (e *env) saveAll(ctx context.Context) error {
	if err := e.store.SaveRepository(ctx, e.shared); err != nil {
		return WrapExitError(ExitCommandError, "saving repository", err)
	}
	if ws := e.eng.Workspace(); ws != nil {
		if err := e.store.SaveWorkspace(ctx, ws); err != nil {
			return WrapExitError(ExitCommandError, "saving workspace", err)
		}
	}
	return nil
}

func (e *env) Close() error {
	return e.store.Close()
}
