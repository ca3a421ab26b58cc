package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/atelier/internal/engine"
)

// NewCommitCommand creates the commit command.
func NewCommitCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "commit",
		Short: "Commit the workspace to the shared repository",
		Long: `Merge the staged ledger into the shared repository as one atomic
transaction.

Blocking validation issues abort the commit with nothing applied. A
repository that changed since the workspace opened aborts with a
conflict; re-validate and rebase before retrying.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCommit(rootOpts, cmd)
		},
	}
}

func runCommit(opts *RootOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	ctx := cmd.Context()
	e, err := openEnv(ctx, opts)
	if err != nil {
		return err
	}
	defer e.Close()
	if err := e.attach(ctx); err != nil {
		return err
	}

	result, err := e.eng.Commit(ctx, opts.Actor)
	if err != nil {
		var blocked *engine.BlockedError
		switch {
		case errors.As(err, &blocked):
			formatter.Error(ErrCodeBlocked, "commit blocked by validation errors", blocked.Issues)
			return NewExitError(ExitFailure, fmt.Sprintf("%d blocking issue(s)", len(blocked.Issues)))
		case engine.IsConflict(err):
			formatter.Error(ErrCodeConflict, err.Error(), nil)
			return NewExitError(ExitFailure, "repository changed since workspace opened")
		default:
			return WrapExitError(ExitCommandError, "committing", err)
		}
	}

	if err := e.saveAll(ctx); err != nil {
		return err
	}

	return formatter.SuccessText(result, func(w io.Writer) {
		fmt.Fprintf(w, "committed workspace %s: added=%d updated=%d removed=%d (repository version %d)\n",
			result.WorkspaceID, result.Added, result.Updated, result.Removed, result.RepositoryVersion)
		for _, ch := range result.Changes {
			fmt.Fprintf(w, "  %s\n", ch.Description)
		}
	})
}

// NewDiscardCommand creates the discard command.
func NewDiscardCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "discard",
		Short:         "Discard the workspace without touching the repository",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiscard(rootOpts, cmd)
		},
	}
}

func runDiscard(opts *RootOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	ctx := cmd.Context()
	e, err := openEnv(ctx, opts)
	if err != nil {
		return err
	}
	defer e.Close()
	if err := e.attach(ctx); err != nil {
		return err
	}

	if err := e.eng.Discard(ctx, opts.Actor); err != nil {
		return WrapExitError(ExitCommandError, "discarding", err)
	}
	if err := e.saveAll(ctx); err != nil {
		return err
	}
	return formatter.Success(fmt.Sprintf("discarded workspace %s", e.eng.Workspace().ID))
}
