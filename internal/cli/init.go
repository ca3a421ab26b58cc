package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/atelier/internal/repo"
	"github.com/roach88/atelier/internal/store"
)

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize the state database and an empty repository",
		Long: `Create the state database and an empty shared repository.

Safe to run against an existing database: an already initialized
repository is left untouched.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(rootOpts, cmd)
		},
	}
}

func runInit(opts *RootOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	st, err := store.Open(opts.StatePath)
	if err != nil {
		return WrapExitError(ExitCommandError, "opening state database", err)
	}
	defer st.Close()

	ctx := cmd.Context()
	if _, err := st.LoadRepository(ctx, repositoryID); err == nil {
		return formatter.Success(fmt.Sprintf("repository %s already initialized in %s", repositoryID, opts.StatePath))
	} else if !errors.Is(err, store.ErrNotFound) {
		return WrapExitError(ExitCommandError, "checking repository", err)
	}

	shared := repo.NewShared(repositoryID, repo.New(), time.Now().UTC())
	if err := st.SaveRepository(ctx, shared); err != nil {
		return WrapExitError(ExitCommandError, "saving repository", err)
	}
	return formatter.Success(fmt.Sprintf("initialized empty repository %s in %s", repositoryID, opts.StatePath))
}
