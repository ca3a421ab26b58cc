package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewOpenCommand creates the open command.
func NewOpenCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "open <name>",
		Short: "Open a new workspace on the current repository",
		Long: `Open a draft workspace bound to the current repository version.

Staged edits accumulate in the workspace until commit or discard. The
printed workspace ID is what staging commands take via --workspace.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOpen(rootOpts, args[0], cmd)
		},
	}
}

func runOpen(opts *RootOptions, name string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	ctx := cmd.Context()
	e, err := openEnv(ctx, opts)
	if err != nil {
		return err
	}
	defer e.Close()

	ws := e.eng.OpenWorkspace(name, opts.Actor)
	if err := e.saveAll(ctx); err != nil {
		return err
	}

	if opts.Format == "json" {
		return formatter.Success(ws)
	}
	return formatter.Success(fmt.Sprintf("opened workspace %s (%s) at repository version %d", ws.ID, ws.Name, ws.RepositoryVersion))
}
