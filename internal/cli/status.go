package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/atelier/internal/store"
)

// StatusReport holds repository and workspace state for output.
type StatusReport struct {
	RepositoryID      string                   `json:"repositoryId"`
	RepositoryVersion int64                    `json:"repositoryVersion"`
	Elements          int                      `json:"elements"`
	Relationships     int                      `json:"relationships"`
	UpdatedAt         time.Time                `json:"updatedAt"`
	Workspaces        []store.WorkspaceSummary `json:"workspaces,omitempty"`
}

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "status",
		Short:         "Show repository version and saved workspaces",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(rootOpts, cmd)
		},
	}
}

func runStatus(opts *RootOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	ctx := cmd.Context()
	e, err := openEnv(ctx, opts)
	if err != nil {
		return err
	}
	defer e.Close()

	view := e.shared.View()
	workspaces, err := e.store.ListWorkspaces(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "listing workspaces", err)
	}

	report := StatusReport{
		RepositoryID:      e.shared.ID(),
		RepositoryVersion: e.shared.Version(),
		Elements:          view.ElementCount(),
		Relationships:     view.RelationshipCount(),
		UpdatedAt:         e.shared.UpdatedAt(),
		Workspaces:        workspaces,
	}

	return formatter.SuccessText(report, func(w io.Writer) {
		fmt.Fprintf(w, "repository %s: version %d, %d element(s), %d relationship(s)\n",
			report.RepositoryID, report.RepositoryVersion, report.Elements, report.Relationships)
		if len(report.Workspaces) == 0 {
			fmt.Fprintln(w, "no workspaces")
			return
		}
		for _, ws := range report.Workspaces {
			fmt.Fprintf(w, "  %s  %-10s %s\n", ws.ID, ws.Status, ws.Name)
		}
	})
}
