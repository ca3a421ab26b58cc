package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
)

// NewAuditCommand creates the audit command.
func NewAuditCommand(rootOpts *RootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:           "audit",
		Short:         "Show the repository audit log",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAudit(rootOpts, limit, cmd)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum entries to show (0 = all)")
	return cmd
}

func runAudit(opts *RootOptions, limit int, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	ctx := cmd.Context()
	e, err := openEnv(ctx, opts)
	if err != nil {
		return err
	}
	defer e.Close()

	entries, err := e.store.AuditEntries(ctx, repositoryID, limit)
	if err != nil {
		return WrapExitError(ExitCommandError, "reading audit log", err)
	}

	return formatter.SuccessText(entries, func(w io.Writer) {
		if len(entries) == 0 {
			fmt.Fprintln(w, "no audit entries")
			return
		}
		for _, entry := range entries {
			fmt.Fprintf(w, "%s  %-12s %s\n",
				entry.Timestamp.UTC().Format(time.RFC3339), entry.Actor, entry.Action)
		}
	})
}
