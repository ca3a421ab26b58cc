package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/atelier/internal/validate"
)

// ValidationReport holds the pipeline result for output.
type ValidationReport struct {
	WorkspaceID string           `json:"workspaceId"`
	Mode        validate.Mode    `json:"mode"`
	Clean       bool             `json:"clean"`
	Blocking    bool             `json:"blocking"`
	Issues      []validate.Issue `json:"issues,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	var hard bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Run the validation pipeline over the workspace",
		Long: `Evaluate the staged ledger against the governance profile.

Soft mode (the default) demotes errors to warnings for work-in-progress
review. Hard mode reports what would block a commit; blocking issues
exit non-zero.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			mode := validate.ModeSoft
			if hard {
				mode = validate.ModeHard
			}
			return runValidate(rootOpts, mode, cmd)
		},
	}
	cmd.Flags().BoolVar(&hard, "hard", false, "evaluate in hard (commit-gate) mode")
	return cmd
}

func runValidate(opts *RootOptions, mode validate.Mode, cmd *cobra.Command) error {
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

	issues := e.eng.Validate(mode)
	report := ValidationReport{
		WorkspaceID: e.eng.Workspace().ID,
		Mode:        mode,
		Clean:       len(issues) == 0,
		Blocking:    validate.HasErrors(issues),
		Issues:      issues,
	}

	if err := formatter.SuccessText(report, func(w io.Writer) {
		printIssues(w, report)
	}); err != nil {
		return err
	}

	if report.Blocking {
		return NewExitError(ExitFailure, fmt.Sprintf("%d blocking issue(s)", countErrors(issues)))
	}
	return nil
}

func printIssues(w io.Writer, report ValidationReport) {
	if report.Clean {
		fmt.Fprintf(w, "workspace %s: clean (%s mode)\n", report.WorkspaceID, report.Mode)
		return
	}
	fmt.Fprintf(w, "workspace %s: %d issue(s) (%s mode)\n", report.WorkspaceID, len(report.Issues), report.Mode)
	for _, issue := range report.Issues {
		target := issue.ElementID
		if issue.RelationshipID != "" {
			target = issue.RelationshipID
		}
		fmt.Fprintf(w, "  %-7s %-28s %-24s %s\n", issue.Severity, issue.Code, target, issue.Message)
	}
}

func countErrors(issues []validate.Issue) int {
	n := 0
	for _, issue := range issues {
		if issue.Severity == validate.SeverityError {
			n++
		}
	}
	return n
}
