package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/atelier/internal/resolve"
)

// ResolutionReport holds a gesture's resolution map for output.
type ResolutionReport struct {
	SourceID    string               `json:"sourceId"`
	Resolutions []resolve.Resolution `json:"resolutions"`
}

// NewResolveCommand creates the resolve command.
func NewResolveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <source-id> [target-id...]",
		Short: "Compute connection options from a source element",
		Long: `Compute, for a drag gesture starting at the source element, which
targets it can connect to: direct relationship types, two-hop indirect
chains, and the recommended interaction for each target.

With no targets, every other visible element is reported.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(rootOpts, args[0], args[1:], cmd)
		},
	}
}

func runResolve(opts *RootOptions, sourceID string, targets []string, cmd *cobra.Command) error {
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

	gesture, err := e.eng.BeginGesture(sourceID)
	if err != nil {
		return WrapExitError(ExitCommandError, "resolving", err)
	}
	defer gesture.End()

	report := ResolutionReport{SourceID: sourceID}
	if len(targets) == 0 {
		report.Resolutions = gesture.Resolutions()
	} else {
		for _, target := range targets {
			res, ok := gesture.Resolution(target)
			if !ok {
				return NewExitError(ExitCommandError, fmt.Sprintf("target %s does not resolve", target))
			}
			report.Resolutions = append(report.Resolutions, res)
		}
	}

	return formatter.SuccessText(report, func(w io.Writer) {
		printResolutions(w, report)
	})
}

func printResolutions(w io.Writer, report ResolutionReport) {
	fmt.Fprintf(w, "source %s: %d target(s)\n", report.SourceID, len(report.Resolutions))
	for _, res := range report.Resolutions {
		fmt.Fprintf(w, "  %s: %s", res.TargetID, res.Recommendation)
		if len(res.DirectTypes) > 0 {
			fmt.Fprintf(w, " direct=%v", res.DirectTypes)
		}
		for _, path := range res.IndirectPaths {
			fmt.Fprintf(w, " via=%s(%s,%s)", path.Via, path.FirstHop, path.SecondHop)
		}
		fmt.Fprintln(w)
	}
}
