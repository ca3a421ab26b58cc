// Package cli implements the atelier command-line interface.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose   bool
	Format    string // "json" | "text"
	StatePath string // SQLite database path
	Profile   string // CUE profile directory ("" = embedded default)
	Workspace string // workspace ID for staging commands
	Actor     string // actor recorded on commits and audit entries
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the atelier CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "atelier",
		Short: "Atelier - staged modeling workspace engine",
		Long:  "Atelier manages an enterprise architecture repository through staged workspaces: edits accumulate in a private ledger and land in the shared model as one validated, atomic commit.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			level := slog.LevelInfo
			if opts.Verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.StatePath, "state", "atelier.db", "path to the state database")
	cmd.PersistentFlags().StringVar(&opts.Profile, "profile", "", "directory of CUE profile files (default: embedded standard profile)")
	cmd.PersistentFlags().StringVarP(&opts.Workspace, "workspace", "w", "", "workspace ID for staging commands")
	cmd.PersistentFlags().StringVar(&opts.Actor, "actor", "local", "actor recorded on audit entries")

	cmd.AddCommand(NewInitCommand(opts))
	cmd.AddCommand(NewOpenCommand(opts))
	cmd.AddCommand(NewStageElementCommand(opts))
	cmd.AddCommand(NewStageUpdateCommand(opts))
	cmd.AddCommand(NewStageDeleteCommand(opts))
	cmd.AddCommand(NewStageRelationshipCommand(opts))
	cmd.AddCommand(NewStageRelationshipDeleteCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewResolveCommand(opts))
	cmd.AddCommand(NewCommitCommand(opts))
	cmd.AddCommand(NewDiscardCommand(opts))
	cmd.AddCommand(NewStatusCommand(opts))
	cmd.AddCommand(NewSchemaCommand(opts))
	cmd.AddCommand(NewAuditCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
