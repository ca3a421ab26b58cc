package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/atelier/internal/model"
)

// parseAttrs converts repeated --attr key=value flags into an attribute map.
func parseAttrs(pairs []string) (model.Attributes, error) {
	attrs := model.Attributes{}
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, NewExitError(ExitCommandError, fmt.Sprintf("invalid attribute %q: expected key=value", pair))
		}
		attrs[key] = value
	}
	return attrs, nil
}

// NewStageElementCommand creates the stage-element command.
func NewStageElementCommand(rootOpts *RootOptions) *cobra.Command {
	var attrFlags []string

	cmd := &cobra.Command{
		Use:           "stage-element <kind> <name>",
		Short:         "Stage a new element in the workspace",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStageElement(rootOpts, args[0], args[1], attrFlags, cmd)
		},
	}
	cmd.Flags().StringArrayVar(&attrFlags, "attr", nil, "attribute key=value (repeatable)")
	return cmd
}

func runStageElement(opts *RootOptions, kind, name string, attrFlags []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)
	attrs, err := parseAttrs(attrFlags)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	e, err := openEnv(ctx, opts)
	if err != nil {
		return err
	}
	defer e.Close()
	if err := e.attach(ctx); err != nil {
		return err
	}

	rec, err := e.eng.StageElement(model.ElementType(kind), name, attrs)
	if err != nil {
		return WrapExitError(ExitCommandError, "staging element", err)
	}
	if err := e.saveAll(ctx); err != nil {
		return err
	}

	if opts.Format == "json" {
		return formatter.Success(rec)
	}
	return formatter.Success(fmt.Sprintf("staged %s %q as %s", kind, name, rec.Element.ID))
}

// NewStageUpdateCommand creates the stage-update command.
func NewStageUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	var attrFlags []string

	cmd := &cobra.Command{
		Use:           "stage-update <element-id>",
		Short:         "Stage attribute changes for an element",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStageUpdate(rootOpts, args[0], attrFlags, cmd)
		},
	}
	cmd.Flags().StringArrayVar(&attrFlags, "attr", nil, "attribute key=value (repeatable)")
	return cmd
}

func runStageUpdate(opts *RootOptions, id string, attrFlags []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)
	attrs, err := parseAttrs(attrFlags)
	if err != nil {
		return err
	}
	if len(attrs) == 0 {
		return NewExitError(ExitCommandError, "nothing to update: pass at least one --attr")
	}

	ctx := cmd.Context()
	e, err := openEnv(ctx, opts)
	if err != nil {
		return err
	}
	defer e.Close()
	if err := e.attach(ctx); err != nil {
		return err
	}

	rec, err := e.eng.StageElementUpdate(id, attrs)
	if err != nil {
		return WrapExitError(ExitCommandError, "staging update", err)
	}
	if err := e.saveAll(ctx); err != nil {
		return err
	}

	if opts.Format == "json" {
		return formatter.Success(rec)
	}
	return formatter.Success(fmt.Sprintf("staged update for %s", id))
}

// NewStageDeleteCommand creates the stage-delete command.
func NewStageDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stage-delete <element-id>",
		Short: "Stage the deletion of an element",
		Long: `Mark an element pending-delete in the workspace ledger.

The deletion stays inspectable until commit; relationships touching the
element are cascade-deleted when the workspace commits.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStageDelete(rootOpts, args[0], cmd)
		},
	}
}

func runStageDelete(opts *RootOptions, id string, cmd *cobra.Command) error {
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

	rec, err := e.eng.StageElementDelete(id)
	if err != nil {
		return WrapExitError(ExitCommandError, "staging delete", err)
	}
	if err := e.saveAll(ctx); err != nil {
		return err
	}

	if opts.Format == "json" {
		return formatter.Success(rec)
	}
	return formatter.Success(fmt.Sprintf("staged delete of %s", id))
}

// NewStageRelationshipCommand creates the stage-relationship command.
func NewStageRelationshipCommand(rootOpts *RootOptions) *cobra.Command {
	var attrFlags []string

	cmd := &cobra.Command{
		Use:   "stage-relationship <from-id> <to-id> <kind>",
		Short: "Validate and stage a relationship",
		Long: `Validate a relationship against the profile and stage it.

A rejected relationship is reported with its failure code and exits
non-zero; nothing enters the ledger.`,
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStageRelationship(rootOpts, args[0], args[1], args[2], attrFlags, cmd)
		},
	}
	cmd.Flags().StringArrayVar(&attrFlags, "attr", nil, "attribute key=value (repeatable)")
	return cmd
}

func runStageRelationship(opts *RootOptions, fromID, toID, kind string, attrFlags []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)
	attrs, err := parseAttrs(attrFlags)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	e, err := openEnv(ctx, opts)
	if err != nil {
		return err
	}
	defer e.Close()
	if err := e.attach(ctx); err != nil {
		return err
	}

	out, rec, err := e.eng.StageRelationship(fromID, toID, model.RelationshipType(kind), attrs)
	if err != nil {
		return WrapExitError(ExitCommandError, "staging relationship", err)
	}
	if !out.Valid {
		formatter.Error(ErrCodeInvalidStage, out.Message, map[string]any{"code": out.Code})
		return NewExitError(ExitFailure, fmt.Sprintf("relationship rejected: %s", out.Code))
	}
	if err := e.saveAll(ctx); err != nil {
		return err
	}

	if opts.Format == "json" {
		return formatter.Success(rec)
	}
	return formatter.Success(fmt.Sprintf("staged %s %s -> %s as %s", kind, fromID, toID, rec.Relationship.ID))
}

// NewStageRelationshipDeleteCommand creates the stage-relationship-delete command.
func NewStageRelationshipDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "stage-relationship-delete <relationship-id>",
		Short:         "Stage the deletion of a relationship",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStageRelationshipDelete(rootOpts, args[0], cmd)
		},
	}
}

func runStageRelationshipDelete(opts *RootOptions, id string, cmd *cobra.Command) error {
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

	rec, err := e.eng.StageRelationshipDelete(id)
	if err != nil {
		return WrapExitError(ExitCommandError, "staging relationship delete", err)
	}
	if err := e.saveAll(ctx); err != nil {
		return err
	}

	if opts.Format == "json" {
		return formatter.Success(rec)
	}
	return formatter.Success(fmt.Sprintf("staged delete of relationship %s", id))
}

// newFormatter builds the standard formatter for a command.
func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}
