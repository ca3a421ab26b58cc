package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/atelier/internal/model"
	"github.com/roach88/atelier/internal/schema"
)

// SchemaReport is the JSON shape of the schema command output.
type SchemaReport struct {
	Profile       string               `json:"profile"`
	Elements      []SchemaElement      `json:"elements"`
	Relationships []SchemaRelationship `json:"relationships"`
	Rules         []SchemaRule         `json:"rules"`
}

type SchemaElement struct {
	Kind      model.ElementType `json:"kind"`
	Required  []string          `json:"required"`
	Lifecycle []string          `json:"lifecycle,omitempty"`
}

type SchemaRelationship struct {
	Kind     model.RelationshipType `json:"kind"`
	Pairs    []schema.Pair          `json:"pairs"`
	Required []string               `json:"required,omitempty"`
}

type SchemaRule struct {
	ID       string            `json:"id"`
	Kind     schema.RuleKind   `json:"kind"`
	Severity string            `json:"severity"`
	Element  model.ElementType `json:"element"`
	Message  string            `json:"message,omitempty"`
}

// NewSchemaCommand creates the schema command.
func NewSchemaCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Show the compiled governance profile",
		Long: `Print the element kinds, relationship kinds with their allowed
endpoint pairs, and governance rules of the active profile.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchema(rootOpts, cmd)
		},
	}
}

func runSchema(opts *RootOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	table, err := LoadProfile(opts.Profile)
	if err != nil {
		return err
	}

	report := SchemaReport{Profile: table.Name()}
	for _, kind := range table.ElementTypes() {
		report.Elements = append(report.Elements, SchemaElement{
			Kind:      kind,
			Required:  table.RequiredElementAttributes(kind),
			Lifecycle: table.LifecycleStates(kind),
		})
	}
	for _, kind := range table.RelationshipTypes() {
		report.Relationships = append(report.Relationships, SchemaRelationship{
			Kind:     kind,
			Pairs:    table.AllowedPairs(kind),
			Required: table.RequiredRelationshipAttributes(kind),
		})
	}
	for _, rule := range table.Rules() {
		report.Rules = append(report.Rules, SchemaRule{
			ID:       rule.ID,
			Kind:     rule.Kind,
			Severity: string(rule.Severity),
			Element:  rule.Element,
			Message:  rule.Message,
		})
	}

	return formatter.SuccessText(report, func(w io.Writer) {
		fmt.Fprintf(w, "profile %s\n", report.Profile)
		fmt.Fprintln(w, "elements:")
		for _, el := range report.Elements {
			fmt.Fprintf(w, "  %-14s required=%v", el.Kind, el.Required)
			if len(el.Lifecycle) > 0 {
				fmt.Fprintf(w, " lifecycle=%v", el.Lifecycle)
			}
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, "relationships:")
		for _, rel := range report.Relationships {
			fmt.Fprintf(w, "  %-14s", rel.Kind)
			for _, pair := range rel.Pairs {
				fmt.Fprintf(w, " %s->%s", pair.From, pair.To)
			}
			if len(rel.Required) > 0 {
				fmt.Fprintf(w, " required=%v", rel.Required)
			}
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, "rules:")
		for _, rule := range report.Rules {
			fmt.Fprintf(w, "  %-28s %-12s %-8s %s\n", rule.ID, rule.Kind, rule.Severity, rule.Element)
		}
	})
}
