// Package review implements the command that shows how a saved column mapping
// applies to a statement file, the pre-fill of the mapping wizard.
package review

import (
	"context"
	"fmt"
	"io"
	"strings"

	"fjacquet/colmap/cmd/common"
	"fjacquet/colmap/cmd/root"
	"fjacquet/colmap/internal/container"
	"fjacquet/colmap/internal/logging"
	"fjacquet/colmap/internal/mapping"

	"github.com/spf13/cobra"
)

var flags = common.SchemaFlags{}

// Cmd represents the review command
var Cmd = &cobra.Command{
	Use:   "review",
	Short: "Show the saved column mapping of a bank applied to a statement file",
	Long: `Load the saved column mapping of a bank and show, for each column of the
statement file, the field it is assigned to.

A mapping whose saved references are data values instead of column indices is
never applied, not even partially: the command lists what is wrong and prints
the steps to re-map the file.

Example:
  colmap review --bank mbank --format csv --file statement.csv`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := root.GetContainer()
		if c == nil {
			return fmt.Errorf("application container not initialized")
		}
		_, err := Run(cmd.Context(), c, flags, cmd.OutOrStdout())
		return err
	},
}

func init() {
	Cmd.Flags().StringVar(&flags.Bank, "bank", "", "Bank name (required)")
	Cmd.Flags().StringVar(&flags.Format, "format", "", "Statement format name")
	Cmd.Flags().StringVarP(&flags.File, "file", "f", "", "Statement file (required)")
}

// Run loads the saved schema for f and reviews it against f.File.
func Run(ctx context.Context, c *container.Container, f common.SchemaFlags, w io.Writer) (mapping.ReviewResult, error) {
	if err := f.Validate(true); err != nil {
		return mapping.ReviewResult{}, err
	}
	schema, err := common.LoadSchema(ctx, c.GetStore(), f.Key())
	if err != nil {
		return mapping.ReviewResult{}, err
	}
	p, err := common.LoadStatement(c.GetLoader(), f.File, schema.FirstTransactionRow, c.GetLogger())
	if err != nil {
		return mapping.ReviewResult{}, err
	}

	result := c.GetBuilder().LoadMappingForReview(schema, p.DetectedHeaders)

	var b strings.Builder
	fmt.Fprintf(&b, "Bank: %s (%s) [%s]\n", schema.Bank, schema.Name(), schema.State())
	if result.Corrupted {
		c.GetLogger().Warn("Saved column mapping is corrupted",
			logging.F(logging.FieldBank, schema.Bank),
			logging.F(logging.FieldFormat, schema.Format),
			logging.F(logging.FieldReason, result.Report.String()))

		b.WriteString("The saved column mapping cannot be used: it contains data values instead of column indices.\n")
		for _, issue := range result.Report {
			fmt.Fprintf(&b, "  - %s: %q (%s)\n", issue.Field, issue.Value, issue.Reason.Describe())
		}
		b.WriteString("Re-map the columns of this file by index, for example:\n")
		fmt.Fprintf(&b, "  colmap suggest --file %s --first-row %d\n", f.File, schema.FirstTransactionRow)
		_, err := io.WriteString(w, b.String())
		return result, err
	}

	fmt.Fprintf(&b, "First transaction row: %d\n", schema.FirstTransactionRow)
	if schema.DateFormat != "" {
		fmt.Fprintf(&b, "Date format: %s\n", schema.DateFormat)
	}
	if schema.Currency != "" {
		fmt.Fprintf(&b, "Currency: %s\n", schema.Currency)
	}
	fmt.Fprintf(&b, "Positive amounts are: %s\n", schema.AmountPositiveIs)
	b.WriteString("Columns:\n")
	if _, err := io.WriteString(w, b.String()); err != nil {
		return result, err
	}
	if err := common.WriteAssignments(w, result.Assignments, p.DetectedHeaders, p.TotalColumns); err != nil {
		return result, err
	}

	if len(result.Legacy) > 0 {
		names := make([]string, len(result.Legacy))
		for i, field := range result.Legacy {
			names[i] = string(field)
		}
		_, err = fmt.Fprintf(w, "\nThese fields were matched by header name: %s.\nSave the mapping again to store column indices:\n  %s\n",
			strings.Join(names, ", "), common.MapCommand(schema.Key(), result.Assignments, schema.FirstTransactionRow))
	}
	return result, err
}
