// Package suggest implements the command that proposes column assignments for
// a statement file that has no saved mapping yet.
package suggest

import (
	"context"
	"fmt"
	"io"
	"strings"

	"fjacquet/colmap/cmd/common"
	"fjacquet/colmap/cmd/root"
	"fjacquet/colmap/internal/container"
	"fjacquet/colmap/internal/models"
	"fjacquet/colmap/internal/sniffer"
	"fjacquet/colmap/internal/validation"

	"github.com/spf13/cobra"
)

// placeholderBank is printed in the map hint when no --bank was given.
const placeholderBank = "BANK"

// Options holds the flags of the suggest command.
type Options struct {
	common.SchemaFlags
	FirstRow int
}

var opts = Options{}

// Cmd represents the suggest command
var Cmd = &cobra.Command{
	Use:   "suggest",
	Short: "Propose column assignments for a statement file",
	Long: `Inspect the header row and the first data rows of a statement file and
propose a field for each column. Nothing is saved: the command prints the map
invocation that stores the proposal, to be adjusted and run by hand.

Example:
  colmap suggest --file statement.csv --first-row 4 --bank mbank --format csv`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := root.GetContainer()
		if c == nil {
			return fmt.Errorf("application container not initialized")
		}
		_, err := Run(cmd.Context(), c, opts, cmd.OutOrStdout())
		return err
	},
}

func init() {
	Cmd.Flags().StringVarP(&opts.File, "file", "f", "", "Statement file (required)")
	Cmd.Flags().IntVar(&opts.FirstRow, "first-row", 2, "1-based row of the first transaction")
	Cmd.Flags().StringVar(&opts.Bank, "bank", "", "Bank name used in the printed map command")
	Cmd.Flags().StringVar(&opts.Format, "format", "", "Statement format name used in the printed map command")
}

// Run loads o.File and prints the suggested assignments with the reason for
// each one.
func Run(ctx context.Context, c *container.Container, o Options, w io.Writer) (sniffer.Suggestion, error) {
	if err := validation.IsValidStatementFile(o.File); err != nil {
		return sniffer.Suggestion{}, err
	}
	if o.FirstRow < 1 {
		return sniffer.Suggestion{}, fmt.Errorf("--first-row must be at least 1")
	}
	if err := ctx.Err(); err != nil {
		return sniffer.Suggestion{}, err
	}

	p, err := common.LoadStatement(c.GetLoader(), o.File, o.FirstRow, c.GetLogger())
	if err != nil {
		return sniffer.Suggestion{}, err
	}
	sug, err := c.GetSniffer().Suggest(p, o.FirstRow)
	if err != nil {
		return sug, fmt.Errorf("failed to suggest column mapping: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Suggested columns for %s (%d columns, transactions start at row %d):\n", o.File, p.TotalColumns, o.FirstRow)
	total := p.TotalColumns
	if len(p.DetectedHeaders) > total {
		total = len(p.DetectedHeaders)
	}
	for col := 0; col < total; col++ {
		name := "-"
		if field, ok := sug.Assignments[col]; ok {
			name = string(field)
		}
		line := fmt.Sprintf("  %3d  %-14s %-24s %s", col, name, common.HeaderLabel(p.DetectedHeaders, col), sug.Reasons[col])
		b.WriteString(strings.TrimRight(line, " "))
		b.WriteString("\n")
	}

	var missing []string
	for _, field := range models.RequiredFields {
		if !sug.Mapping.Has(field) {
			missing = append(missing, string(field))
		}
	}
	if len(missing) > 0 {
		fmt.Fprintf(&b, "\nNo column was found for: %s. Add them with --column before saving.\n", strings.Join(missing, ", "))
	}

	key := o.Key()
	if key.Bank == "" {
		key.Bank = placeholderBank
	}
	fmt.Fprintf(&b, "\nSave this mapping with:\n  %s\n", common.MapCommand(key, sug.Assignments, o.FirstRow))

	_, err = io.WriteString(w, b.String())
	return sug, err
}
