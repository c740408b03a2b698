// Package resolve implements the command that resolves a saved column mapping
// against a statement file.
package resolve

import (
	"context"
	"fmt"
	"io"
	"strings"

	"fjacquet/colmap/cmd/common"
	"fjacquet/colmap/cmd/root"
	"fjacquet/colmap/internal/container"
	"fjacquet/colmap/internal/models"
	"fjacquet/colmap/internal/resolver"

	"github.com/spf13/cobra"
)

var flags = common.SchemaFlags{}

// Cmd represents the resolve command
var Cmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve the saved column mapping of a bank against a statement file",
	Long: `Resolve the saved column mapping of a bank against a statement file and print
the column each field is read from.

When the mapping cannot be resolved the command fails with an explanation of
every broken field and the steps to fix the saved mapping.

Example:
  colmap resolve --bank mbank --format csv --file statement.csv`,
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

// Run resolves the schema named by f against f.File and prints the result.
func Run(ctx context.Context, c *container.Container, f common.SchemaFlags, w io.Writer) (resolver.Resolution, error) {
	if err := f.Validate(true); err != nil {
		return resolver.Resolution{}, err
	}
	schema, err := common.LoadSchema(ctx, c.GetStore(), f.Key())
	if err != nil {
		return resolver.Resolution{}, err
	}
	if !schema.Enabled {
		return resolver.Resolution{}, fmt.Errorf("the saved column mapping for bank %s is disabled; save a new one with 'colmap map'", schema.Key())
	}
	p, err := common.LoadStatement(c.GetLoader(), f.File, schema.FirstTransactionRow, c.GetLogger())
	if err != nil {
		return resolver.Resolution{}, err
	}

	res, err := c.GetResolver().Resolve(schema, p)
	if err != nil {
		return res, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Resolved column mapping for bank %s (%s)\n", schema.Key(), schema.Name())
	fmt.Fprintf(&b, "Transactions start at row %d of %d\n", res.FirstTransactionRow, p.TotalRows)
	for _, field := range models.MappableFields {
		cols, ok := res.Columns[field]
		if !ok {
			continue
		}
		parts := make([]string, len(cols))
		for i, col := range cols {
			if label := common.HeaderLabel(p.DetectedHeaders, col); label != "" {
				parts[i] = fmt.Sprintf("%d (%s)", col, label)
			} else {
				parts[i] = fmt.Sprint(col)
			}
		}
		fmt.Fprintf(&b, "  %-14s %s\n", field, strings.Join(parts, ", "))
	}
	if len(res.Legacy) > 0 {
		b.WriteString("Some fields were matched by header name; run 'colmap review' to re-save them by index.\n")
	}
	_, err = io.WriteString(w, b.String())
	return res, err
}
