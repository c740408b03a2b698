// Package importcmd implements the command that reads the transactions of a
// statement file through its bank's saved column mapping.
package importcmd

import (
	"context"
	"fmt"
	"io"
	"unicode/utf8"

	"fjacquet/colmap/cmd/common"
	"fjacquet/colmap/cmd/root"
	"fjacquet/colmap/internal/container"
	"fjacquet/colmap/internal/fileutils"
	"fjacquet/colmap/internal/logging"
	"fjacquet/colmap/internal/statement"

	"github.com/spf13/cobra"
)

// Options are the inputs of the import command.
type Options struct {
	common.SchemaFlags
	Output    string
	Delimiter string
}

var opts = Options{}

// Cmd represents the import command
var Cmd = &cobra.Command{
	Use:   "import",
	Short: "Read the transactions of a statement file through its saved column mapping",
	Long: `Resolve the saved column mapping of a bank against a statement file and write
its transactions as CSV.

Rows before the first transaction row are skipped. Rows that cannot be read
(bad date or amount) are skipped and reported; the rest are still written.

Example:
  colmap import --bank mbank --format csv --file statement.csv -o transactions.csv`,
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
	Cmd.Flags().StringVar(&opts.Bank, "bank", "", "Bank name (required)")
	Cmd.Flags().StringVar(&opts.Format, "format", "", "Statement format name")
	Cmd.Flags().StringVarP(&opts.File, "file", "f", "", "Statement file (required)")
	Cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "Output CSV file (default stdout)")
	Cmd.Flags().StringVar(&opts.Delimiter, "delimiter", ",", "Delimiter of the output CSV")
}

// Run imports the statement named by o. Transactions go to o.Output, or to w
// when no output file is given.
func Run(ctx context.Context, c *container.Container, o Options, w io.Writer) (statement.Result, error) {
	if err := o.Validate(true); err != nil {
		return statement.Result{}, err
	}
	delim, err := outputDelimiter(o.Delimiter)
	if err != nil {
		return statement.Result{}, err
	}

	schema, err := common.LoadSchema(ctx, c.GetStore(), o.Key())
	if err != nil {
		return statement.Result{}, err
	}
	if !schema.Enabled {
		return statement.Result{}, fmt.Errorf("the saved column mapping for bank %s is disabled; save a new one with 'colmap map'", schema.Key())
	}

	// Every row is needed here, not just a preview.
	p, err := common.LoadStatement(c.GetLoader().WithMaxRows(0), o.File, schema.FirstTransactionRow, c.GetLogger())
	if err != nil {
		return statement.Result{}, err
	}
	res, err := c.GetResolver().Resolve(schema, p)
	if err != nil {
		return statement.Result{}, err
	}

	result := c.GetParser().Parse(res, p.Rows)

	out := w
	if o.Output != "" {
		f, err := fileutils.CreateFile(o.Output)
		if err != nil {
			return result, err
		}
		defer func() {
			if err := f.Close(); err != nil {
				c.GetLogger().WithError(err).Warn("Failed to close output file")
			}
		}()
		out = f
	}
	if err := statement.WriteCSV(out, result.Transactions, delim); err != nil {
		return result, err
	}

	logger := c.GetLogger().WithFields(
		logging.F(logging.FieldBank, schema.Bank),
		logging.F(logging.FieldFormat, schema.Format))
	if o.Output != "" {
		logger.Info("Transactions written",
			logging.F(logging.FieldFile, o.Output),
			logging.F(logging.FieldCount, len(result.Transactions)))
		_, err = fmt.Fprintf(w, "Wrote %d transactions to %s (%d rows skipped)\n",
			len(result.Transactions), o.Output, len(result.Skipped))
	}
	return result, err
}

func outputDelimiter(s string) (rune, error) {
	if s == "" {
		return ',', nil
	}
	if utf8.RuneCountInString(s) != 1 {
		return 0, fmt.Errorf("--delimiter must be a single character, got %q", s)
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r, nil
}
