// Package mapcmd implements the command that saves a column mapping for a bank.
package mapcmd

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
	"fjacquet/colmap/internal/models"
	"fjacquet/colmap/internal/resolver"
	"fjacquet/colmap/internal/validation"

	"github.com/spf13/cobra"
)

// Options are the inputs of the map command.
type Options struct {
	common.SchemaFlags
	Columns          []string
	FirstRow         int
	DateFormat       string
	Currency         string
	AmountPositiveIs string
}

var opts = Options{}

// Cmd represents the map command
var Cmd = &cobra.Command{
	Use:   "map",
	Short: "Save the column mapping of a bank statement format",
	Long: `Save which column of a bank's statement feeds which transaction field.

Columns are given as zero-based indices. Every save replaces the previous
mapping of the bank and format and re-enables it. The mapping must cover the
date, amount and description fields; description may span several columns.

When --file is given the columns and the first transaction row are checked
against that statement before saving.

Example:
  colmap map --bank mbank --format csv --column 1=date --column 5=amount \
    --column 2=description --column 3=description --first-row 2 --date-format DD.MM.YYYY`,
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
	Cmd.Flags().StringVar(&opts.Format, "format", "", "Statement format name, e.g. csv or xlsx")
	Cmd.Flags().StringVarP(&opts.File, "file", "f", "", "Statement file to check the mapping against")
	Cmd.Flags().StringArrayVar(&opts.Columns, "column", nil, "Column assignment COLUMN=FIELD, repeatable (fields: "+fieldList()+")")
	Cmd.Flags().IntVar(&opts.FirstRow, "first-row", 2, "1-indexed row where transactions begin")
	Cmd.Flags().StringVar(&opts.DateFormat, "date-format", "", "Date format of the statement, e.g. DD.MM.YYYY or 2006-01-02")
	Cmd.Flags().StringVar(&opts.Currency, "currency", "", "Currency used when the statement has no currency column")
	Cmd.Flags().StringVar(&opts.AmountPositiveIs, "amount-positive-is", "credit", "What a positive amount means: credit or debit")
}

func fieldList() string {
	names := make([]string, 0, len(models.MappableFields)+1)
	for _, f := range models.MappableFields {
		names = append(names, string(f))
	}
	names = append(names, string(models.FieldDoNotUse))
	return strings.Join(names, ", ")
}

// ParseAssignments parses COLUMN=FIELD flags. A column may only be assigned once.
func ParseAssignments(columns []string) (mapping.Assignments, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("at least one --column assignment is required")
	}
	assignments := mapping.Assignments{}
	for _, s := range columns {
		col, field, err := validation.ParseColumnAssignment(s)
		if err != nil {
			return nil, err
		}
		if prev, ok := assignments[col]; ok {
			return nil, fmt.Errorf("column %d is assigned twice (%s and %s)", col, prev, field)
		}
		assignments[col] = field
	}
	return assignments, nil
}

// Run builds the mapping described by o and saves it.
func Run(ctx context.Context, c *container.Container, o Options, w io.Writer) (models.ParsingSchema, error) {
	if err := o.Validate(false); err != nil {
		return models.ParsingSchema{}, err
	}
	assignments, err := ParseAssignments(o.Columns)
	if err != nil {
		return models.ParsingSchema{}, err
	}
	sign, err := models.ParseAmountSign(o.AmountPositiveIs)
	if err != nil {
		return models.ParsingSchema{}, err
	}

	if o.File != "" {
		if err := checkAgainstFile(c, o, assignments); err != nil {
			return models.ParsingSchema{}, err
		}
	}

	m, err := c.GetBuilder().BuildFieldMapping(assignments)
	if err != nil {
		return models.ParsingSchema{}, err
	}
	var missing []string
	for _, field := range models.RequiredFields {
		if !m.Has(field) {
			missing = append(missing, string(field))
		}
	}
	if len(missing) > 0 {
		return models.ParsingSchema{}, fmt.Errorf("mapping is missing required fields: %s", strings.Join(missing, ", "))
	}

	key := o.Key()
	saved, err := c.GetStore().Save(ctx, models.ParsingSchema{
		Bank:                key.Bank,
		Format:              key.Format,
		ColumnMappings:      m,
		FirstTransactionRow: o.FirstRow,
		DateFormat:          o.DateFormat,
		Currency:            strings.ToUpper(strings.TrimSpace(o.Currency)),
		AmountPositiveIs:    sign,
	})
	if err != nil {
		return models.ParsingSchema{}, fmt.Errorf("failed to save column mapping: %w", err)
	}

	c.GetLogger().Info("Column mapping saved",
		logging.F(logging.FieldBank, saved.Bank),
		logging.F(logging.FieldFormat, saved.Format),
		logging.F(logging.FieldSchemaID, saved.ID))

	_, err = fmt.Fprintf(w, "Saved column mapping for bank %s (%s)\n%s\n", saved.Key(), saved.Name(), describe(saved.ColumnMappings))
	return saved, err
}

func checkAgainstFile(c *container.Container, o Options, assignments mapping.Assignments) error {
	p, err := common.LoadStatement(c.GetLoader(), o.File, o.FirstRow, c.GetLogger())
	if err != nil {
		return err
	}
	if err := resolver.ValidateFirstTransactionRow(o.FirstRow, p.TotalRows); err != nil {
		return err
	}
	for _, col := range assignments.Columns() {
		if col >= p.TotalColumns {
			return fmt.Errorf("column %d does not exist in %s (it has %d columns, 0 to %d)",
				col, o.File, p.TotalColumns, p.TotalColumns-1)
		}
	}
	return nil
}

func describe(m models.FieldMapping) string {
	var b strings.Builder
	for _, field := range m.Fields() {
		refs := m.Refs(field)
		parts := make([]string, len(refs))
		for i, r := range refs {
			parts[i] = string(r)
		}
		fmt.Fprintf(&b, "  %-14s %s\n", field, strings.Join(parts, ", "))
	}
	return strings.TrimRight(b.String(), "\n")
}
