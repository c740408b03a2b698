// Package statement reads transactions out of statement rows through a
// resolved column mapping.
package statement

import (
	"fmt"
	"strings"

	"fjacquet/colmap/internal/currencyutils"
	"fjacquet/colmap/internal/dateutils"
	"fjacquet/colmap/internal/logging"
	"fjacquet/colmap/internal/models"
	"fjacquet/colmap/internal/parsererror"
	"fjacquet/colmap/internal/resolver"

	"github.com/shopspring/decimal"
)

const parserName = "statement"

// RowError is a row that could not be turned into a transaction.
type RowError struct {
	Row int
	Err error
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

func (e RowError) Unwrap() error { return e.Err }

// Result holds the parsed transactions and the rows that were skipped.
type Result struct {
	Transactions []models.Transaction
	Skipped      []RowError
}

// Parser turns statement rows into transactions.
type Parser struct {
	logger logging.Logger
}

// NewParser creates a Parser.
func NewParser(logger logging.Logger) *Parser {
	return &Parser{logger: logger.WithField(logging.FieldComponent, "statement")}
}

// Parse reads every row from res.FirstTransactionRow on. rows holds the whole
// file, 1-indexed rows mapping to rows[i-1]. Blank rows are ignored; rows
// that fail to parse are skipped and reported.
func (p *Parser) Parse(res resolver.Resolution, rows [][]string) Result {
	var out Result
	logger := p.logger.WithFields(
		logging.F(logging.FieldBank, res.Bank),
		logging.F(logging.FieldFormat, res.Format))

	start := res.FirstTransactionRow - 1
	if start < 0 {
		start = 0
	}
	for i := start; i < len(rows); i++ {
		if isBlank(rows[i]) {
			continue
		}
		tx, err := p.parseRow(res, rows[i])
		if err != nil {
			rowErr := RowError{Row: i + 1, Err: err}
			logger.WithError(err).Warn("Skipping statement row", logging.F(logging.FieldRow, i+1))
			out.Skipped = append(out.Skipped, rowErr)
			continue
		}
		tx.Row = i + 1
		out.Transactions = append(out.Transactions, tx)
	}

	logger.Info("Parsed statement rows",
		logging.F(logging.FieldCount, len(out.Transactions)),
		logging.F("skipped", len(out.Skipped)))
	return out
}

func (p *Parser) parseRow(res resolver.Resolution, row []string) (models.Transaction, error) {
	var tx models.Transaction

	dateCell := cell(row, res.Columns, models.FieldDate)
	date, err := dateutils.ParseWithFormat(dateCell, res.DateFormat)
	if err != nil {
		return tx, &parsererror.ParseError{Parser: parserName, Field: string(models.FieldDate), Value: dateCell, Err: err}
	}
	tx.Date = date

	tx.Amount, err = amount(res, row)
	if err != nil {
		return tx, err
	}

	if balanceCell := cell(row, res.Columns, models.FieldBalance); balanceCell != "" {
		balance, err := currencyutils.ParseAmount(balanceCell)
		if err != nil {
			return tx, &parsererror.ParseError{Parser: parserName, Field: string(models.FieldBalance), Value: balanceCell, Err: err}
		}
		tx.Balance = decimal.NewNullDecimal(balance)
	}

	tx.Description = description(row, res.Columns[models.FieldDescription])
	tx.VendorPayee = cell(row, res.Columns, models.FieldVendorPayee)
	tx.Category = cell(row, res.Columns, models.FieldCategory)
	tx.Currency = cell(row, res.Columns, models.FieldCurrency)
	if tx.Currency == "" {
		tx.Currency = res.Currency
	}
	return tx, nil
}

// amount reads the signed amount, positive meaning money in. An empty amount
// cell falls back to the inflow and outflow columns when they are mapped.
func amount(res resolver.Resolution, row []string) (decimal.Decimal, error) {
	amountCell := cell(row, res.Columns, models.FieldAmount)
	if amountCell == "" {
		inflow, inErr := optionalAmount(row, res.Columns, models.FieldInflow)
		outflow, outErr := optionalAmount(row, res.Columns, models.FieldOutflow)
		if inErr != nil {
			return decimal.Zero, inErr
		}
		if outErr != nil {
			return decimal.Zero, outErr
		}
		if inflow.IsZero() && outflow.IsZero() {
			return decimal.Zero, &parsererror.ParseError{
				Parser: parserName, Field: string(models.FieldAmount), Err: fmt.Errorf("amount is empty"),
			}
		}
		return inflow.Abs().Sub(outflow.Abs()), nil
	}

	value, err := currencyutils.ParseAmount(amountCell)
	if err != nil {
		return decimal.Zero, &parsererror.ParseError{Parser: parserName, Field: string(models.FieldAmount), Value: amountCell, Err: err}
	}
	if res.AmountPositiveIs == models.AmountPositiveIsDebit {
		value = value.Neg()
	}
	return value, nil
}

func optionalAmount(row []string, cols resolver.Columns, field models.FieldName) (decimal.Decimal, error) {
	c := cell(row, cols, field)
	if c == "" {
		return decimal.Zero, nil
	}
	v, err := currencyutils.ParseAmount(c)
	if err != nil {
		return decimal.Zero, &parsererror.ParseError{Parser: parserName, Field: string(field), Value: c, Err: err}
	}
	return v, nil
}

func cell(row []string, cols resolver.Columns, field models.FieldName) string {
	idx, ok := cols.First(field)
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func description(row []string, cols []int) string {
	parts := make([]string, 0, len(cols))
	for _, idx := range cols {
		if idx < len(row) {
			if v := strings.TrimSpace(row[idx]); v != "" {
				parts = append(parts, v)
			}
		}
	}
	return strings.Join(parts, " ")
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
