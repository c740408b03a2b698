// Package resolver turns a saved parsing schema into the concrete column
// positions a statement row parser reads.
package resolver

import (
	"fmt"

	"fjacquet/colmap/internal/columnref"
	"fjacquet/colmap/internal/logging"
	"fjacquet/colmap/internal/mapping"
	"fjacquet/colmap/internal/models"
	"fjacquet/colmap/internal/parsererror"
)

// Columns maps each resolved field to its zero-based column indices. Only
// description may hold more than one.
type Columns map[models.FieldName][]int

// First returns the single column of field.
func (c Columns) First(field models.FieldName) (int, bool) {
	cols := c[field]
	if len(cols) == 0 {
		return 0, false
	}
	return cols[0], true
}

// Resolution is everything the row parser needs from a schema.
type Resolution struct {
	Bank                string
	Format              string
	Columns             Columns
	FirstTransactionRow int
	DateFormat          string
	Currency            string
	AmountPositiveIs    models.AmountSign
	// Legacy lists fields that were resolved by header name.
	Legacy []models.FieldName
}

// Resolver resolves saved schemas against statement previews.
type Resolver struct {
	policy columnref.Policy
	logger logging.Logger
}

// NewResolver creates a Resolver validating references with policy.
func NewResolver(policy columnref.Policy, logger logging.Logger) *Resolver {
	return &Resolver{
		policy: policy,
		logger: logger.WithField(logging.FieldComponent, "resolver"),
	}
}

// ResolveColumns resolves every mapped field of schema. totalColumns bounds
// index references; zero means len(detectedHeaders), and a file with no
// detected columns resolves no index. Every broken field is
// collected before failing, and a required field with no mapping fails too.
func (r *Resolver) ResolveColumns(schema models.ParsingSchema, detectedHeaders []string, totalColumns int) (Columns, error) {
	cols, _, err := r.resolveColumns(schema, detectedHeaders, totalColumns)
	return cols, err
}

func (r *Resolver) resolveColumns(schema models.ParsingSchema, headers []string, totalColumns int) (Columns, []models.FieldName, error) {
	if totalColumns <= 0 {
		totalColumns = len(headers)
	}
	logger := r.logger.WithFields(
		logging.F(logging.FieldBank, schema.Bank),
		logging.F(logging.FieldFormat, schema.Format))

	var failures []parsererror.FieldResolutionFailure
	if schema.DecodeError != "" {
		failures = append(failures, parsererror.FieldResolutionFailure{
			Field:  models.FieldColumnMappings,
			Value:  schema.RawMappings,
			Reason: models.ReasonNotNumeric,
		})
	}

	columns := Columns{}
	var legacy []models.FieldName
	for _, field := range schema.ColumnMappings.Fields() {
		refs := schema.ColumnMappings.Refs(field)
		if len(refs) == 0 {
			failures = append(failures, parsererror.FieldResolutionFailure{Field: field, Reason: models.ReasonNotNumeric})
			continue
		}

		var resolved []int
		fieldFailed := false
		for _, ref := range refs {
			idx, isLegacy, failure := r.resolveRef(field, ref, headers, totalColumns)
			if failure != nil {
				failures = append(failures, *failure)
				fieldFailed = true
				continue
			}
			if isLegacy {
				logger.Warn("Resolved column by legacy header name",
					logging.F(logging.FieldField, field),
					logging.F(logging.FieldValue, string(ref)),
					logging.F(logging.FieldColumn, idx))
				if len(legacy) == 0 || legacy[len(legacy)-1] != field {
					legacy = append(legacy, field)
				}
			}
			resolved = append(resolved, idx)
		}
		if !fieldFailed {
			columns[field] = resolved
		}
	}

	var missing []models.FieldName
	for _, field := range models.RequiredFields {
		if !schema.ColumnMappings.Has(field) {
			missing = append(missing, field)
		}
	}

	if len(failures) > 0 || len(missing) > 0 {
		err := &parsererror.ColumnResolutionError{
			Bank:             schema.Bank,
			Format:           schema.Format,
			Failures:         failures,
			MissingRequired:  missing,
			AvailableColumns: availableColumns(totalColumns),
		}
		logger.Warn("Column mapping could not be resolved",
			logging.F(logging.FieldCount, len(failures)+len(missing)))
		return nil, nil, err
	}
	return columns, legacy, nil
}

func (r *Resolver) resolveRef(field models.FieldName, ref models.ColumnRef, headers []string, totalColumns int) (int, bool, *parsererror.FieldResolutionFailure) {
	if idx, ok := r.policy.Index(ref); ok {
		if idx >= totalColumns {
			return 0, false, &parsererror.FieldResolutionFailure{Field: field, Value: string(ref), Reason: models.ReasonOutOfRange}
		}
		return idx, false, nil
	}
	if idx, ok := mapping.LookupLegacyHeader(headers, string(ref)); ok {
		return idx, true, nil
	}
	return 0, false, &parsererror.FieldResolutionFailure{
		Field:  field,
		Value:  string(ref),
		Reason: mapping.UnresolvedReason(r.policy, string(ref)),
	}
}

// Resolve validates first_transaction_row against the preview and resolves
// the schema's columns.
func (r *Resolver) Resolve(schema models.ParsingSchema, preview models.Preview) (Resolution, error) {
	if err := ValidateFirstTransactionRow(schema.FirstTransactionRow, preview.TotalRows); err != nil {
		return Resolution{}, err
	}

	cols, legacy, err := r.resolveColumns(schema, preview.DetectedHeaders, preview.TotalColumns)
	if err != nil {
		return Resolution{}, err
	}

	r.logger.Debug("Resolved column mapping",
		logging.F(logging.FieldBank, schema.Bank),
		logging.F(logging.FieldFormat, schema.Format),
		logging.F(logging.FieldCount, len(cols)))

	return Resolution{
		Bank:                schema.Bank,
		Format:              schema.Format,
		Columns:             cols,
		FirstTransactionRow: schema.FirstTransactionRow,
		DateFormat:          schema.DateFormat,
		Currency:            schema.Currency,
		AmountPositiveIs:    schema.AmountPositiveIs,
		Legacy:              legacy,
	}, nil
}

// ValidateFirstTransactionRow checks that row is a 1-indexed row within a file
// of totalRows rows.
func ValidateFirstTransactionRow(row, totalRows int) error {
	if row < 1 {
		return &parsererror.ValidationError{
			Subject: "first_transaction_row",
			Reason:  fmt.Sprintf("must be at least 1, got %d", row),
		}
	}
	if row > totalRows {
		return &parsererror.ValidationError{
			Subject: "first_transaction_row",
			Reason:  fmt.Sprintf("row %d is past the end of the file (%d rows)", row, totalRows),
		}
	}
	return nil
}

func availableColumns(n int) []int {
	cols := make([]int, n)
	for i := range cols {
		cols[i] = i
	}
	return cols
}
