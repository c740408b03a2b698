package resolver

import (
	"encoding/json"
	"errors"
	"testing"

	"fjacquet/colmap/internal/columnref"
	"fjacquet/colmap/internal/logging"
	"fjacquet/colmap/internal/models"
	"fjacquet/colmap/internal/parsererror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var nineHeaders = []string{"Lp", "Data operacji", "Opis", "Tytuł", "Nadawca", "Kwota", "Saldo", "Waluta", "Kategoria"}

func newTestResolver() (*Resolver, *logging.MockLogger) {
	logger := logging.NewMockLogger()
	return NewResolver(columnref.DefaultPolicy(), logger), logger
}

func schemaFromJSON(t *testing.T, mappings string) models.ParsingSchema {
	t.Helper()
	var m models.FieldMapping
	require.NoError(t, json.Unmarshal([]byte(mappings), &m))
	return models.ParsingSchema{
		Bank:                "mbank",
		Format:              "csv",
		ColumnMappings:      m,
		FirstTransactionRow: 2,
		DateFormat:          "DD-MM-YYYY",
		Currency:            "PLN",
		AmountPositiveIs:    models.AmountPositiveIsCredit,
		Enabled:             true,
	}
}

func TestResolveColumns_CleanSchema(t *testing.T) {
	r, _ := newTestResolver()
	schema := schemaFromJSON(t, `{"date":"1","amount":"5","description":["2","3","4"],"balance":"6"}`)

	cols, err := r.ResolveColumns(schema, nineHeaders, 9)
	require.NoError(t, err)
	assert.Equal(t, Columns{
		models.FieldDate:        {1},
		models.FieldAmount:      {5},
		models.FieldDescription: {2, 3, 4},
		models.FieldBalance:     {6},
	}, cols)

	first, ok := cols.First(models.FieldAmount)
	assert.True(t, ok)
	assert.Equal(t, 5, first)
	_, ok = cols.First(models.FieldCurrency)
	assert.False(t, ok)
}

func TestResolveColumns_CorruptedSchema(t *testing.T) {
	r, logger := newTestResolver()
	schema := schemaFromJSON(t, `{
		"date":"02-01-2025",
		"amount":"21483,27",
		"balance":"26480,21",
		"description":["'66 1090 1883","SUHEL E ABU","PLN"]
	}`)

	cols, err := r.ResolveColumns(schema, nineHeaders, 9)
	require.Error(t, err)
	assert.Nil(t, cols)

	var resErr *parsererror.ColumnResolutionError
	require.True(t, errors.As(err, &resErr))
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8}, resErr.AvailableColumns)
	assert.Equal(t, []models.FieldName{
		models.FieldDate, models.FieldAmount, models.FieldBalance, models.FieldDescription,
	}, resErr.FailedFields())
	assert.Empty(t, resErr.MissingRequired)

	reasons := map[string]models.ReasonCode{}
	for _, f := range resErr.Failures {
		reasons[f.Value] = f.Reason
	}
	assert.Equal(t, models.ReasonDatePattern, reasons["02-01-2025"])
	assert.Equal(t, models.ReasonDecimalPattern, reasons["21483,27"])
	assert.Equal(t, models.ReasonDecimalPattern, reasons["26480,21"])
	assert.Equal(t, models.ReasonTooLong, reasons["'66 1090 1883"])
	assert.Equal(t, models.ReasonHeaderNameUnresolvable, reasons["SUHEL E ABU"])
	assert.Equal(t, models.ReasonHeaderNameUnresolvable, reasons["PLN"])

	msg := err.Error()
	assert.Contains(t, msg, `bank "mbank"`)
	assert.Contains(t, msg, "Available columns: 0, 1, 2, 3, 4, 5, 6, 7, 8")
	assert.Contains(t, msg, "To fix this:")
	assert.True(t, logger.HasEntry("WARN", "Column mapping could not be resolved"))
}

func TestResolveColumns_MissingRequired(t *testing.T) {
	r, _ := newTestResolver()
	schema := schemaFromJSON(t, `{"date":"0","balance":"3"}`)

	_, err := r.ResolveColumns(schema, nil, 4)
	var resErr *parsererror.ColumnResolutionError
	require.True(t, errors.As(err, &resErr))
	assert.Empty(t, resErr.Failures)
	assert.Equal(t, []models.FieldName{models.FieldAmount, models.FieldDescription}, resErr.MissingRequired)
	assert.Contains(t, err.Error(), "Missing required fields: amount, description")
}

func TestResolveColumns_IndexBeyondFile(t *testing.T) {
	r, _ := newTestResolver()
	schema := schemaFromJSON(t, `{"date":"0","amount":"1","description":["2","7"]}`)

	_, err := r.ResolveColumns(schema, []string{"a", "b", "c"}, 0)
	var resErr *parsererror.ColumnResolutionError
	require.True(t, errors.As(err, &resErr))
	require.Len(t, resErr.Failures, 1)
	assert.Equal(t, parsererror.FieldResolutionFailure{
		Field: models.FieldDescription, Value: "7", Reason: models.ReasonOutOfRange,
	}, resErr.Failures[0])
	assert.Equal(t, []int{0, 1, 2}, resErr.AvailableColumns)
}

func TestResolveColumns_LegacyHeaderNames(t *testing.T) {
	r, logger := newTestResolver()
	schema := schemaFromJSON(t, `{"date":"Data operacji","amount":"Kwota","description":["Opis","3"]}`)

	cols, err := r.ResolveColumns(schema, nineHeaders, 9)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, cols[models.FieldDate])
	assert.Equal(t, []int{5}, cols[models.FieldAmount])
	assert.Equal(t, []int{2, 3}, cols[models.FieldDescription])
	assert.Len(t, logger.EntriesByLevel("WARN"), 3)
}

func TestResolveColumns_NoColumnsDetected(t *testing.T) {
	r, _ := newTestResolver()
	schema := schemaFromJSON(t, `{"date":"0","amount":"1","description":["2"]}`)

	cols, err := r.ResolveColumns(schema, nil, 0)
	require.Error(t, err)
	assert.Nil(t, cols)
	assert.Contains(t, err.Error(), "Available columns: none detected in this file")

	var resErr *parsererror.ColumnResolutionError
	require.True(t, errors.As(err, &resErr))
	require.Len(t, resErr.Failures, 3)
	for _, f := range resErr.Failures {
		assert.Equal(t, models.ReasonOutOfRange, f.Reason, f.Field)
	}
}

func TestResolveColumns_DecodeError(t *testing.T) {
	r, _ := newTestResolver()
	schema := models.ParsingSchema{
		Bank:        "ing",
		DecodeError: "invalid character",
		RawMappings: `{"date": 1`,
	}

	_, err := r.ResolveColumns(schema, nineHeaders, 9)
	var resErr *parsererror.ColumnResolutionError
	require.True(t, errors.As(err, &resErr))
	assert.Equal(t, []models.FieldName{models.FieldColumnMappings}, resErr.FailedFields())
	assert.Len(t, resErr.MissingRequired, 3)
}

func TestValidateFirstTransactionRow(t *testing.T) {
	assert.NoError(t, ValidateFirstTransactionRow(1, 10))
	assert.NoError(t, ValidateFirstTransactionRow(10, 10))

	var valErr *parsererror.ValidationError
	assert.True(t, errors.As(ValidateFirstTransactionRow(0, 10), &valErr))
	assert.Equal(t, "first_transaction_row", valErr.Subject)
	assert.Error(t, ValidateFirstTransactionRow(-3, 10))
	assert.Error(t, ValidateFirstTransactionRow(11, 10))
}

func TestResolve(t *testing.T) {
	r, _ := newTestResolver()
	schema := schemaFromJSON(t, `{"date":"Data operacji","amount":"5","description":["2","3","4"],"balance":"6"}`)
	preview := models.Preview{
		DetectedHeaders: nineHeaders,
		Rows:            [][]string{nineHeaders, {"1", "02-01-2025", "a", "b", "c", "-12,50", "100,00", "PLN", ""}},
		TotalColumns:    9,
		TotalRows:       2,
	}

	res, err := r.Resolve(schema, preview)
	require.NoError(t, err)
	assert.Equal(t, "mbank", res.Bank)
	assert.Equal(t, 2, res.FirstTransactionRow)
	assert.Equal(t, "DD-MM-YYYY", res.DateFormat)
	assert.Equal(t, "PLN", res.Currency)
	assert.Equal(t, models.AmountPositiveIsCredit, res.AmountPositiveIs)
	assert.Equal(t, []models.FieldName{models.FieldDate}, res.Legacy)
	assert.Equal(t, []int{2, 3, 4}, res.Columns[models.FieldDescription])
}

func TestResolve_FirstRowPastEnd(t *testing.T) {
	r, _ := newTestResolver()
	schema := schemaFromJSON(t, `{"date":"0","amount":"1","description":["2"]}`)
	schema.FirstTransactionRow = 5

	_, err := r.Resolve(schema, models.Preview{DetectedHeaders: []string{"a", "b", "c"}, TotalColumns: 3, TotalRows: 3})
	var valErr *parsererror.ValidationError
	assert.True(t, errors.As(err, &valErr))
}
