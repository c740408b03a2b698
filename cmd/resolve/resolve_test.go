package resolve

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"fjacquet/colmap/cmd/common"
	"fjacquet/colmap/internal/config"
	"fjacquet/colmap/internal/container"
	"fjacquet/colmap/internal/logging"
	"fjacquet/colmap/internal/models"
	"fjacquet/colmap/internal/parsererror"
	"fjacquet/colmap/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const statement = "Date,Description,Payee,Amount,Balance\n" +
	"2025-01-02,Salary,ACME,2500.00,3100.00\n" +
	"2025-01-03,Groceries,Migros,-54.20,3045.80\n"

func setup(t *testing.T, m models.FieldMapping, enabled bool) (*container.Container, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ubs.csv")
	require.NoError(t, os.WriteFile(path, []byte(statement), 0600))

	st := store.NewMemoryStore()
	st.Seed(models.ParsingSchema{
		ID: "1", Bank: "ubs", Format: "csv", ColumnMappings: m,
		FirstTransactionRow: 2, DateFormat: "2006-01-02", Currency: "CHF", Enabled: enabled,
	})
	c, err := container.NewContainerWith(config.Default(), logging.NewMockLogger(), st)
	require.NoError(t, err)
	return c, path
}

func TestResolveCommand_Metadata(t *testing.T) {
	assert.Equal(t, "resolve", Cmd.Use)
	assert.Contains(t, Cmd.Long, "Example")
}

func TestRun_Resolved(t *testing.T) {
	var m models.FieldMapping
	require.NoError(t, m.Set(models.FieldDate, "0"))
	require.NoError(t, m.Set(models.FieldAmount, "3"))
	require.NoError(t, m.Set(models.FieldVendorPayee, "2"))
	m.SetDescription([]models.ColumnRef{"1"})
	c, path := setup(t, m, true)
	var out bytes.Buffer

	res, err := Run(context.Background(), c, common.SchemaFlags{Bank: "ubs", Format: "csv", File: path}, &out)
	require.NoError(t, err)

	assert.Equal(t, []int{3}, res.Columns[models.FieldAmount])
	assert.Equal(t, 2, res.FirstTransactionRow)
	assert.Equal(t, "CHF", res.Currency)
	assert.Contains(t, out.String(), "Resolved column mapping for bank ubs/csv (csv)")
	assert.Contains(t, out.String(), "Transactions start at row 2 of 3")
	assert.Contains(t, out.String(), "  amount         3 (Amount)\n")
	assert.Contains(t, out.String(), "  description    1 (Description)\n")
}

func TestRun_CorruptedMapping(t *testing.T) {
	var m models.FieldMapping
	require.NoError(t, m.Set(models.FieldDate, "2025-01-02"))
	require.NoError(t, m.Set(models.FieldAmount, "2500.00"))
	m.SetDescription([]models.ColumnRef{"1"})
	c, path := setup(t, m, true)
	var out bytes.Buffer

	_, err := Run(context.Background(), c, common.SchemaFlags{Bank: "ubs", Format: "csv", File: path}, &out)
	require.Error(t, err)

	var resolution *parsererror.ColumnResolutionError
	require.True(t, errors.As(err, &resolution))
	assert.ElementsMatch(t, []models.FieldName{models.FieldDate, models.FieldAmount}, resolution.FailedFields())
	assert.Contains(t, err.Error(), "saved mappings contain data values instead of column indices")
	assert.Contains(t, err.Error(), "Available columns: 0, 1, 2, 3, 4")
	assert.Empty(t, out.String())
}

func TestRun_DisabledMapping(t *testing.T) {
	var m models.FieldMapping
	require.NoError(t, m.Set(models.FieldDate, "0"))
	c, path := setup(t, m, false)

	_, err := Run(context.Background(), c, common.SchemaFlags{Bank: "ubs", Format: "csv", File: path}, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is disabled")
}
