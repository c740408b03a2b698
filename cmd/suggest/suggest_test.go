package suggest

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"fjacquet/colmap/cmd/common"
	"fjacquet/colmap/internal/config"
	"fjacquet/colmap/internal/container"
	"fjacquet/colmap/internal/logging"
	"fjacquet/colmap/internal/mapping"
	"fjacquet/colmap/internal/models"
	"fjacquet/colmap/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T, content string) (*container.Container, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "statement.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	c, err := container.NewContainerWith(config.Default(), logging.NewMockLogger(), store.NewMemoryStore())
	require.NoError(t, err)
	return c, path
}

func TestSuggestCommand_Metadata(t *testing.T) {
	assert.Equal(t, "suggest", Cmd.Use)
	assert.Contains(t, Cmd.Long, "Example")
	for _, name := range []string{"file", "first-row", "bank", "format"} {
		assert.NotNil(t, Cmd.Flags().Lookup(name), name)
	}
}

func TestRun_FromHeaders(t *testing.T) {
	c, path := setup(t, "Date,Description,Amount,Currency\n"+
		"2025-01-02,Coffee,-3.50,EUR\n"+
		"2025-01-03,Salary,2500.00,EUR\n")
	var out bytes.Buffer

	sug, err := Run(context.Background(), c, Options{SchemaFlags: common.SchemaFlags{File: path}, FirstRow: 2}, &out)
	require.NoError(t, err)

	assert.Equal(t, mapping.Assignments{
		0: models.FieldDate, 1: models.FieldDescription, 2: models.FieldAmount, 3: models.FieldCurrency,
	}, sug.Assignments)
	assert.Contains(t, out.String(), "(4 columns, transactions start at row 2)")
	assert.Contains(t, out.String(), `header contains "amount"`)
	assert.Contains(t, out.String(),
		"colmap map --bank BANK --column 0=date --column 1=description --column 2=amount --column 3=currency --first-row 2")
	assert.NotContains(t, out.String(), "No column was found")
}

func TestRun_UsesBankInHint(t *testing.T) {
	c, path := setup(t, "Date,Description,Amount\n2025-01-02,Coffee,-3.50\n")
	var out bytes.Buffer

	_, err := Run(context.Background(), c, Options{
		SchemaFlags: common.SchemaFlags{Bank: "Credit Agricole", Format: "csv", File: path},
		FirstRow:    2,
	}, &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), `colmap map --bank "Credit Agricole" --format csv --column 0=date`)
}

func TestRun_ReportsMissingRequiredFields(t *testing.T) {
	c, path := setup(t, "Date,Description,Debit,Credit\n"+
		"2025-01-02,Coffee,3.50,\n"+
		"2025-01-03,Salary,,2500.00\n")
	var out bytes.Buffer

	sug, err := Run(context.Background(), c, Options{SchemaFlags: common.SchemaFlags{File: path}, FirstRow: 2}, &out)
	require.NoError(t, err)

	assert.Equal(t, models.FieldOutflow, sug.Assignments[2])
	assert.Contains(t, out.String(), "No column was found for: amount.")
}

func TestRun_InvalidInput(t *testing.T) {
	c, path := setup(t, "a,b\n1,2\n")

	_, err := Run(context.Background(), c, Options{FirstRow: 2}, &bytes.Buffer{})
	assert.ErrorContains(t, err, "a statement file is required")

	_, err = Run(context.Background(), c, Options{SchemaFlags: common.SchemaFlags{File: path}, FirstRow: 0}, &bytes.Buffer{})
	assert.ErrorContains(t, err, "--first-row must be at least 1")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Run(ctx, c, Options{SchemaFlags: common.SchemaFlags{File: path}, FirstRow: 2}, &bytes.Buffer{})
	assert.ErrorIs(t, err, context.Canceled)
}
