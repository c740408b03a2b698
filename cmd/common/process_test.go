package common_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"fjacquet/colmap/cmd/common"
	"fjacquet/colmap/internal/logging"
	"fjacquet/colmap/internal/mapping"
	"fjacquet/colmap/internal/models"
	"fjacquet/colmap/internal/preview"
	"fjacquet/colmap/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockStore implements store.PreferenceStore for testing
type MockStore struct {
	mock.Mock
}

func (m *MockStore) List(ctx context.Context) ([]models.ParsingSchema, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.ParsingSchema), args.Error(1)
}

func (m *MockStore) Get(ctx context.Context, key models.SchemaKey) (models.ParsingSchema, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(models.ParsingSchema), args.Error(1)
}

func (m *MockStore) Save(ctx context.Context, schema models.ParsingSchema) (models.ParsingSchema, error) {
	args := m.Called(ctx, schema)
	return args.Get(0).(models.ParsingSchema), args.Error(1)
}

func (m *MockStore) Disable(ctx context.Context, key models.SchemaKey) error {
	return m.Called(ctx, key).Error(0)
}

func (m *MockStore) Delete(ctx context.Context, key models.SchemaKey) error {
	return m.Called(ctx, key).Error(0)
}

func (m *MockStore) Close() error {
	return m.Called().Error(0)
}

func TestSchemaFlags(t *testing.T) {
	flags := common.SchemaFlags{Bank: " mbank ", Format: " csv "}
	assert.Equal(t, models.SchemaKey{Bank: "mbank", Format: "csv"}, flags.Key())
	assert.NoError(t, flags.Validate(false))
	assert.ErrorContains(t, flags.Validate(true), "a statement file is required")
	assert.ErrorContains(t, common.SchemaFlags{}.Validate(false), "--bank is required")
}

func TestLoadSchema(t *testing.T) {
	ctx := context.Background()
	key := models.SchemaKey{Bank: "mbank", Format: "csv"}
	saved := models.ParsingSchema{ID: "1", Bank: "mbank", Format: "csv", Enabled: true}

	st := new(MockStore)
	st.On("Get", ctx, key).Return(saved, nil).Once()
	st.On("Get", ctx, key).Return(models.ParsingSchema{}, store.ErrNotFound).Once()
	st.On("Get", ctx, key).Return(models.ParsingSchema{}, errors.New("disk I/O error")).Once()

	got, err := common.LoadSchema(ctx, st, key)
	require.NoError(t, err)
	assert.Equal(t, saved, got)

	_, err = common.LoadSchema(ctx, st, key)
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Contains(t, err.Error(), "colmap suggest")

	_, err = common.LoadSchema(ctx, st, key)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk I/O error")

	st.AssertExpectations(t)
}

func TestLoadStatement(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ing.csv")
	require.NoError(t, os.WriteFile(path, []byte("Date;Amount;Text\n01.02.2025;-12,50;Coffee\n"), 0600))

	logger := logging.NewMockLogger()
	loader := preview.NewLoader(0, 0, logger)

	p, err := common.LoadStatement(loader, path, 2, logger)
	require.NoError(t, err)
	assert.Equal(t, []string{"Date", "Amount", "Text"}, p.DetectedHeaders)
	assert.Equal(t, 3, p.TotalColumns)
	assert.True(t, logger.HasEntry("DEBUG", "Statement loaded"))

	_, err = common.LoadStatement(loader, filepath.Join(t.TempDir(), "missing.csv"), 2, logger)
	assert.ErrorContains(t, err, "failed to read statement")
}

func TestWriteAssignments(t *testing.T) {
	var out bytes.Buffer
	err := common.WriteAssignments(&out, mapping.Assignments{0: models.FieldDate, 2: models.FieldDescription},
		[]string{"Date", "Amount", "Text"}, 3)
	require.NoError(t, err)

	assert.Equal(t,
		"    0  date           Date\n"+
			"    1  -              Amount\n"+
			"    2  description    Text\n",
		out.String())
}

func TestMapCommand(t *testing.T) {
	cmd := common.MapCommand(models.SchemaKey{Bank: "Credit Agricole", Format: "csv"},
		mapping.Assignments{3: models.FieldDescription, 0: models.FieldDate, 1: models.FieldDoNotUse, 2: models.FieldAmount}, 2)
	assert.Equal(t, `colmap map --bank "Credit Agricole" --format csv --column 0=date --column 2=amount --column 3=description --first-row 2`, cmd)
}

func TestHeaderLabel(t *testing.T) {
	headers := []string{" Date ", "Amount"}
	assert.Equal(t, "Date", common.HeaderLabel(headers, 0))
	assert.Equal(t, "", common.HeaderLabel(headers, 5))
	assert.Equal(t, "", common.HeaderLabel(headers, -1))
}
