package container

import (
	"context"
	"path/filepath"
	"testing"

	"fjacquet/colmap/internal/config"
	"fjacquet/colmap/internal/logging"
	"fjacquet/colmap/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(backend, path string) *config.Config {
	cfg := &config.Config{}
	cfg.Log.Level = "error"
	cfg.Log.Format = "text"
	cfg.Store.Backend = backend
	cfg.Store.Path = path
	cfg.Mapping.MaxColumnIndex = 40
	cfg.Mapping.MaxReferenceLength = 2
	cfg.Preview.Delimiter = ";"
	cfg.Scan.Workers = 2
	return cfg
}

func TestNewContainer(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name        string
		config      *config.Config
		expectError bool
		errorMsg    string
	}{
		{
			name:        "nil config",
			config:      nil,
			expectError: true,
			errorMsg:    "configuration cannot be nil",
		},
		{
			name:   "yaml store",
			config: testConfig(config.BackendYAML, filepath.Join(dir, "schemas.yaml")),
		},
		{
			name:   "sqlite store",
			config: testConfig(config.BackendSQLite, filepath.Join(dir, "schemas.db")),
		},
		{
			name:        "unknown backend",
			config:      testConfig("redis", ""),
			expectError: true,
			errorMsg:    "unknown store backend",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewContainer(tt.config)
			if tt.expectError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
				assert.Nil(t, c)
				return
			}
			require.NoError(t, err)
			defer func() { assert.NoError(t, c.Close()) }()

			assert.NotNil(t, c.GetLogger())
			assert.Same(t, tt.config, c.GetConfig())
			assert.NotNil(t, c.GetStore())
			assert.NotNil(t, c.GetBuilder())
			assert.NotNil(t, c.GetResolver())
			assert.NotNil(t, c.GetScanner())
			assert.NotNil(t, c.GetLoader())
			assert.NotNil(t, c.GetParser())
			assert.NotNil(t, c.GetSniffer())

			schemas, err := c.GetStore().List(context.Background())
			require.NoError(t, err)
			assert.Empty(t, schemas)
		})
	}
}

func TestNewContainerWith_SharesPolicy(t *testing.T) {
	logger := logging.NewMockLogger()
	st := store.NewMemoryStore()

	c, err := NewContainerWith(testConfig(config.BackendYAML, ""), logger, st)
	require.NoError(t, err)

	assert.Equal(t, 40, c.GetPolicy().MaxColumnIndex)
	assert.Equal(t, 2, c.GetPolicy().MaxReferenceLength)
	assert.Same(t, st, c.GetStore())
	assert.True(t, logger.HasEntry("DEBUG", "Container initialized successfully"))

	// "45" is a canonical index but beyond the configured maximum.
	assert.False(t, c.GetPolicy().IsValid("45"))
	assert.True(t, c.GetPolicy().IsValid("39"))
}

func TestNewContainerWith_RequiresDependencies(t *testing.T) {
	cfg := testConfig(config.BackendYAML, "")

	_, err := NewContainerWith(cfg, nil, store.NewMemoryStore())
	assert.ErrorContains(t, err, "logger cannot be nil")

	_, err = NewContainerWith(cfg, logging.NewMockLogger(), nil)
	assert.ErrorContains(t, err, "store cannot be nil")
}
