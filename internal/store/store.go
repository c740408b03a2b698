// Package store persists parsing schemas, one per (bank, format) pair.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"fjacquet/colmap/internal/columnref"
	"fjacquet/colmap/internal/logging"
	"fjacquet/colmap/internal/models"
	"fjacquet/colmap/internal/parsererror"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no schema exists for a key.
var ErrNotFound = errors.New("parsing schema not found")

const (
	BackendYAML   = "yaml"
	BackendSQLite = "sqlite"
)

// PreferenceStore reads and writes parsing schemas. Writes are full replace
// per (bank, format); no read-then-write pair is atomic.
type PreferenceStore interface {
	// List returns every stored schema ordered by bank then format. Schemas
	// whose mappings could not be decoded are returned with DecodeError set.
	List(ctx context.Context) ([]models.ParsingSchema, error)
	Get(ctx context.Context, key models.SchemaKey) (models.ParsingSchema, error)
	// Save validates schema and stores it as a fresh active record.
	Save(ctx context.Context, schema models.ParsingSchema) (models.ParsingSchema, error)
	Disable(ctx context.Context, key models.SchemaKey) error
	Delete(ctx context.Context, key models.SchemaKey) error
	Close() error
}

// Open creates the store for backend at path.
func Open(backend, path string, policy columnref.Policy, logger logging.Logger) (PreferenceStore, error) {
	switch strings.ToLower(backend) {
	case "", BackendYAML:
		return NewYAMLStore(path, policy, logger), nil
	case BackendSQLite:
		return NewSQLiteStore(path, policy, logger)
	default:
		return nil, fmt.Errorf("unknown store backend %q (must be %q or %q)", backend, BackendYAML, BackendSQLite)
	}
}

// DefaultPath returns the default location of the store file for backend.
func DefaultPath(backend string) string {
	name := "schemas.yaml"
	if backend == BackendSQLite {
		name = "schemas.db"
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".colmap", name)
	}
	return filepath.Join(".colmap", name)
}

// PrepareSave is the write gate every backend runs before storing schema. It
// rejects corrupted mappings and returns the record to write: a new ID, active,
// stamped with now.
func PrepareSave(policy columnref.Policy, schema models.ParsingSchema, now time.Time) (models.ParsingSchema, error) {
	schema.Bank = strings.TrimSpace(schema.Bank)
	schema.Format = strings.TrimSpace(schema.Format)
	if schema.Bank == "" {
		return schema, &parsererror.ValidationError{Subject: "bank_name", Reason: "must not be empty"}
	}
	if schema.FirstTransactionRow < 1 {
		return schema, &parsererror.ValidationError{
			Subject: "first_transaction_row",
			Reason:  fmt.Sprintf("must be at least 1, got %d", schema.FirstTransactionRow),
		}
	}
	if schema.DecodeError != "" {
		return schema, &parsererror.MappingCorruptionError{
			Bank:   schema.Bank,
			Report: policy.CollectSchemaIssues(schema),
		}
	}
	if schema.ColumnMappings.IsEmpty() {
		return schema, &parsererror.ValidationError{Subject: "column_mappings", Reason: "must map at least one field"}
	}
	if report := policy.CollectInvalidMappings(schema.ColumnMappings); !report.IsEmpty() {
		return schema, &parsererror.MappingCorruptionError{Bank: schema.Bank, Report: report}
	}

	sign, err := models.ParseAmountSign(string(schema.AmountPositiveIs))
	if err != nil {
		return schema, &parsererror.ValidationError{Subject: "amount_positive_is", Reason: err.Error()}
	}
	schema.AmountPositiveIs = sign
	schema.ID = uuid.NewString()
	schema.Enabled = true
	schema.UpdatedAt = now.UTC()
	return schema, nil
}

func keyFields(key models.SchemaKey) []logging.Field {
	return []logging.Field{
		logging.F(logging.FieldBank, key.Bank),
		logging.F(logging.FieldFormat, key.Format),
	}
}
