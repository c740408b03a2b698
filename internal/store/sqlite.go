package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"fjacquet/colmap/internal/columnref"
	"fjacquet/colmap/internal/fileutils"
	"fjacquet/colmap/internal/logging"
	"fjacquet/colmap/internal/models"

	_ "modernc.org/sqlite"
)

const schemaDDL = `CREATE TABLE IF NOT EXISTS parsing_schemas (
	id                    TEXT PRIMARY KEY,
	bank_name             TEXT NOT NULL,
	format_name           TEXT NOT NULL DEFAULT '',
	column_mappings       TEXT NOT NULL,
	first_transaction_row INTEGER NOT NULL,
	date_format           TEXT NOT NULL DEFAULT '',
	currency              TEXT NOT NULL DEFAULT '',
	amount_positive_is    TEXT NOT NULL DEFAULT 'credit',
	enabled               INTEGER NOT NULL DEFAULT 1,
	updated_at            TEXT NOT NULL,
	UNIQUE (bank_name, format_name)
)`

const selectColumns = `SELECT id, bank_name, format_name, column_mappings, first_transaction_row,
	date_format, currency, amount_positive_is, enabled, updated_at FROM parsing_schemas`

// SQLiteStore keeps schemas in a SQLite database. Column mappings are stored
// as JSON text.
type SQLiteStore struct {
	db     *sql.DB
	policy columnref.Policy
	logger logging.Logger
	now    func() time.Time
}

// NewSQLiteStore opens (creating if needed) the database at path.
func NewSQLiteStore(path string, policy columnref.Policy, logger logging.Logger) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := fileutils.EnsureDirectoryExists(filepath.Dir(path)); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// One connection keeps :memory: databases shared and serialises writers.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schemaDDL); err != nil {
		db.Close()
		return nil, fmt.Errorf("create parsing_schemas table: %w", err)
	}
	return &SQLiteStore{
		db:     db,
		policy: policy,
		logger: logger.WithFields(logging.F(logging.FieldBackend, BackendSQLite), logging.F(logging.FieldFile, path)),
		now:    time.Now,
	}, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]models.ParsingSchema, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+` ORDER BY bank_name, format_name`)
	if err != nil {
		return nil, fmt.Errorf("list parsing schemas: %w", err)
	}
	defer rows.Close()

	var schemas []models.ParsingSchema
	for rows.Next() {
		schema, err := s.scan(rows)
		if err != nil {
			return nil, err
		}
		schemas = append(schemas, schema)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list parsing schemas: %w", err)
	}
	s.logger.Debug("Loaded parsing schemas", logging.F(logging.FieldCount, len(schemas)))
	return schemas, nil
}

func (s *SQLiteStore) Get(ctx context.Context, key models.SchemaKey) (models.ParsingSchema, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE bank_name = ? AND format_name = ?`, key.Bank, key.Format)
	schema, err := s.scan(row)
	if err == sql.ErrNoRows {
		return models.ParsingSchema{}, fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	return schema, err
}

func (s *SQLiteStore) Save(ctx context.Context, schema models.ParsingSchema) (models.ParsingSchema, error) {
	record, err := PrepareSave(s.policy, schema, s.now())
	if err != nil {
		return models.ParsingSchema{}, err
	}
	mappings, err := json.Marshal(record.ColumnMappings)
	if err != nil {
		return models.ParsingSchema{}, fmt.Errorf("encode column mappings: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.ParsingSchema{}, fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM parsing_schemas WHERE bank_name = ? AND format_name = ?`,
		record.Bank, record.Format); err != nil {
		return models.ParsingSchema{}, fmt.Errorf("replace parsing schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO parsing_schemas (id, bank_name, format_name, column_mappings,
		first_transaction_row, date_format, currency, amount_positive_is, enabled, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID, record.Bank, record.Format, string(mappings), record.FirstTransactionRow,
		record.DateFormat, record.Currency, string(record.AmountPositiveIs), 1,
		record.UpdatedAt.Format(time.RFC3339Nano)); err != nil {
		return models.ParsingSchema{}, fmt.Errorf("insert parsing schema: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return models.ParsingSchema{}, fmt.Errorf("commit save: %w", err)
	}

	s.logger.Info("Saved parsing schema", append(keyFields(record.Key()), logging.F(logging.FieldSchemaID, record.ID))...)
	return record, nil
}

func (s *SQLiteStore) Disable(ctx context.Context, key models.SchemaKey) error {
	res, err := s.db.ExecContext(ctx, `UPDATE parsing_schemas SET enabled = 0, updated_at = ?
		WHERE bank_name = ? AND format_name = ?`,
		s.now().UTC().Format(time.RFC3339Nano), key.Bank, key.Format)
	if err != nil {
		return fmt.Errorf("disable parsing schema %s: %w", key, err)
	}
	return affectedOne(res, key)
}

func (s *SQLiteStore) Delete(ctx context.Context, key models.SchemaKey) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM parsing_schemas WHERE bank_name = ? AND format_name = ?`,
		key.Bank, key.Format)
	if err != nil {
		return fmt.Errorf("delete parsing schema %s: %w", key, err)
	}
	return affectedOne(res, key)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *SQLiteStore) scan(row rowScanner) (models.ParsingSchema, error) {
	var (
		schema    models.ParsingSchema
		mappings  string
		sign      string
		enabled   int
		updatedAt string
	)
	err := row.Scan(&schema.ID, &schema.Bank, &schema.Format, &mappings, &schema.FirstTransactionRow,
		&schema.DateFormat, &schema.Currency, &sign, &enabled, &updatedAt)
	if err == sql.ErrNoRows {
		return schema, err
	}
	if err != nil {
		return schema, fmt.Errorf("read parsing schema: %w", err)
	}

	schema.AmountPositiveIs = models.AmountSign(sign)
	schema.Enabled = enabled != 0
	if t, err := time.Parse(time.RFC3339Nano, updatedAt); err == nil {
		schema.UpdatedAt = t
	}
	if err := json.Unmarshal([]byte(mappings), &schema.ColumnMappings); err != nil {
		schema.DecodeError = err.Error()
		schema.RawMappings = mappings
		s.logger.Warn("Stored column mappings could not be decoded",
			append(keyFields(schema.Key()), logging.F(logging.FieldValue, mappings))...)
	}
	return schema, nil
}

func affectedOne(res sql.Result, key models.SchemaKey) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	return nil
}
